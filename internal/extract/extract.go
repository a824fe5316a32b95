// Package extract pulls a question list out of free-form model output.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// DefaultQuestions is returned when nothing usable can be parsed.
var DefaultQuestions = []string{
	"What was the main objective of your project?",
	"What technologies did you use and why?",
	"What were the biggest challenges you faced?",
	"How did you test your implementation?",
	"What would you do differently next time?",
}

// Strategy tries to read a question list from raw text. ok is false unless
// the result is a non-empty list of strings.
type Strategy struct {
	Name string
	Func func(raw string) (questions []string, ok bool)
}

const StrategyDefault = "default"

// Chain is the order strategies are tried in. The default list is the
// terminal step and is not part of it.
var Chain = []Strategy{
	{Name: "strict", Func: Strict},
	{Name: "fenced", Func: Fenced},
	{Name: "bracket", Func: Bracket},
}

// Questions never fails: it returns the first strategy's result or a copy of
// DefaultQuestions.
func Questions(raw string) []string {
	qs, _ := QuestionsWithStrategy(raw)
	return qs
}

func QuestionsWithStrategy(raw string) ([]string, string) {
	for _, s := range Chain {
		if qs, ok := s.Func(raw); ok {
			return qs, s.Name
		}
	}
	return Defaults(), StrategyDefault
}

func Defaults() []string {
	return append([]string(nil), DefaultQuestions...)
}

func Strict(raw string) ([]string, bool) {
	return decode(strings.TrimSpace(raw))
}

var fence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

func Fenced(raw string) ([]string, bool) {
	m := fence.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	return decode(m[1])
}

func Bracket(raw string) ([]string, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	return decode(raw[start : end+1])
}

func decode(s string) ([]string, bool) {
	if s == "" {
		return nil, false
	}
	var arr []string
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil, false
	}
	out := arr[:0]
	for _, q := range arr {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
