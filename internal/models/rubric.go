package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Rubric is the fixed, ordered set of categories a transcript is scored on.
type Rubric struct {
	Kind       InterviewKind
	Categories []string
	// RequireInsights demands a non-empty DocumentationInsights.
	RequireInsights bool
}

var (
	InterviewRubric = Rubric{
		Kind: KindJobInterview,
		Categories: []string{
			"Communication Skills",
			"Technical Knowledge",
			"Problem Solving",
			"Cultural Fit",
			"Confidence and Clarity",
		},
	}
	DefenceRubric = Rubric{
		Kind: KindDefence,
		Categories: []string{
			"Technical Depth",
			"Methodology Rigor",
			"Presentation Skills",
			"Critical Analysis",
			"Documentation Alignment",
		},
		RequireInsights: true,
	}
)

func RubricFor(kind InterviewKind) Rubric {
	if kind == KindDefence {
		return DefenceRubric
	}
	return InterviewRubric
}

var ErrInvalidAssessment = errors.New("invalid assessment")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAssessment, fmt.Sprintf(format, args...))
}

// ValidateAssessment checks a decoded model answer against the rubric:
// exact category names in order, scores within 0..100, required text present.
func ValidateAssessment(r Rubric, a *Assessment) error {
	if a == nil {
		return invalid("empty")
	}
	if a.TotalScore < 0 || a.TotalScore > 100 {
		return invalid("totalScore %d out of range", a.TotalScore)
	}
	if len(a.CategoryScores) != len(r.Categories) {
		return invalid("want %d categories, got %d", len(r.Categories), len(a.CategoryScores))
	}
	for i, c := range a.CategoryScores {
		if !strings.EqualFold(strings.TrimSpace(c.Name), r.Categories[i]) {
			return invalid("category %d: want %q, got %q", i, r.Categories[i], c.Name)
		}
		if c.Score < 0 || c.Score > 100 {
			return invalid("category %q score %d out of range", r.Categories[i], c.Score)
		}
		if strings.TrimSpace(c.Comment) == "" {
			return invalid("category %q has no comment", r.Categories[i])
		}
	}
	if len(a.Strengths) == 0 {
		return invalid("strengths missing")
	}
	if len(a.AreasForImprovement) == 0 {
		return invalid("areasForImprovement missing")
	}
	if strings.TrimSpace(a.FinalAssessment) == "" {
		return invalid("finalAssessment missing")
	}
	if r.RequireInsights && strings.TrimSpace(a.DocumentationInsights) == "" {
		return invalid("documentationInsights missing")
	}
	return nil
}

type wireCategoryScore struct {
	Name    string   `json:"name"`
	Score   *float64 `json:"score"`
	Comment string   `json:"comment"`
}

type wireAssessment struct {
	TotalScore            *float64            `json:"totalScore"`
	CategoryScores        []wireCategoryScore `json:"categoryScores"`
	Strengths             []string            `json:"strengths"`
	AreasForImprovement   []string            `json:"areasForImprovement"`
	FinalAssessment       string              `json:"finalAssessment"`
	DocumentationInsights string              `json:"documentationInsights"`
}

// ParseAssessment decodes a model answer. Scores may be any JSON number and
// are rounded to the nearest integer; a missing score is invalid.
func ParseAssessment(raw []byte) (*Assessment, error) {
	var w wireAssessment
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	if w.TotalScore == nil {
		return nil, invalid("totalScore missing")
	}
	a := &Assessment{
		TotalScore:            roundScore(*w.TotalScore),
		Strengths:             w.Strengths,
		AreasForImprovement:   w.AreasForImprovement,
		FinalAssessment:       w.FinalAssessment,
		DocumentationInsights: w.DocumentationInsights,
	}
	for _, c := range w.CategoryScores {
		if c.Score == nil {
			return nil, invalid("category %q has no score", c.Name)
		}
		a.CategoryScores = append(a.CategoryScores, CategoryScore{Name: c.Name, Score: roundScore(*c.Score), Comment: c.Comment})
	}
	return a, nil
}

// roundScore keeps out-of-range values out of range so validation rejects them.
func roundScore(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 1000:
		return 1000
	}
	return int(math.Round(f))
}

// Normalize rewrites category names to their canonical spelling.
func (r Rubric) Normalize(a *Assessment) {
	for i := range a.CategoryScores {
		if i < len(r.Categories) {
			a.CategoryScores[i].Name = r.Categories[i]
		}
	}
}
