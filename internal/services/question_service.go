package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoodefence/internal/extract"
	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/providers/llm"
)

const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 10
)

type DefenceParams struct {
	ProjectTitle     string              `json:"projectTitle"`
	AcademicLevel    string              `json:"academicLevel"`
	TechnologiesUsed string              `json:"technologiesUsed"` // comma separated
	FocusRatio       string              `json:"focusRatio"`
	QuestionCount    int                 `json:"questionCount"`
	ProjectFile      *models.ProjectFile `json:"projectFile,omitempty"`
}

type JobParams struct {
	Role      string `json:"role"`
	Level     string `json:"level"`
	TechStack string `json:"techstack"` // comma separated
	Type      string `json:"type"`
	Amount    int    `json:"amount"`
}

// QuestionService always yields a usable list: model failures and unparsable
// answers both fall back to the built-in questions.
type QuestionService interface {
	DefenceQuestions(ctx context.Context, p DefenceParams) []string
	JobQuestions(ctx context.Context, p JobParams) []string
}

type questionService struct {
	llm llm.Provider
	log logrus.FieldLogger
}

func NewQuestionService(provider llm.Provider, log logrus.FieldLogger) QuestionService {
	return &questionService{llm: provider, log: log}
}

const questionSystem = "You prepare questions for a spoken examination. The questions are read aloud by a voice assistant, so never use slashes, asterisks or other special characters."

func DefencePrompt(p DefenceParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d project defence questions for a %s level project titled %q using %s.\n",
		p.QuestionCount, orDefault(p.AcademicLevel, "undergraduate"), p.ProjectTitle, p.TechnologiesUsed)
	fmt.Fprintf(&b, "Focus ratio between technical and methodology questions: %s.\n", orDefault(p.FocusRatio, "balanced"))
	if p.ProjectFile != nil && p.ProjectFile.Name != "" {
		fmt.Fprintf(&b, "The student submitted documentation named %q (%s).\n", p.ProjectFile.Name, p.ProjectFile.Type)
	}
	b.WriteString(`Return only a JSON array of questions, for example ["Question 1", "Question 2"]. No extra text.`)
	return b.String()
}

func JobPrompt(p JobParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prepare %d questions for a job interview.\n", p.Amount)
	fmt.Fprintf(&b, "The job role is %s.\n", p.Role)
	fmt.Fprintf(&b, "The job experience level is %s.\n", orDefault(p.Level, "junior"))
	fmt.Fprintf(&b, "The tech stack used in the job is: %s.\n", p.TechStack)
	fmt.Fprintf(&b, "The focus between behavioural and technical questions should lean towards: %s.\n", orDefault(p.Type, "mixed"))
	b.WriteString(`Return only a JSON array of questions, for example ["Question 1", "Question 2"]. No extra text.`)
	return b.String()
}

func (s *questionService) DefenceQuestions(ctx context.Context, p DefenceParams) []string {
	return s.generate(ctx, "defence", DefencePrompt(p))
}

func (s *questionService) JobQuestions(ctx context.Context, p JobParams) []string {
	return s.generate(ctx, "job-interview", JobPrompt(p))
}

func (s *questionService) generate(ctx context.Context, kind, prompt string) []string {
	l := s.log.WithField("kind", kind)
	if s.llm == nil {
		l.Warn("no language model configured, using default questions")
		return extract.Defaults()
	}

	raw, err := s.llm.Generate(ctx, questionSystem, prompt)
	if err != nil {
		l.WithError(err).WithField("provider", s.llm.Name()).Warn("question generation failed, using default questions")
		return extract.Defaults()
	}

	qs, strategy := extract.QuestionsWithStrategy(raw)
	if strategy == extract.StrategyDefault {
		l.WithField("raw_len", len(raw)).Warn("could not parse questions, using default questions")
	} else {
		l.WithFields(logrus.Fields{"strategy": strategy, "count": len(qs)}).Debug("questions parsed")
	}
	return qs
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
