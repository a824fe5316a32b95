package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yoockh/yoodefence/internal/extract"
	"github.com/yoockh/yoodefence/internal/logger"
	"github.com/yoockh/yoodefence/internal/models"
)

func TestDefenceQuestions(t *testing.T) {
	params := DefenceParams{
		ProjectTitle:     "Smart Irrigation",
		AcademicLevel:    "undergraduate",
		TechnologiesUsed: "Go, MQTT",
		FocusRatio:       "70/30",
		QuestionCount:    2,
		ProjectFile:      &models.ProjectFile{Name: "report.pdf", Type: "application/pdf"},
	}

	t.Run("fenced answer", func(t *testing.T) {
		fake := &fakeLLM{text: "```json\n[\"Q1\",\"Q2\"]\n```"}
		svc := NewQuestionService(fake, logger.Discard())
		assert.Equal(t, []string{"Q1", "Q2"}, svc.DefenceQuestions(context.Background(), params))

		prompt := fake.prompts[0]
		assert.Contains(t, prompt, "Generate 2 project defence questions")
		assert.Contains(t, prompt, `"Smart Irrigation"`)
		assert.Contains(t, prompt, "Go, MQTT")
		assert.Contains(t, prompt, "70/30")
		assert.Contains(t, prompt, "report.pdf")
		assert.Contains(t, prompt, "Return only a JSON array")
	})

	t.Run("refusal falls back", func(t *testing.T) {
		svc := NewQuestionService(&fakeLLM{text: "I cannot answer"}, logger.Discard())
		got := svc.DefenceQuestions(context.Background(), params)
		assert.Equal(t, extract.DefaultQuestions, got)
		assert.Len(t, got, 5)
	})

	t.Run("upstream error falls back", func(t *testing.T) {
		svc := NewQuestionService(&fakeLLM{err: errors.New("quota exceeded")}, logger.Discard())
		assert.Equal(t, extract.DefaultQuestions, svc.DefenceQuestions(context.Background(), params))
	})

	t.Run("no provider", func(t *testing.T) {
		svc := NewQuestionService(nil, logger.Discard())
		assert.NotEmpty(t, svc.DefenceQuestions(context.Background(), params))
	})
}

func TestJobPrompt(t *testing.T) {
	p := JobPrompt(JobParams{Role: "Backend Engineer", Level: "senior", TechStack: "Go,Kafka", Type: "technical", Amount: 3})
	assert.Contains(t, p, "Prepare 3 questions")
	assert.Contains(t, p, "Backend Engineer")
	assert.Contains(t, p, "senior")
	assert.Contains(t, p, "Go,Kafka")
	assert.Contains(t, p, "technical")
}
