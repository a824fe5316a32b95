package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionsWithStrategy(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     []string
		strategy string
	}{
		{
			name:     "plain array",
			raw:      `["What is X?", "Why Y?"]`,
			want:     []string{"What is X?", "Why Y?"},
			strategy: "strict",
		},
		{
			name:     "json fence",
			raw:      "Sure!\n```json\n[\"Q1\",\"Q2\"]\n```\nGood luck.",
			want:     []string{"Q1", "Q2"},
			strategy: "fenced",
		},
		{
			name:     "bare fence",
			raw:      "```\n[\"Only one\"]\n```",
			want:     []string{"Only one"},
			strategy: "fenced",
		},
		{
			name:     "array inside prose",
			raw:      `Here you go: ["A", "B", "C"] hope that helps`,
			want:     []string{"A", "B", "C"},
			strategy: "bracket",
		},
		{
			name:     "refusal",
			raw:      "I cannot answer that.",
			want:     DefaultQuestions,
			strategy: StrategyDefault,
		},
		{
			name:     "empty array",
			raw:      `[]`,
			want:     DefaultQuestions,
			strategy: StrategyDefault,
		},
		{
			name:     "numbers are not questions",
			raw:      `[1, 2, 3]`,
			want:     DefaultQuestions,
			strategy: StrategyDefault,
		},
		{
			name:     "object",
			raw:      `{"questions": "nope"}`,
			want:     DefaultQuestions,
			strategy: StrategyDefault,
		},
		{
			name:     "blank entries dropped",
			raw:      `["  ", "Real question? "]`,
			want:     []string{"Real question?"},
			strategy: "strict",
		},
		{
			name:     "empty",
			raw:      "",
			want:     DefaultQuestions,
			strategy: StrategyDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, strategy := QuestionsWithStrategy(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.strategy, strategy)
			assert.NotEmpty(t, got)
		})
	}
}

func TestDefaultsIsACopy(t *testing.T) {
	qs := Questions("nothing here")
	qs[0] = "changed"
	assert.Equal(t, "What was the main objective of your project?", DefaultQuestions[0])
	assert.Len(t, DefaultQuestions, 5)
}

func TestBrokenFenceFallsThroughToBracket(t *testing.T) {
	raw := "```json\n[\"a\", \n```\n and later [\"b\"]"
	got, strategy := QuestionsWithStrategy(raw)
	// the bracket span covers both arrays and is invalid JSON
	assert.Equal(t, StrategyDefault, strategy)
	assert.Equal(t, DefaultQuestions, got)
}
