package models

import (
	"fmt"
	"strings"
	"time"
)

type TranscriptMessage struct {
	Role    string `bson:"role" json:"role"` // user|system|assistant
	Content string `bson:"content" json:"content"`
}

// FormatTranscript renders messages as "- role: content" lines.
func FormatTranscript(msgs []TranscriptMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "- %s: %s\n", m.Role, m.Content)
	}
	return b.String()
}

type CategoryScore struct {
	Name    string `bson:"name" json:"name"`
	Score   int    `bson:"score" json:"score"`
	Comment string `bson:"comment" json:"comment"`
}

// Assessment is the scored part of a Feedback, as produced by the model.
type Assessment struct {
	TotalScore            int             `bson:"totalScore" json:"totalScore"`
	CategoryScores        []CategoryScore `bson:"categoryScores" json:"categoryScores"`
	Strengths             []string        `bson:"strengths" json:"strengths"`
	AreasForImprovement   []string        `bson:"areasForImprovement" json:"areasForImprovement"`
	FinalAssessment       string          `bson:"finalAssessment" json:"finalAssessment"`
	DocumentationInsights string          `bson:"documentationInsights,omitempty" json:"documentationInsights,omitempty"`
}

type Feedback struct {
	ID          string        `bson:"-" json:"id"`
	InterviewID string        `bson:"interviewId" json:"interviewId"`
	UserID      string        `bson:"userId" json:"userId"`
	Kind        InterviewKind `bson:"kind" json:"kind"`

	Assessment `bson:",inline"`

	Transcript []TranscriptMessage `bson:"transcript,omitempty" json:"transcript,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (f *Feedback) IsDefence() bool { return f.Kind == KindDefence }
