package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// CallLog is one voice call attempt against an interview.
type CallLog struct {
	ID              string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InterviewID     string         `gorm:"column:interview_id;index" json:"interview_id"`
	UserID          string         `gorm:"column:user_id;index" json:"user_id"`
	Attempt         int            `gorm:"column:attempt" json:"attempt"`
	Status          string         `gorm:"column:status;type:text" json:"status"`
	Questions       TextArray      `gorm:"column:questions" json:"questions"`
	StartedAt       time.Time      `gorm:"column:started_at;index" json:"started_at"`
	EndedAt         *time.Time     `gorm:"column:ended_at" json:"ended_at,omitempty"`
	DurationSeconds int64          `gorm:"column:duration_seconds" json:"duration_seconds"`
	TranscriptCount int            `gorm:"column:transcript_count" json:"transcript_count"`
	FeedbackID      string         `gorm:"column:feedback_id;type:text" json:"feedback_id,omitempty"`
	LastError       string         `gorm:"column:last_error;type:text" json:"last_error,omitempty"`
	Metadata        datatypes.JSON `gorm:"column:metadata" json:"metadata"`
}

func (CallLog) TableName() string { return "call_logs" }

// TextArray is a native text[] on postgres and the array literal in a text
// column elsewhere.
type TextArray []string

func (a TextArray) Value() (driver.Value, error) { return pq.StringArray(a).Value() }

func (a *TextArray) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*a = TextArray(arr)
	return nil
}

func (TextArray) GormDataType() string { return "text" }

func (TextArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
