package models

import (
	"errors"
	"strings"
	"time"
)

type InterviewKind string

const (
	KindJobInterview InterviewKind = "job-interview"
	KindDefence      InterviewKind = "defence"
)

const (
	InterviewStatusPending   = "pending"
	InterviewStatusFinalized = "finalized"
)

// Interview is a practice session. Exactly one of Defence or Job is set,
// matching Kind.
type Interview struct {
	ID            string        `bson:"-" json:"id"`
	Kind          InterviewKind `bson:"kind" json:"kind"`
	UserID        string        `bson:"userId" json:"userId"`
	Status        string        `bson:"status" json:"status"`
	Finalized     bool          `bson:"finalized" json:"finalized"`
	Questions     []string      `bson:"questions" json:"questions"`
	QuestionCount int           `bson:"questionCount" json:"questionCount"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`

	Defence *DefenceDetails `bson:"defence,omitempty" json:"defence,omitempty"`
	Job     *JobDetails     `bson:"job,omitempty" json:"job,omitempty"`
}

type DefenceDetails struct {
	ProjectTitle     string       `bson:"projectTitle" json:"projectTitle"`
	AcademicLevel    string       `bson:"academicLevel" json:"academicLevel"`
	TechnologiesUsed []string     `bson:"technologiesUsed" json:"technologiesUsed"`
	FocusRatio       string       `bson:"focusRatio" json:"focusRatio"`
	ProjectFile      *ProjectFile `bson:"projectFile,omitempty" json:"projectFile,omitempty"`
}

type JobDetails struct {
	Role      string   `bson:"role" json:"role"`
	Level     string   `bson:"level" json:"level"`
	TechStack []string `bson:"techstack" json:"techstack"`
	Type      string   `bson:"type" json:"type"`
}

// ProjectFile describes an uploaded documentation file.
type ProjectFile struct {
	Name string `bson:"name" json:"name"`
	Type string `bson:"type" json:"type"`
	URL  string `bson:"url" json:"url"`
	Path string `bson:"path,omitempty" json:"path,omitempty"`
}

var (
	ErrUnknownKind     = errors.New("unknown interview kind")
	ErrVariantMismatch = errors.New("interview details do not match kind")
)

func (i *Interview) Validate() error {
	switch i.Kind {
	case KindDefence:
		if i.Defence == nil || i.Job != nil {
			return ErrVariantMismatch
		}
	case KindJobInterview:
		if i.Job == nil || i.Defence != nil {
			return ErrVariantMismatch
		}
	default:
		return ErrUnknownKind
	}
	return nil
}

func (i *Interview) OwnedBy(userID string) bool {
	return userID != "" && i.UserID == userID
}

// Title is a display name for either variant.
func (i *Interview) Title() string {
	switch {
	case i.Defence != nil:
		return i.Defence.ProjectTitle
	case i.Job != nil:
		return i.Job.Role
	}
	return ""
}

// SplitList splits a comma separated form field into trimmed, non-empty items.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
