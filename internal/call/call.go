// Package call drives one browser voice call through
// INACTIVE -> CONNECTING -> ACTIVE -> FINISHED.
//
// All state lives in the goroutine running Machine.Run. Start, Stop, Dispatch
// and Snapshot are messages on its queue, so there are no locks on machine
// state. Listeners are invoked from that goroutine and must not call back
// into the machine synchronously.
package call

import (
	"context"
	"errors"
	"strings"

	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/services"
)

type Status string

const (
	StatusInactive   Status = "INACTIVE"
	StatusConnecting Status = "CONNECTING"
	StatusActive     Status = "ACTIVE"
	StatusFinished   Status = "FINISHED"
)

// InProgress reports whether a call is being set up or running.
func (s Status) InProgress() bool { return s == StatusConnecting || s == StatusActive }

var (
	ErrCallInProgress = errors.New("call: a call is already in progress")
	ErrNoActiveCall   = errors.New("call: no active call")
	ErrNoVoiceClient  = errors.New("call: voice client unavailable")
	ErrNoWorkflow     = errors.New("call: workflow id is not configured")
	ErrClosed         = errors.New("call: machine stopped")

	// ErrFeedbackPending rejects Start until the previous attempt's feedback
	// has come back, so the next attempt can merge into it.
	ErrFeedbackPending = errors.New("call: feedback for the previous call is still being generated")
)

// VoiceClient is the handle on the vendor voice session.
type VoiceClient interface {
	Start(ctx context.Context, workflowID string, vars map[string]string) error
	Stop(ctx context.Context) error
}

// FeedbackRequester turns a finished call's transcript into a feedback record.
type FeedbackRequester interface {
	RequestFeedback(ctx context.Context, p services.CreateFeedbackParams) (feedbackID string, err error)
}

type FeedbackFunc func(ctx context.Context, p services.CreateFeedbackParams) (string, error)

func (f FeedbackFunc) RequestFeedback(ctx context.Context, p services.CreateFeedbackParams) (string, error) {
	return f(ctx, p)
}

// InlineFeedback runs generation in the calling goroutine.
func InlineFeedback(svc services.FeedbackService) FeedbackRequester {
	return FeedbackFunc(func(ctx context.Context, p services.CreateFeedbackParams) (string, error) {
		fb, err := svc.Create(ctx, p)
		if err != nil {
			return "", err
		}
		return fb.ID, nil
	})
}

type EventType string

const (
	EventCallStarted   EventType = "call-start"
	EventCallEnded     EventType = "call-end"
	EventSpeechStarted EventType = "speech-start"
	EventSpeechEnded   EventType = "speech-end"
	EventMessage       EventType = "message"
	EventError         EventType = "error"
)

// Event is something the voice widget reported.
type Event struct {
	Type EventType
	// message fields
	MessageType    string
	TranscriptType string
	Role           string
	Transcript     string
	// error field
	Err error
}

func (e Event) isFinalTranscript() bool {
	return e.Type == EventMessage &&
		(e.MessageType == "" || e.MessageType == "transcript") &&
		e.TranscriptType == "final" &&
		strings.TrimSpace(e.Transcript) != ""
}

type UpdateKind string

const (
	UpdateStatus     UpdateKind = "status"
	UpdateSpeaking   UpdateKind = "speaking"
	UpdateTranscript UpdateKind = "transcript"
	UpdateError      UpdateKind = "error"
	UpdateFeedback   UpdateKind = "feedback"
)

type FeedbackOutcome struct {
	Success    bool
	FeedbackID string
	Redirect   string
	Err        error
}

// Update is delivered to listeners on every observable change.
type Update struct {
	Kind     UpdateKind
	Status   Status
	Attempt  int
	Speaking bool
	Message  *models.TranscriptMessage
	Err      error
	Feedback *FeedbackOutcome
}

type Listener func(Update)

type Snapshot struct {
	Status     Status
	Attempt    int
	Speaking   bool
	Transcript []models.TranscriptMessage
	FeedbackID string
	LastError  string
}

const (
	DefaultQuestionsVar     = "General defence questions"
	DefaultProjectTitleVar  = "Your Project"
	DefaultAcademicLevelVar = "undergraduate"
)

// Variables builds the values substituted into the voice workflow prompt.
func Variables(questions []string, project *services.ProjectDetails) map[string]string {
	vars := map[string]string{
		"questions":     DefaultQuestionsVar,
		"projectTitle":  DefaultProjectTitleVar,
		"academicLevel": DefaultAcademicLevelVar,
	}
	if len(questions) > 0 {
		lines := make([]string, 0, len(questions))
		for _, q := range questions {
			lines = append(lines, "- "+q)
		}
		vars["questions"] = strings.Join(lines, "\n")
	}
	if project != nil {
		if project.ProjectTitle != "" {
			vars["projectTitle"] = project.ProjectTitle
		}
		if project.AcademicLevel != "" {
			vars["academicLevel"] = project.AcademicLevel
		}
	}
	return vars
}
