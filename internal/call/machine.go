package call

import (
	"context"
	"fmt"

	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/services"
)

type Config struct {
	InterviewID string
	UserID      string
	// FeedbackID, when set, makes generated feedback merge into that record.
	FeedbackID string
	WorkflowID string
	Questions  []string
	Project    *services.ProjectDetails

	Voice    VoiceClient
	Feedback FeedbackRequester
}

type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdStop
	cmdEvent
	cmdSnapshot
	cmdFeedbackDone
)

type command struct {
	kind    cmdKind
	ctx     context.Context
	event   Event
	attempt int
	fbID    string
	err     error
	reply   chan reply
}

type reply struct {
	err  error
	snap Snapshot
}

type Machine struct {
	cfg       Config
	listeners []Listener
	cmds      chan command
	done      chan struct{}

	// owned by Run
	status     Status
	attempt    int
	speaking   bool
	transcript []models.TranscriptMessage
	feedbackID string
	lastErr    string
	// attempt whose FINISHED already requested feedback
	requested int
	// feedback request in flight
	pending bool
}

func NewMachine(cfg Config, listeners ...Listener) *Machine {
	return &Machine{
		cfg:        cfg,
		listeners:  listeners,
		cmds:       make(chan command, 64),
		done:       make(chan struct{}),
		status:     StatusInactive,
		feedbackID: cfg.FeedbackID,
	}
}

// Run processes the queue until ctx is cancelled.
func (m *Machine) Run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-m.cmds:
			m.handle(ctx, c)
		}
	}
}

// Done is closed once Run has returned.
func (m *Machine) Done() <-chan struct{} { return m.done }

func (m *Machine) send(ctx context.Context, c command) (reply, error) {
	c.ctx = ctx
	if c.reply == nil {
		c.reply = make(chan reply, 1)
	}
	select {
	case m.cmds <- c:
	case <-m.done:
		return reply{}, ErrClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
	select {
	case r := <-c.reply:
		return r, nil
	case <-m.done:
		return reply{}, ErrClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

func (m *Machine) Start(ctx context.Context) error {
	r, err := m.send(ctx, command{kind: cmdStart})
	if err != nil {
		return err
	}
	return r.err
}

func (m *Machine) Stop(ctx context.Context) error {
	r, err := m.send(ctx, command{kind: cmdStop})
	if err != nil {
		return err
	}
	return r.err
}

// Dispatch queues a widget event and returns once it has been applied.
func (m *Machine) Dispatch(ctx context.Context, ev Event) error {
	_, err := m.send(ctx, command{kind: cmdEvent, event: ev})
	return err
}

func (m *Machine) Snapshot(ctx context.Context) (Snapshot, error) {
	r, err := m.send(ctx, command{kind: cmdSnapshot})
	return r.snap, err
}

func (m *Machine) handle(runCtx context.Context, c command) {
	switch c.kind {
	case cmdStart:
		c.reply <- reply{err: m.start(c.ctx)}
	case cmdStop:
		err := m.stop(c.ctx)
		c.reply <- reply{err: err}
		if err == nil {
			m.finish(runCtx)
		}
	case cmdEvent:
		m.apply(runCtx, c.event)
		c.reply <- reply{}
	case cmdSnapshot:
		c.reply <- reply{snap: m.snapshot()}
	case cmdFeedbackDone:
		m.feedbackDone(c.attempt, c.fbID, c.err)
		c.reply <- reply{}
	}
}

func (m *Machine) emit(u Update) {
	u.Status = m.status
	u.Attempt = m.attempt
	for _, l := range m.listeners {
		l(u)
	}
}

func (m *Machine) setStatus(s Status) {
	if m.status == s {
		return
	}
	m.status = s
	m.emit(Update{Kind: UpdateStatus})
}

func (m *Machine) fail(err error) error {
	m.lastErr = err.Error()
	m.setStatus(StatusInactive)
	m.speaking = false
	m.emit(Update{Kind: UpdateError, Err: err})
	return err
}

func (m *Machine) start(ctx context.Context) error {
	if m.status.InProgress() {
		return ErrCallInProgress
	}
	if m.pending {
		return ErrFeedbackPending
	}
	if m.cfg.Voice == nil {
		return m.fail(ErrNoVoiceClient)
	}
	if m.cfg.WorkflowID == "" {
		return m.fail(ErrNoWorkflow)
	}

	m.transcript = nil
	m.speaking = false
	m.lastErr = ""
	m.attempt++
	m.setStatus(StatusConnecting)

	if err := m.cfg.Voice.Start(ctx, m.cfg.WorkflowID, Variables(m.cfg.Questions, m.cfg.Project)); err != nil {
		return m.fail(fmt.Errorf("call: start voice session: %w", err))
	}
	return nil
}

func (m *Machine) stop(ctx context.Context) error {
	if m.status != StatusActive {
		return ErrNoActiveCall
	}
	m.status = StatusFinished
	m.speaking = false
	if err := m.cfg.Voice.Stop(ctx); err != nil {
		// the call is over on our side either way
		m.lastErr = err.Error()
		m.emit(Update{Kind: UpdateError, Err: err})
	}
	m.emit(Update{Kind: UpdateStatus})
	return nil
}

func (m *Machine) apply(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventCallStarted:
		if m.status == StatusConnecting {
			m.setStatus(StatusActive)
		}
	case EventCallEnded:
		if m.status.InProgress() {
			m.speaking = false
			m.setStatus(StatusFinished)
			m.finish(ctx)
		}
	case EventError:
		err := ev.Err
		if err == nil {
			err = fmt.Errorf("call: voice client error")
		}
		if m.status.InProgress() {
			m.fail(err)
			return
		}
		m.emit(Update{Kind: UpdateError, Err: err})
	case EventSpeechStarted, EventSpeechEnded:
		if !m.status.InProgress() {
			return
		}
		m.speaking = ev.Type == EventSpeechStarted
		m.emit(Update{Kind: UpdateSpeaking, Speaking: m.speaking})
	case EventMessage:
		if !m.status.InProgress() || !ev.isFinalTranscript() {
			return
		}
		msg := models.TranscriptMessage{Role: ev.Role, Content: ev.Transcript}
		m.transcript = append(m.transcript, msg)
		m.emit(Update{Kind: UpdateTranscript, Message: &msg})
	}
}

// finish requests feedback once per attempt. Generation runs off the loop and
// reports back through the queue.
func (m *Machine) finish(ctx context.Context) {
	if m.status != StatusFinished || m.requested == m.attempt {
		return
	}
	m.requested = m.attempt

	if m.cfg.Feedback == nil {
		m.emit(Update{Kind: UpdateFeedback, Feedback: &FeedbackOutcome{Redirect: "/"}})
		return
	}

	params := services.CreateFeedbackParams{
		InterviewID: m.cfg.InterviewID,
		UserID:      m.cfg.UserID,
		Transcript:  append([]models.TranscriptMessage(nil), m.transcript...),
		FeedbackID:  m.feedbackID,
		Project:     m.cfg.Project,
	}
	attempt := m.attempt
	m.pending = true
	// a dropped socket must not abort generation of a finished call
	fbCtx := context.WithoutCancel(ctx)
	go func() {
		id, err := m.cfg.Feedback.RequestFeedback(fbCtx, params)
		_, _ = m.send(context.Background(), command{kind: cmdFeedbackDone, attempt: attempt, fbID: id, err: err})
	}()
}

func (m *Machine) feedbackDone(attempt int, id string, err error) {
	m.pending = false
	out := &FeedbackOutcome{Redirect: "/"}
	if err != nil {
		out.Err = err
		m.lastErr = err.Error()
	} else {
		out.Success = true
		out.FeedbackID = id
		out.Redirect = "/interview/" + m.cfg.InterviewID + "/feedback"
		m.feedbackID = id
	}
	u := Update{Kind: UpdateFeedback, Feedback: out}
	u.Status = m.status
	u.Attempt = attempt
	for _, l := range m.listeners {
		l(u)
	}
}

func (m *Machine) snapshot() Snapshot {
	return Snapshot{
		Status:     m.status,
		Attempt:    m.attempt,
		Speaking:   m.speaking,
		Transcript: append([]models.TranscriptMessage(nil), m.transcript...),
		FeedbackID: m.feedbackID,
		LastError:  m.lastErr,
	}
}
