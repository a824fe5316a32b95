package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoodefence/internal/call"
	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/services"
	"github.com/yoockh/yoodefence/internal/utils"
)

type VoiceConfig struct {
	WebToken   string
	WorkflowID string
}

type CallHandler struct {
	interviews services.InterviewService
	feedback   services.FeedbackService
	callLogs   services.CallLogService // optional
	requester  call.FeedbackRequester
	voice      VoiceConfig
	log        logrus.FieldLogger
	upgrader   websocket.Upgrader
}

func NewCallHandler(
	interviews services.InterviewService,
	feedback services.FeedbackService,
	callLogs services.CallLogService,
	requester call.FeedbackRequester,
	voice VoiceConfig,
	log logrus.FieldLogger,
	allowedOrigins []string,
) *CallHandler {
	if requester == nil {
		requester = call.InlineFeedback(feedback)
	}
	return &CallHandler{
		interviews: interviews,
		feedback:   feedback,
		callLogs:   callLogs,
		requester:  requester,
		voice:      voice,
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		return o == "" || set[o]
	}
}

type wsClientMsg struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

type wsTranscript struct {
	Type           string `json:"type"`
	TranscriptType string `json:"transcriptType"`
	Role           string `json:"role"`
	Transcript     string `json:"transcript"`
}

type wsServerMsg struct {
	Type string `json:"type"`

	Token          string            `json:"token,omitempty"`
	WorkflowID     string            `json:"workflow_id,omitempty"`
	VariableValues map[string]string `json:"variable_values,omitempty"`

	Status   call.Status `json:"status,omitempty"`
	Attempt  int         `json:"attempt,omitempty"`
	Speaking *bool       `json:"speaking,omitempty"`
	Role     string      `json:"role,omitempty"`
	Content  string      `json:"content,omitempty"`
	Message  string      `json:"message,omitempty"`

	Success    *bool  `json:"success,omitempty"`
	FeedbackID string `json:"feedback_id,omitempty"`
	Redirect   string `json:"redirect,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteJSON(v)
}

// bridgeVoice asks the browser to drive the vendor widget.
type bridgeVoice struct {
	conn  *wsConn
	token string
}

func (b *bridgeVoice) Start(_ context.Context, workflowID string, vars map[string]string) error {
	return b.conn.writeJSON(wsServerMsg{
		Type:           "start_call",
		Token:          b.token,
		WorkflowID:     workflowID,
		VariableValues: vars,
	})
}

func (b *bridgeVoice) Stop(context.Context) error {
	return b.conn.writeJSON(wsServerMsg{Type: "stop_call"})
}

func (h *CallHandler) CallWS(c *gin.Context) {
	const op = "CallHandler.CallWS"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	iv, err := h.interviews.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if h.voice.WebToken == "" {
		writeError(c, utils.E(utils.CodeUnavailable, op, "voice client is not configured", nil))
		return
	}

	// an existing report of the caller is merged into rather than duplicated
	var feedbackID string
	if fb, err := h.feedback.GetByInterview(c.Request.Context(), iv.ID, userID); err == nil {
		feedbackID = fb.ID
	} else if !utils.IsCode(err, utils.CodeNotFound) {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	entry := h.log.WithFields(logrus.Fields{"interview_id": iv.ID, "user_id": userID})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listeners := []call.Listener{socketListener(wc, entry)}
	var rec *callRecorder
	if h.callLogs != nil {
		rec = newCallRecorder(h.callLogs, iv, userID, entry)
		listeners = append(listeners, rec.listen)
		go rec.run()
	}

	m := call.NewMachine(call.Config{
		InterviewID: iv.ID,
		UserID:      userID,
		FeedbackID:  feedbackID,
		WorkflowID:  h.voice.WorkflowID,
		Questions:   iv.Questions,
		Project:     services.ProjectDetailsOf(iv),
		Voice:       &bridgeVoice{conn: wc, token: h.voice.WebToken},
		Feedback:    h.requester,
	}, listeners...)
	go m.Run(ctx)
	defer func() {
		cancel()
		<-m.Done()
		if rec != nil {
			rec.close()
		}
	}()

	entry.Info("call socket opened")
	defer entry.Info("call socket closed")

	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	})
	go pingLoop(ctx, wc)

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Message: "invalid json"})
			continue
		}
		if err := h.handleClientMsg(ctx, m, msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Message: err.Error()})
		}
	}
}

func (h *CallHandler) handleClientMsg(ctx context.Context, m *call.Machine, msg wsClientMsg) error {
	switch msg.Type {
	case "start":
		err := m.Start(ctx)
		if errors.Is(err, call.ErrCallInProgress) || errors.Is(err, call.ErrFeedbackPending) {
			return err
		}
		// other start failures already reached the client as an error update
		return nil
	case "stop":
		return m.Stop(ctx)
	case "call-start":
		return m.Dispatch(ctx, call.Event{Type: call.EventCallStarted})
	case "call-end":
		return m.Dispatch(ctx, call.Event{Type: call.EventCallEnded})
	case "speech-start":
		return m.Dispatch(ctx, call.Event{Type: call.EventSpeechStarted})
	case "speech-end":
		return m.Dispatch(ctx, call.Event{Type: call.EventSpeechEnded})
	case "message":
		var t wsTranscript
		if len(msg.Message) > 0 {
			if err := json.Unmarshal(msg.Message, &t); err != nil {
				return errors.New("invalid message payload")
			}
		}
		return m.Dispatch(ctx, call.Event{
			Type:           call.EventMessage,
			MessageType:    t.Type,
			TranscriptType: t.TranscriptType,
			Role:           t.Role,
			Transcript:     t.Transcript,
		})
	case "error":
		text := "voice client error"
		var s string
		if json.Unmarshal(msg.Message, &s) == nil && s != "" {
			text = s
		} else if len(msg.Message) > 0 && string(msg.Message) != "null" {
			text = string(msg.Message)
		}
		return m.Dispatch(ctx, call.Event{Type: call.EventError, Err: errors.New(text)})
	}
	return errors.New("unknown message type")
}

func pingLoop(ctx context.Context, wc *wsConn) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			wc.mu.Lock()
			err := wc.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			wc.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func socketListener(wc *wsConn, log logrus.FieldLogger) call.Listener {
	return func(u call.Update) {
		var out wsServerMsg
		switch u.Kind {
		case call.UpdateStatus:
			out = wsServerMsg{Type: "status", Status: u.Status, Attempt: u.Attempt}
		case call.UpdateSpeaking:
			sp := u.Speaking
			out = wsServerMsg{Type: "speaking", Speaking: &sp}
		case call.UpdateTranscript:
			out = wsServerMsg{Type: "transcript", Role: u.Message.Role, Content: u.Message.Content}
		case call.UpdateError:
			out = wsServerMsg{Type: "error", Status: u.Status}
			if u.Err != nil {
				out.Message = u.Err.Error()
			}
		case call.UpdateFeedback:
			fb := u.Feedback
			ok := fb.Success
			out = wsServerMsg{Type: "feedback", Success: &ok, FeedbackID: fb.FeedbackID, Redirect: fb.Redirect}
			if fb.Err != nil {
				out.Message = utils.PublicMessage(fb.Err)
				log.WithError(fb.Err).Warn("feedback generation failed")
			}
		default:
			return
		}
		if err := wc.writeJSON(out); err != nil {
			log.WithError(err).Debug("ws write failed")
		}
	}
}

// callRecorder keeps one call_logs row per attempt. Updates are queued by the
// machine loop and written from run, so a slow store never stalls the call.
type callRecorder struct {
	svc       services.CallLogService
	interview *models.Interview
	userID    string
	log       logrus.FieldLogger
	updates   chan call.Update
	done      chan struct{}

	// owned by run
	current *models.CallLog
	turns   int
}

const callRecorderBuffer = 128

func newCallRecorder(svc services.CallLogService, iv *models.Interview, userID string, log logrus.FieldLogger) *callRecorder {
	return &callRecorder{
		svc:       svc,
		interview: iv,
		userID:    userID,
		log:       log,
		updates:   make(chan call.Update, callRecorderBuffer),
		done:      make(chan struct{}),
	}
}

func (r *callRecorder) listen(u call.Update) {
	select {
	case r.updates <- u:
	default:
		r.log.WithField("update", u.Kind).Warn("call log queue full, dropping update")
	}
}

func (r *callRecorder) run() {
	defer close(r.done)
	for u := range r.updates {
		r.apply(u)
	}
}

// close flushes queued updates. The machine must have stopped.
func (r *callRecorder) close() {
	close(r.updates)
	<-r.done
}

func (r *callRecorder) apply(u call.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch u.Kind {
	case call.UpdateStatus:
		switch u.Status {
		case call.StatusConnecting:
			row, err := r.svc.Open(ctx, r.interview.ID, r.userID, u.Attempt, r.interview.Questions, map[string]any{
				"kind":  string(r.interview.Kind),
				"title": r.interview.Title(),
			})
			if err != nil {
				r.log.WithError(err).Warn("open call log failed")
				return
			}
			r.current, r.turns = row, 0
		case call.StatusActive, call.StatusFinished, call.StatusInactive:
			r.save(ctx, u.Status, "", "")
		}
	case call.UpdateTranscript:
		r.turns++
	case call.UpdateError:
		if u.Err != nil {
			r.save(ctx, u.Status, "", u.Err.Error())
		}
	case call.UpdateFeedback:
		if u.Feedback.Err != nil {
			r.save(ctx, u.Status, "", u.Feedback.Err.Error())
			return
		}
		r.save(ctx, u.Status, u.Feedback.FeedbackID, "")
	}
}

func (r *callRecorder) save(ctx context.Context, status call.Status, feedbackID, lastErr string) {
	if r.current == nil {
		return
	}
	r.current.TranscriptCount = r.turns
	var err error
	if status == call.StatusActive {
		r.current.Status = string(status)
		err = r.svc.Save(ctx, r.current)
	} else {
		err = r.svc.Close(ctx, r.current, string(status), feedbackID, lastErr)
	}
	if err != nil {
		r.log.WithError(err).Warn("save call log failed")
	}
}
