package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prepvoice/prepvoice/internal/channel"
	"github.com/prepvoice/prepvoice/internal/models"
)

// Pipelines is the result router's downstream. Exactly one method runs per
// finished session. Scorecard always materializes an artifact; Feedback
// reports success and the persisted feedback id.
type Pipelines interface {
	Scorecard(ctx context.Context, sessionID, userID, userName string, transcript []models.Utterance) *models.Scorecard
	Feedback(ctx context.Context, transcript []models.Utterance, interviewID, userID, feedbackID string) (string, bool)
}

// Notifier surfaces session activity to the attached client.
type Notifier interface {
	StatusChanged(status CallStatus)
	UtteranceAdded(u models.Utterance)
	SpeakingChanged(speaking bool)
	ErrorMessage(msg string)
	Navigate(route string)
}

// StartParams binds one call attempt.
type StartParams struct {
	Mode        Mode
	InterviewID string
	FeedbackID  string
	Questions   []string
}

// Controller drives a voice session through its lifecycle: it starts the
// channel, accumulates the transcript, and routes the finished session into
// exactly one result pipeline.
type Controller struct {
	channel   channel.Channel
	pipelines Pipelines
	notify    Notifier
	log       *logrus.Logger

	assistantID string
	userID      string
	userName    string

	baseCtx context.Context

	mu   sync.Mutex
	sess *Session

	closed    chan struct{}
	closeOnce sync.Once
}

func NewController(
	ctx context.Context,
	ch channel.Channel,
	pipelines Pipelines,
	notify Notifier,
	log *logrus.Logger,
	assistantID, userID, userName string,
) *Controller {
	c := &Controller{
		channel:     ch,
		pipelines:   pipelines,
		notify:      notify,
		log:         log,
		assistantID: assistantID,
		userID:      userID,
		userName:    userName,
		baseCtx:     ctx,
		closed:      make(chan struct{}),
	}
	go c.loop()
	return c
}

// StartCall begins a new session. Scripted mode requires a non-empty question
// list; both modes require a configured assistant identifier. Any rejection
// surfaces a message and leaves the session inactive.
func (c *Controller) StartCall(ctx context.Context, p StartParams) error {
	const op = "Controller.StartCall"

	c.mu.Lock()
	if c.sess != nil && (c.sess.status == StatusConnecting || c.sess.status == StatusActive) {
		c.mu.Unlock()
		return ErrCallInProgress
	}

	sess := newSession(uuid.NewString(), p.Mode)
	sess.UserID = c.userID
	sess.UserName = c.userName
	sess.InterviewID = p.InterviewID
	sess.FeedbackID = p.FeedbackID
	sess.Questions = p.Questions
	c.sess = sess
	c.mu.Unlock()

	if strings.TrimSpace(c.assistantID) == "" {
		c.log.WithField("op", op).Error("assistant id missing")
		c.notify.ErrorMessage(msgAssistantNotConfigured)
		c.setStatus(sess, StatusInactive)
		return ErrAssistantNotConfigured
	}
	if p.Mode == ModeScripted && len(p.Questions) == 0 {
		c.notify.ErrorMessage("No interview questions configured for this session.")
		c.setStatus(sess, StatusInactive)
		return ErrNoQuestions
	}

	c.setStatus(sess, StatusConnecting)

	var vars map[string]string
	if p.Mode == ModeScripted {
		vars = map[string]string{"questions": formatQuestions(p.Questions)}
	}

	if err := c.channel.Start(ctx, c.assistantID, vars); err != nil {
		msg := extractStartMessage(err)

		c.mu.Lock()
		sess.pendingDiagnostic = msg
		c.mu.Unlock()

		c.log.WithFields(logrus.Fields{"op": op, "message": msg}).Error("channel start rejected")
		c.notify.ErrorMessage(msg)
		c.setStatus(sess, StatusInactive)
		return fmt.Errorf("%s: channel start rejected: %s", op, msg)
	}

	return nil
}

// Disconnect forces the session to Finished and asks the channel to stop
// without waiting for its acknowledgment. The result router still fires on
// the forced transition.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return
	}

	c.finish(sess)
	go c.channel.Stop()
}

// Close detaches the controller from the channel's event stream.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// Status reports the current session's lifecycle state.
func (c *Controller) Status() CallStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return StatusInactive
	}
	return c.sess.status
}

// Transcript returns a copy of the current session's finalized utterances.
func (c *Controller) Transcript() []models.Utterance {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	return c.sess.Transcript()
}

func (c *Controller) loop() {
	for {
		select {
		case <-c.closed:
			return
		case ev, ok := <-c.channel.Events():
			if !ok {
				return
			}
			c.handleEvent(ev)
		}
	}
}

func (c *Controller) handleEvent(ev channel.Event) {
	c.mu.Lock()
	sess := c.sess
	done := sess != nil && sess.dispatched
	c.mu.Unlock()
	if sess == nil {
		return
	}
	// Finished is terminal. Late channel events, such as a call-start
	// acknowledgment racing a forced disconnect, must not revive the session
	// or grow its transcript.
	if done {
		return
	}

	switch ev.Type {
	case channel.EventCallStart:
		c.setStatus(sess, StatusActive)

	case channel.EventMessage:
		if ev.Message == nil {
			return
		}
		c.mu.Lock()
		added := false
		var last models.Utterance
		if sess.status == StatusActive {
			if added = sess.transcript.Add(*ev.Message); added {
				last = models.Utterance{Role: ev.Message.Role, Text: ev.Message.Transcript}
			}
		}
		c.mu.Unlock()
		if added {
			c.notify.UtteranceAdded(last)
		}

	case channel.EventSpeechStart:
		c.notify.SpeakingChanged(true)

	case channel.EventSpeechEnd:
		c.notify.SpeakingChanged(false)

	case channel.EventCallEnd:
		c.finish(sess)

	case channel.EventError:
		c.mu.Lock()
		cached := sess.pendingDiagnostic
		c.mu.Unlock()

		cls := Classify(ev.Err, cached)
		c.log.WithFields(cls.Fields).Error("channel runtime error")
		if cls.UserMessage != "" {
			c.notify.ErrorMessage(cls.UserMessage)
		}
		c.setStatus(sess, StatusInactive)
	}
}

// finish performs the single Finished transition. The dispatch guard makes a
// forced disconnect and a subsequent channel call-end event idempotent.
func (c *Controller) finish(sess *Session) {
	c.mu.Lock()
	if sess.dispatched {
		c.mu.Unlock()
		return
	}
	sess.dispatched = true
	sess.status = StatusFinished
	transcript := sess.transcript.Utterances()
	c.mu.Unlock()

	c.notify.StatusChanged(StatusFinished)
	c.dispatch(sess, transcript)
}

// dispatch routes the finished session into exactly one pipeline. The
// connection may already be tearing down, so the pipelines run under a
// context that survives cancellation.
func (c *Controller) dispatch(sess *Session, transcript []models.Utterance) {
	ctx := context.WithoutCancel(c.baseCtx)

	switch sess.Mode {
	case ModeFreeForm:
		c.pipelines.Scorecard(ctx, sess.ID, sess.UserID, sess.UserName, transcript)
		c.notify.Navigate("/scorecard/" + sess.ID)
	default:
		if _, ok := c.pipelines.Feedback(ctx, transcript, sess.InterviewID, sess.UserID, sess.FeedbackID); ok {
			c.notify.Navigate("/interview/" + sess.InterviewID + "/feedback")
		} else {
			c.log.WithField("interview_id", sess.InterviewID).Warn("feedback generation failed")
			c.notify.Navigate("/")
		}
	}
}

func (c *Controller) setStatus(sess *Session, status CallStatus) {
	c.mu.Lock()
	if sess.dispatched {
		c.mu.Unlock()
		return
	}
	sess.status = status
	c.mu.Unlock()
	c.notify.StatusChanged(status)
}

// formatQuestions renders the scripted question list as the newline-joined
// block the assistant template expects, one "- " marker per question.
func formatQuestions(questions []string) string {
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		lines = append(lines, "- "+q)
	}
	return strings.Join(lines, "\n")
}
