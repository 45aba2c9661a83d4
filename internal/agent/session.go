package agent

import "github.com/prepvoice/prepvoice/internal/models"

// CallStatus is the call lifecycle state.
type CallStatus string

const (
	StatusInactive   CallStatus = "inactive"
	StatusConnecting CallStatus = "connecting"
	StatusActive     CallStatus = "active"
	StatusFinished   CallStatus = "finished"
)

// Mode selects the post-call pipeline. It is fixed at session start.
type Mode string

const (
	ModeFreeForm Mode = "freeform" // practice call, ends in a scorecard
	ModeScripted Mode = "scripted" // scripted interview, ends in rubric feedback
)

// Session is one call attempt. It is owned by a single Controller and only
// ever touched from its event loop or under its lock.
type Session struct {
	ID   string
	Mode Mode

	UserID   string
	UserName string

	// Scripted-mode bindings.
	InterviewID string
	FeedbackID  string // non-empty means regenerate in place
	Questions   []string

	status     CallStatus
	transcript *transcriptAccumulator

	// pendingDiagnostic bridges a start-call rejection with the async error
	// event that follows it: the rejection consumes the response body, so the
	// extracted message is the only copy left. Cleared on every new attempt.
	pendingDiagnostic string

	dispatched bool
}

func newSession(id string, mode Mode) *Session {
	return &Session{
		ID:         id,
		Mode:       mode,
		status:     StatusInactive,
		transcript: newTranscriptAccumulator(),
	}
}

func (s *Session) Status() CallStatus { return s.status }

// Transcript returns a copy of the finalized utterances accumulated so far.
func (s *Session) Transcript() []models.Utterance { return s.transcript.Utterances() }

// LastUtteranceText is the most recent finalized utterance, for UI display.
func (s *Session) LastUtteranceText() string { return s.transcript.Last() }
