package channel

import "context"

type EventType string

const (
	EventCallStart   EventType = "call-start"
	EventCallEnd     EventType = "call-end"
	EventMessage     EventType = "message"
	EventSpeechStart EventType = "speech-start"
	EventSpeechEnd   EventType = "speech-end"
	EventError       EventType = "error"
)

// Message transcript kinds. Only final fragments become utterances.
const (
	TranscriptPartial = "partial"
	TranscriptFinal   = "final"
)

// Message is a transcript event payload from the channel.
type Message struct {
	Type           string `json:"type"`
	TranscriptType string `json:"transcriptType"`
	Role           string `json:"role"`
	Transcript     string `json:"transcript"`
}

// Event is one asynchronous channel event. Err is deliberately untyped: the
// vendor emits response objects, wrapped envelopes, plain errors, strings and
// occasionally nothing at all, and classification happens downstream.
type Event struct {
	Type    EventType
	Message *Message
	Err     any
}

// Channel is the realtime voice call abstraction. Start blocks until the
// call is accepted or rejected; events flow on Events until the call ends.
// Stop is fire-and-forget.
type Channel interface {
	Start(ctx context.Context, assistantID string, variableValues map[string]string) error
	Stop()
	Events() <-chan Event
}
