package agent

import (
	"github.com/prepvoice/prepvoice/internal/channel"
	"github.com/prepvoice/prepvoice/internal/models"
)

// transcriptAccumulator appends finalized utterances in event-arrival order.
// Interim fragments are discarded; nothing is reordered or deduplicated.
type transcriptAccumulator struct {
	utterances []models.Utterance
}

func newTranscriptAccumulator() *transcriptAccumulator {
	return &transcriptAccumulator{}
}

// Add appends the message if it is a finalized transcript fragment and
// reports whether an utterance was added.
func (a *transcriptAccumulator) Add(m channel.Message) bool {
	if m.Type != "transcript" || m.TranscriptType != channel.TranscriptFinal {
		return false
	}
	a.utterances = append(a.utterances, models.Utterance{Role: m.Role, Text: m.Transcript})
	return true
}

func (a *transcriptAccumulator) Len() int { return len(a.utterances) }

func (a *transcriptAccumulator) Last() string {
	if len(a.utterances) == 0 {
		return ""
	}
	return a.utterances[len(a.utterances)-1].Text
}

// Utterances returns a copy; the backing slice keeps growing while the call
// is active.
func (a *transcriptAccumulator) Utterances() []models.Utterance {
	out := make([]models.Utterance, len(a.utterances))
	copy(out, a.utterances)
	return out
}
