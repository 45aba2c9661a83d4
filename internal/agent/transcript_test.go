package agent

import (
	"testing"

	"github.com/prepvoice/prepvoice/internal/channel"
	"github.com/prepvoice/prepvoice/internal/models"
)

func TestTranscriptAccumulatorKeepsFinalOnly(t *testing.T) {
	t.Parallel()

	acc := newTranscriptAccumulator()

	cases := []struct {
		msg  channel.Message
		want bool
	}{
		{channel.Message{Type: "transcript", TranscriptType: channel.TranscriptFinal, Role: models.RoleInterviewer, Transcript: "Hello"}, true},
		{channel.Message{Type: "transcript", TranscriptType: channel.TranscriptPartial, Role: models.RoleCandidate, Transcript: "Hi th"}, false},
		{channel.Message{Type: "status-update", TranscriptType: channel.TranscriptFinal, Role: models.RoleCandidate, Transcript: "ignored"}, false},
		{channel.Message{Type: "transcript", TranscriptType: channel.TranscriptFinal, Role: models.RoleCandidate, Transcript: "Hi there"}, true},
	}

	for i, tc := range cases {
		if got := acc.Add(tc.msg); got != tc.want {
			t.Fatalf("case %d: Add = %v, want %v", i, got, tc.want)
		}
	}

	if acc.Len() != 2 {
		t.Fatalf("Len = %d, want 2", acc.Len())
	}
	if acc.Last() != "Hi there" {
		t.Fatalf("Last = %q", acc.Last())
	}

	got := acc.Utterances()
	want := []models.Utterance{
		{Role: models.RoleInterviewer, Text: "Hello"},
		{Role: models.RoleCandidate, Text: "Hi there"},
	}
	if len(got) != len(want) {
		t.Fatalf("Utterances = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("utterance %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTranscriptAccumulatorReturnsCopy(t *testing.T) {
	t.Parallel()

	acc := newTranscriptAccumulator()
	acc.Add(channel.Message{Type: "transcript", TranscriptType: channel.TranscriptFinal, Role: models.RoleCandidate, Transcript: "one"})

	snap := acc.Utterances()
	acc.Add(channel.Message{Type: "transcript", TranscriptType: channel.TranscriptFinal, Role: models.RoleCandidate, Transcript: "two"})

	if len(snap) != 1 {
		t.Fatalf("snapshot grew with the accumulator: %v", snap)
	}
}
