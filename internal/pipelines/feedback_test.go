package pipelines

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prepvoice/prepvoice/internal/models"
)

type fakeFeedbackGen struct {
	draft *models.FeedbackDraft
	err   error

	mu      sync.Mutex
	prompts []string
}

func (f *fakeFeedbackGen) GenerateFeedback(ctx context.Context, prompt string) (*models.FeedbackDraft, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.draft, f.err
}

func sampleDraft() *models.FeedbackDraft {
	return &models.FeedbackDraft{
		TotalScore: 72,
		CategoryScores: []models.CategoryScore{
			{Name: "Communication Skills", Score: 80, Comment: "Clear and structured."},
			{Name: "Technical Knowledge", Score: 70, Comment: "Good fundamentals."},
		},
		Strengths:           []string{"Concise answers"},
		AreasForImprovement: []string{"More concrete examples"},
		FinalAssessment:     "A promising candidate.",
	}
}

func TestFeedbackRunCreatesRecord(t *testing.T) {
	t.Parallel()

	gen := &fakeFeedbackGen{draft: sampleDraft()}
	repo := &fakeFeedbackRepo{}
	p := NewFeedbackPipeline(gen, repo, quietLogger())

	res := p.Run(context.Background(), sampleTranscript, "iv-1", "user-1", "")

	if !res.Success || res.FeedbackID != "fb-generated" {
		t.Fatalf("result = %+v", res)
	}
	if len(repo.created) != 1 || len(repo.set) != 0 {
		t.Fatalf("created=%d set=%d", len(repo.created), len(repo.set))
	}

	fb := repo.created[0]
	if fb.InterviewID != "iv-1" || fb.UserID != "user-1" || fb.TotalScore != 72 {
		t.Fatalf("feedback = %+v", fb)
	}
	if fb.FinalAssessment != "A promising candidate." {
		t.Fatalf("final assessment = %q", fb.FinalAssessment)
	}

	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "- interviewer: What role are you preparing for?") {
		t.Fatalf("prompt missing transcript lines: %q", prompt)
	}
	if !strings.Contains(prompt, "Communication Skills") {
		t.Fatalf("prompt missing rubric: %q", prompt)
	}
}

func TestFeedbackRunUpdatesInPlace(t *testing.T) {
	t.Parallel()

	gen := &fakeFeedbackGen{draft: sampleDraft()}
	repo := &fakeFeedbackRepo{}
	p := NewFeedbackPipeline(gen, repo, quietLogger())

	res := p.Run(context.Background(), sampleTranscript, "iv-1", "user-1", "fb-existing")

	if !res.Success || res.FeedbackID != "fb-existing" {
		t.Fatalf("result = %+v", res)
	}
	if len(repo.created) != 0 {
		t.Fatal("regeneration must not create a new record")
	}
	if repo.set["fb-existing"] == nil {
		t.Fatal("existing record must be replaced")
	}
}

func TestFeedbackRunFailures(t *testing.T) {
	t.Parallel()

	t.Run("generation failure", func(t *testing.T) {
		t.Parallel()
		p := NewFeedbackPipeline(&fakeFeedbackGen{err: errors.New("model unavailable")}, &fakeFeedbackRepo{}, quietLogger())
		if res := p.Run(context.Background(), sampleTranscript, "iv-1", "user-1", ""); res.Success || res.FeedbackID != "" {
			t.Fatalf("result = %+v", res)
		}
	})

	t.Run("persistence failure", func(t *testing.T) {
		t.Parallel()
		repo := &fakeFeedbackRepo{err: errors.New("mongo down")}
		p := NewFeedbackPipeline(&fakeFeedbackGen{draft: sampleDraft()}, repo, quietLogger())
		if res := p.Run(context.Background(), sampleTranscript, "iv-1", "user-1", ""); res.Success {
			t.Fatalf("result = %+v", res)
		}
	})
}
