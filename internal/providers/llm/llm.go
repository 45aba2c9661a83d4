package llm

import (
	"context"

	"github.com/prepvoice/prepvoice/internal/models"
)

// TextGenerator produces free-form text for a prompt. The scorecard pipeline
// expects the text to contain a JSON object but tolerates anything.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// FeedbackGenerator produces a structured rubric assessment, constrained to
// the fixed five-category schema.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, prompt string) (*models.FeedbackDraft, error)
}

// Provider is the full generation surface backed by one model client.
type Provider interface {
	TextGenerator
	FeedbackGenerator
	Close() error
}
