package pipelines

import (
	"context"

	"github.com/prepvoice/prepvoice/internal/models"
)

// Bundle adapts the two pipelines to the session controller's dispatch
// contract.
type Bundle struct {
	Scorecards *ScorecardPipeline
	Feedbacks  *FeedbackPipeline
}

func (b *Bundle) Scorecard(ctx context.Context, sessionID, userID, userName string, transcript []models.Utterance) *models.Scorecard {
	return b.Scorecards.Run(ctx, sessionID, userID, userName, transcript)
}

func (b *Bundle) Feedback(ctx context.Context, transcript []models.Utterance, interviewID, userID, feedbackID string) (string, bool) {
	r := b.Feedbacks.Run(ctx, transcript, interviewID, userID, feedbackID)
	return r.FeedbackID, r.Success
}
