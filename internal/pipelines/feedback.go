package pipelines

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prepvoice/prepvoice/internal/models"
	"github.com/prepvoice/prepvoice/internal/providers/llm"
	mongorepo "github.com/prepvoice/prepvoice/internal/repositories/mongo"
)

const feedbackPromptTemplate = `
You are an AI interviewer analyzing a mock interview. Your task is to evaluate the candidate based on structured categories. Be thorough and detailed in your analysis. Don't be lenient with the candidate. If there are mistakes or areas for improvement, point them out.
Transcript:
%s

Please score the candidate from 0 to 100 in the following areas. Do not add categories other than the ones provided:
- **Communication Skills**: Clarity, articulation, structured responses.
- **Technical Knowledge**: Understanding of key concepts for the role.
- **Problem Solving**: Ability to analyze problems and propose solutions.
- **Cultural Fit**: Alignment with company values and job role.
- **Confidence and Clarity**: Confidence in responses, engagement, and clarity.
`

// Result reports a feedback pipeline outcome. Failure is explicit here: with
// no persisted record there is nothing to navigate to, so the caller decides
// where to send the user instead.
type Result struct {
	Success    bool
	FeedbackID string
}

// FeedbackPipeline turns a finished scripted interview into a persisted
// rubric assessment.
type FeedbackPipeline struct {
	gen      llm.FeedbackGenerator
	feedback mongorepo.FeedbackRepository
	log      *logrus.Logger
}

func NewFeedbackPipeline(gen llm.FeedbackGenerator, feedback mongorepo.FeedbackRepository, log *logrus.Logger) *FeedbackPipeline {
	return &FeedbackPipeline{gen: gen, feedback: feedback, log: log}
}

// Run generates and persists feedback for one interview. A non-empty
// feedbackID updates that record in place (the regeneration path); otherwise
// a fresh record is created.
func (p *FeedbackPipeline) Run(ctx context.Context, transcript []models.Utterance, interviewID, userID, feedbackID string) Result {
	prompt := fmt.Sprintf(feedbackPromptTemplate, formatInterviewTranscript(transcript))

	draft, err := p.gen.GenerateFeedback(ctx, prompt)
	if err != nil {
		p.log.WithError(err).WithField("interview_id", interviewID).Error("feedback generation failed")
		return Result{}
	}

	fb := &models.Feedback{
		InterviewID:         interviewID,
		UserID:              userID,
		TotalScore:          draft.TotalScore,
		CategoryScores:      draft.CategoryScores,
		Strengths:           draft.Strengths,
		AreasForImprovement: draft.AreasForImprovement,
		FinalAssessment:     draft.FinalAssessment,
		CreatedAt:           time.Now().UTC(),
	}

	if feedbackID != "" {
		if err := p.feedback.Set(ctx, feedbackID, fb); err != nil {
			p.log.WithError(err).WithField("feedback_id", feedbackID).Error("failed to update feedback")
			return Result{}
		}
		return Result{Success: true, FeedbackID: feedbackID}
	}

	id, err := p.feedback.Create(ctx, fb)
	if err != nil {
		p.log.WithError(err).WithField("interview_id", interviewID).Error("failed to save feedback")
		return Result{}
	}
	return Result{Success: true, FeedbackID: id}
}

// formatInterviewTranscript renders utterances as "- <role>: <text>\n" lines.
func formatInterviewTranscript(transcript []models.Utterance) string {
	var sb strings.Builder
	for _, u := range transcript {
		sb.WriteString("- " + u.Role + ": " + u.Text + "\n")
	}
	return sb.String()
}
