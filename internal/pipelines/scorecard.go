package pipelines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prepvoice/prepvoice/internal/models"
	"github.com/prepvoice/prepvoice/internal/providers/llm"
	mongorepo "github.com/prepvoice/prepvoice/internal/repositories/mongo"
	pgrepo "github.com/prepvoice/prepvoice/internal/repositories/postgres"
)

// Stash hands the scorecard to the results view without a round trip through
// durable storage.
type Stash interface {
	Put(ctx context.Context, sessionID string, sc *models.Scorecard) error
}

// ErrEmptyTranscript rejects a proxy-endpoint request with nothing to analyze.
var ErrEmptyTranscript = errors.New("transcript is required and cannot be empty")

const scorecardPromptTemplate = `
Analyze this interview preparation conversation and generate a detailed scorecard.

Conversation Transcript:
%s

Provide JSON:
{
  "summary": "",
  "jobRole": "",
  "experienceLevel": "",
  "techStack": "",
  "interviewType": "",
  "completenessScore": 0-100,
  "recommendations": []
}
`

// ScorecardPipeline turns a finished free-form practice session into a
// scorecard. Every code path ends with a valid, possibly degraded, scorecard:
// generation and persistence failures soften the result, never block it.
type ScorecardPipeline struct {
	gen        llm.TextGenerator
	interviews mongorepo.InterviewRepository
	feedback   mongorepo.FeedbackRepository
	turns      pgrepo.TranscriptRepository
	stash      Stash
	log        *logrus.Logger
}

func NewScorecardPipeline(
	gen llm.TextGenerator,
	interviews mongorepo.InterviewRepository,
	feedback mongorepo.FeedbackRepository,
	turns pgrepo.TranscriptRepository,
	stash Stash,
	log *logrus.Logger,
) *ScorecardPipeline {
	return &ScorecardPipeline{
		gen:        gen,
		interviews: interviews,
		feedback:   feedback,
		turns:      turns,
		stash:      stash,
		log:        log,
	}
}

// Run executes the full post-session flow: generate (or synthesize), persist
// best-effort, stash for the results view. The returned scorecard is never
// nil.
func (p *ScorecardPipeline) Run(ctx context.Context, sessionID, userID, userName string, transcript []models.Utterance) *models.Scorecard {
	var sc *models.Scorecard

	switch {
	case len(transcript) == 0:
		// Nothing to analyze; no generation call is attempted.
		sc = emptyCallScorecard()
		p.persist(ctx, userID, userName, transcript, sc)

	default:
		raw, err := p.gen.GenerateText(ctx, fmt.Sprintf(scorecardPromptTemplate, formatTranscript(transcript)))
		if err != nil {
			p.log.WithError(err).WithField("session_id", sessionID).Warn("scorecard generation failed")
			sc = analysisUnavailableScorecard()
			break
		}
		sc = parseScorecard(raw)
		p.persist(ctx, userID, userName, transcript, sc)
	}

	if err := p.stash.Put(ctx, sessionID, sc); err != nil {
		p.log.WithError(err).WithField("session_id", sessionID).Warn("failed to stash scorecard")
	}
	return sc
}

// GenerateFromText serves the proxy endpoint: transcript text in, scorecard
// out. A malformed model response degrades to a low-confidence scorecard; an
// empty transcript or a generation failure is the caller's error to surface.
func (p *ScorecardPipeline) GenerateFromText(ctx context.Context, transcript string) (*models.Scorecard, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}

	raw, err := p.gen.GenerateText(ctx, fmt.Sprintf(scorecardPromptTemplate, transcript))
	if err != nil {
		return nil, err
	}
	return parseScorecard(raw), nil
}

// persist writes the preparation interview, its companion feedback record,
// and the relational transcript rows. All failures here are logged and
// swallowed: the session-local scorecard is the source of truth for display.
func (p *ScorecardPipeline) persist(ctx context.Context, userID, userName string, transcript []models.Utterance, sc *models.Scorecard) {
	interview := &models.Interview{
		UserID:            userID,
		UserName:          userName,
		Type:              models.InterviewTypePreparation,
		Role:              defaultString(sc.JobRole, "Not specified"),
		ExperienceLevel:   defaultString(sc.ExperienceLevel, "Not specified"),
		TechStack:         splitTechStack(sc.TechStack),
		InterviewType:     defaultString(sc.InterviewType, "Not specified"),
		CompletenessScore: sc.CompletenessScore,
		Transcript:        transcript,
		Finalized:         true,
		CreatedAt:         time.Now().UTC(),
	}

	interviewID, err := p.interviews.Create(ctx, interview)
	if err != nil {
		p.log.WithError(err).Warn("failed to save preparation interview")
		return
	}

	fb := &models.Feedback{
		InterviewID: interviewID,
		UserID:      userID,
		TotalScore:  sc.CompletenessScore,
		CategoryScores: []models.CategoryScore{{
			Name:  models.CategoryScoreInformationCompleteness,
			Score: sc.CompletenessScore,
		}},
		Strengths:           sc.Recommendations,
		AreasForImprovement: []string{},
		FinalAssessment:     defaultString(sc.Summary, "Interview preparation completed"),
		CreatedAt:           time.Now().UTC(),
	}
	if _, err := p.feedback.Create(ctx, fb); err != nil {
		p.log.WithError(err).Warn("failed to save preparation feedback")
	}

	turns := make([]models.TranscriptTurn, 0, len(transcript))
	now := time.Now().UTC()
	for i, u := range transcript {
		turns = append(turns, models.TranscriptTurn{
			ID:          uuid.NewString(),
			UserID:      userID,
			InterviewID: interviewID,
			Seq:         i,
			Role:        u.Role,
			Text:        u.Text,
			CreatedAt:   now,
		})
	}
	if err := p.turns.InsertTurns(ctx, turns); err != nil {
		p.log.WithError(err).Warn("failed to save transcript turns")
	}
}

var codeFenceRe = regexp.MustCompile("```json|```")

// parseScorecard reads the model output as JSON after stripping code fences.
// Unparseable output is a lower-confidence success, not an error: the raw
// text becomes the summary.
func parseScorecard(raw string) *models.Scorecard {
	clean := strings.TrimSpace(codeFenceRe.ReplaceAllString(raw, ""))

	var sc models.Scorecard
	if err := json.Unmarshal([]byte(clean), &sc); err != nil {
		return &models.Scorecard{
			Summary:           raw,
			CompletenessScore: 0,
			Recommendations:   []string{"Failed to parse JSON output"},
		}
	}
	return &sc
}

func emptyCallScorecard() *models.Scorecard {
	return &models.Scorecard{
		Summary:           "Call ended without any conversation recorded.",
		JobRole:           "Not collected",
		ExperienceLevel:   "Not collected",
		TechStack:         "Not collected",
		InterviewType:     "Not collected",
		CompletenessScore: 0,
		Recommendations: []string{
			"The call ended too quickly. Please try again and speak clearly.",
			"Ensure your microphone is working properly.",
			"Check your internet connection stability.",
		},
	}
}

func analysisUnavailableScorecard() *models.Scorecard {
	return &models.Scorecard{
		Summary:           "Interview preparation session completed. AI analysis unavailable.",
		JobRole:           "Not analyzed",
		ExperienceLevel:   "Not analyzed",
		TechStack:         "Not analyzed",
		InterviewType:     "Not analyzed",
		CompletenessScore: 0,
		Recommendations: []string{
			"Please try the session again for AI-powered recommendations.",
			"Review the conversation transcript for collected information.",
		},
	}
}

// formatTranscript renders utterances as "<role>: <text>" lines.
func formatTranscript(transcript []models.Utterance) string {
	lines := make([]string, 0, len(transcript))
	for _, u := range transcript {
		lines = append(lines, u.Role+": "+u.Text)
	}
	return strings.Join(lines, "\n")
}

// splitTechStack turns the scorecard's free-text tech stack into a list,
// splitting on commas and semicolons only.
func splitTechStack(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
