package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prepvoice/prepvoice/internal/models"
	mongorepo "github.com/prepvoice/prepvoice/internal/repositories/mongo"
	"github.com/prepvoice/prepvoice/internal/utils"
)

const (
	defaultDifficulty      = "Medium"
	defaultDurationMinutes = 30
	communityFeedLimit     = 20
)

// TechStackList accepts either a JSON array of strings or a bare string,
// which is wrapped as a single-element list.
type TechStackList []string

func (t *TechStackList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*t = TechStackList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*t = TechStackList(many)
	return nil
}

type CreateInterviewInput struct {
	Role        string        `json:"role"`
	Type        string        `json:"type"`
	Level       string        `json:"level"`
	TechStack   TechStackList `json:"techstack"`
	Difficulty  string        `json:"difficulty"`
	Duration    int           `json:"duration"`
	Description string        `json:"description"`
	Questions   []string      `json:"questions"`
}

type InterviewService interface {
	Create(ctx context.Context, userID, userName string, in CreateInterviewInput) (*models.Interview, error)
	Get(ctx context.Context, id string) (*models.Interview, error)
	ListByUser(ctx context.Context, userID string) ([]models.Interview, error)
	ListCommunity(ctx context.Context, excludeUserID string) ([]models.Interview, error)
	FeedbackFor(ctx context.Context, interviewID, userID string) (*models.Feedback, error)
}

type interviewService struct {
	interviews mongorepo.InterviewRepository
	feedback   mongorepo.FeedbackRepository
}

func NewInterviewService(interviews mongorepo.InterviewRepository, feedback mongorepo.FeedbackRepository) InterviewService {
	return &interviewService{interviews: interviews, feedback: feedback}
}

func (s *interviewService) Create(ctx context.Context, userID, userName string, in CreateInterviewInput) (*models.Interview, error) {
	const op = "InterviewService.Create"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if in.Role == "" || in.Type == "" || len(in.TechStack) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role, type and techstack are required", nil)
	}

	if in.Difficulty == "" {
		in.Difficulty = defaultDifficulty
	}
	if in.Duration <= 0 {
		in.Duration = defaultDurationMinutes
	}

	iv := &models.Interview{
		UserID:      userID,
		UserName:    userName,
		Role:        in.Role,
		Type:        in.Type,
		Level:       in.Level,
		TechStack:   []string(in.TechStack),
		Difficulty:  in.Difficulty,
		Duration:    in.Duration,
		Description: in.Description,
		Questions:   in.Questions,
		Finalized:   true,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := s.interviews.Create(ctx, iv); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create interview", err)
	}
	return iv, nil
}

func (s *interviewService) Get(ctx context.Context, id string) (*models.Interview, error) {
	const op = "InterviewService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview id is required", nil)
	}

	iv, err := s.interviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	return iv, nil
}

func (s *interviewService) ListByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	const op = "InterviewService.ListByUser"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	out, err := s.interviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return out, nil
}

func (s *interviewService) ListCommunity(ctx context.Context, excludeUserID string) ([]models.Interview, error) {
	const op = "InterviewService.ListCommunity"

	out, err := s.interviews.ListLatestFinalized(ctx, excludeUserID, communityFeedLimit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list community interviews", err)
	}
	return out, nil
}

func (s *interviewService) FeedbackFor(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	const op = "InterviewService.FeedbackFor"

	if interviewID == "" || userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview id and user_id are required", nil)
	}

	fb, err := s.feedback.GetByInterviewAndUser(ctx, interviewID, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "feedback not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get feedback", err)
	}
	return fb, nil
}
