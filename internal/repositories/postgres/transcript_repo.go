package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/prepvoice/prepvoice/internal/models"
)

type TranscriptRepository interface {
	InsertTurns(ctx context.Context, turns []models.TranscriptTurn) error
	ListByInterview(ctx context.Context, interviewID string) ([]models.TranscriptTurn, error)
}

type transcriptRepo struct {
	db *gorm.DB
}

func NewTranscriptRepo(db *gorm.DB) TranscriptRepository {
	return &transcriptRepo{db: db}
}

func (r *transcriptRepo) InsertTurns(ctx context.Context, turns []models.TranscriptTurn) error {
	if len(turns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&turns).Error
}

func (r *transcriptRepo) ListByInterview(ctx context.Context, interviewID string) ([]models.TranscriptTurn, error) {
	var rows []models.TranscriptTurn
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("seq ASC").
		Find(&rows).Error
	return rows, err
}
