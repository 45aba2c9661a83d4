package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prepvoice/prepvoice/internal/models"
	"github.com/prepvoice/prepvoice/internal/utils"
)

type FeedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) (string, error)
	Set(ctx context.Context, id string, fb *models.Feedback) error
	GetByID(ctx context.Context, id string) (*models.Feedback, error)
	GetByInterviewAndUser(ctx context.Context, interviewID, userID string) (*models.Feedback, error)
}

type feedbackRepo struct {
	col *mongo.Collection
}

func NewFeedbackRepo(db *mongo.Database) FeedbackRepository {
	return &feedbackRepo{col: db.Collection("feedback")}
}

func (r *feedbackRepo) Create(ctx context.Context, fb *models.Feedback) (string, error) {
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	if fb.ID.IsZero() {
		fb.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, fb); err != nil {
		return "", err
	}
	return fb.ID.Hex(), nil
}

// Set writes the feedback under the given id, replacing any existing record.
// This is the regeneration path: one interview keeps one feedback document.
func (r *feedbackRepo) Set(ctx context.Context, id string, fb *models.Feedback) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	fb.ID = oid
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	_, err = r.col.ReplaceOne(ctx, bson.M{"_id": oid}, fb, options.Replace().SetUpsert(true))
	return err
}

func (r *feedbackRepo) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrNotFound
	}

	var fb models.Feedback
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&fb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &fb, err
}

func (r *feedbackRepo) GetByInterviewAndUser(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	var fb models.Feedback
	err := r.col.FindOne(ctx, bson.M{
		"interview_id": interviewID,
		"user_id":      userID,
	}).Decode(&fb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &fb, err
}
