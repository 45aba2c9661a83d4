package mongo

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prepvoice/prepvoice/internal/models"
	"github.com/prepvoice/prepvoice/internal/utils"
)

type InterviewRepository interface {
	Create(ctx context.Context, iv *models.Interview) (string, error)
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	ListByUser(ctx context.Context, userID string) ([]models.Interview, error)
	ListLatestFinalized(ctx context.Context, excludeUserID string, limit int) ([]models.Interview, error)
}

type interviewRepo struct {
	col *mongo.Collection
}

func NewInterviewRepo(db *mongo.Database) InterviewRepository {
	return &interviewRepo{col: db.Collection("interviews")}
}

func (r *interviewRepo) Create(ctx context.Context, iv *models.Interview) (string, error) {
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = time.Now().UTC()
	}
	if iv.ID.IsZero() {
		iv.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, iv); err != nil {
		return "", err
	}
	return iv.ID.Hex(), nil
}

func (r *interviewRepo) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrNotFound
	}

	var iv models.Interview
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&iv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &iv, err
}

func (r *interviewRepo) ListByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Interview
	err = cur.All(ctx, &out)
	return out, err
}

// ListLatestFinalized returns finalized interviews from other users, newest
// first. The batch is fetched wide and filtered/sorted in memory so no
// compound index is required.
func (r *interviewRepo) ListLatestFinalized(ctx context.Context, excludeUserID string, limit int) ([]models.Interview, error) {
	if limit <= 0 {
		limit = 20
	}

	cur, err := r.col.Find(ctx, bson.M{"finalized": true}, options.Find().SetLimit(100))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var batch []models.Interview
	if err := cur.All(ctx, &batch); err != nil {
		return nil, err
	}

	out := batch[:0]
	for _, iv := range batch {
		if iv.UserID != excludeUserID {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
