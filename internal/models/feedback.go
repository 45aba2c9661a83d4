package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The fixed scripted-interview rubric. Category names and order are part of
// the product contract; the extraction schema enforces them.
var FeedbackCategories = []string{
	"Communication Skills",
	"Technical Knowledge",
	"Problem Solving",
	"Cultural Fit",
	"Confidence and Clarity",
}

// CategoryScoreInformationCompleteness is the single category a free-form
// practice scorecard maps into when persisted as feedback.
const CategoryScoreInformationCompleteness = "Information Completeness"

type CategoryScore struct {
	Name    string `bson:"name" json:"name"`
	Score   int    `bson:"score" json:"score"` // 0-100
	Comment string `bson:"comment" json:"comment"`
}

type Feedback struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterviewID string             `bson:"interview_id" json:"interview_id"`
	UserID      string             `bson:"user_id" json:"user_id"`

	TotalScore          int             `bson:"total_score" json:"total_score"`
	CategoryScores      []CategoryScore `bson:"category_scores" json:"category_scores"`
	Strengths           []string        `bson:"strengths" json:"strengths"`
	AreasForImprovement []string        `bson:"areas_for_improvement" json:"areas_for_improvement"`
	FinalAssessment     string          `bson:"final_assessment" json:"final_assessment"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
