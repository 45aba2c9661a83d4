package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interview types. Scripted interviews carry a question list; preparation
// interviews are created after a free-form practice call from its scorecard.
const (
	InterviewTypeTechnical   = "Technical"
	InterviewTypeBehavioral  = "Behavioral"
	InterviewTypeMixed       = "Mixed"
	InterviewTypePreparation = "preparation"
)

type Interview struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   string             `bson:"user_id" json:"user_id"`
	UserName string             `bson:"user_name" json:"user_name"`

	Role      string   `bson:"role" json:"role"`
	Type      string   `bson:"type" json:"type"`
	Level     string   `bson:"level,omitempty" json:"level,omitempty"`
	TechStack []string `bson:"techstack" json:"techstack"`

	Difficulty  string   `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Duration    int      `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	Questions   []string `bson:"questions,omitempty" json:"questions,omitempty"`

	// Preparation-only fields, derived from the scorecard.
	ExperienceLevel   string      `bson:"experience_level,omitempty" json:"experience_level,omitempty"`
	InterviewType     string      `bson:"interview_type,omitempty" json:"interview_type,omitempty"`
	CompletenessScore int         `bson:"completeness_score,omitempty" json:"completeness_score,omitempty"`
	Transcript        []Utterance `bson:"transcript,omitempty" json:"transcript,omitempty"`

	Finalized bool      `bson:"finalized" json:"finalized"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
