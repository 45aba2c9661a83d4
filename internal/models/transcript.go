package models

import (
	"time"

	"gorm.io/datatypes"
)

// Utterance roles. The channel attributes each finalized turn to one side of
// the conversation.
const (
	RoleCandidate   = "candidate"
	RoleInterviewer = "interviewer"
)

// Utterance is one finalized spoken turn. Interim channel fragments are never
// materialized as utterances.
type Utterance struct {
	Role string `bson:"role" json:"role"`
	Text string `bson:"text" json:"text"`
}

// TranscriptTurn is the relational copy of an utterance, one row per turn.
// The feedback regeneration worker replays an interview from these rows.
type TranscriptTurn struct {
	ID          string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      string         `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	InterviewID string         `gorm:"column:interview_id;type:text;index" json:"interview_id"`
	Seq         int            `gorm:"column:seq" json:"seq"`
	Role        string         `gorm:"column:role;type:text" json:"role"`
	Text        string         `gorm:"column:text;type:text" json:"text"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt   time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (TranscriptTurn) TableName() string { return "transcript_turns" }
