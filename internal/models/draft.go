package models

// FeedbackDraft is the schema-constrained extraction result for a scripted
// interview, before it is bound to an interview/user and persisted.
type FeedbackDraft struct {
	TotalScore          int             `json:"totalScore"`
	CategoryScores      []CategoryScore `json:"categoryScores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
}
