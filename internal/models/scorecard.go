package models

// Scorecard is the free-form practice assessment. It is session-local first
// (handed to the results view through the transient stash) and additionally
// persisted as a preparation interview plus a companion feedback record.
type Scorecard struct {
	Summary           string   `json:"summary"`
	JobRole           string   `json:"jobRole"`
	ExperienceLevel   string   `json:"experienceLevel"`
	TechStack         string   `json:"techStack"`
	InterviewType     string   `json:"interviewType"`
	CompletenessScore int      `json:"completenessScore"` // 0-100
	Recommendations   []string `json:"recommendations"`
}
