package models

// InterviewTemplate is a pre-made scripted interview. Templates are loaded at
// startup and never mutated; a template only seeds a session's question list.
type InterviewTemplate struct {
	ID          string   `koanf:"id" json:"id"`
	Role        string   `koanf:"role" json:"role"`
	Type        string   `koanf:"type" json:"type"` // Technical|Behavioral|Mixed
	Level       string   `koanf:"level" json:"level"`
	TechStack   []string `koanf:"techstack" json:"techstack"`
	Description string   `koanf:"description" json:"description"`
	Questions   []string `koanf:"questions" json:"questions"`
}
