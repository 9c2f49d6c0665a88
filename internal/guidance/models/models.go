// Package models holds guidance request and result types.
package models

import "time"

// Turn is one prior exchange in the conversation.
type Turn struct {
	Role    string `json:"role" validate:"required,max=32"`
	Content string `json:"content" validate:"max=4000"`
}

// WellnessContext is optional self-reported state used to personalize the prompt.
// Levels are on a 1-10 scale.
type WellnessContext struct {
	Mood         string   `json:"mood,omitempty" validate:"max=64"`
	EnergyLevel  *int     `json:"energy_level,omitempty" validate:"omitempty,gte=1,lte=10"`
	StressLevel  *int     `json:"stress_level,omitempty" validate:"omitempty,gte=1,lte=10"`
	SleepQuality *int     `json:"sleep_quality,omitempty" validate:"omitempty,gte=1,lte=10"`
	Goals        []string `json:"goals,omitempty" validate:"max=10,dive,max=128"`
}

// IsEmpty reports whether no field would contribute to a prompt.
func (c *WellnessContext) IsEmpty() bool {
	return c == nil || (c.Mood == "" && c.EnergyLevel == nil && c.StressLevel == nil &&
		c.SleepQuality == nil && len(c.Goals) == 0)
}

// Request asks for guidance on behalf of a user.
type Request struct {
	UserID  string
	Query   string
	History []Turn
	Context *WellnessContext
}

// Outcome tags a guidance result.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeConsentDenied    Outcome = "consent_denied"
	OutcomeGenerationFailed Outcome = "generation_failed"
)

// EvidenceRef is the provenance of one evidence hit used in a prompt.
type EvidenceRef struct {
	ID      string  `json:"id,omitempty"`
	Name    string  `json:"name"`
	Module  string  `json:"module"`
	Kind    string  `json:"kind"`
	Score   float64 `json:"score"`
	StudyID string  `json:"study_id,omitempty"`
}

// Result is the tagged outcome of Respond. Text is set only for OutcomeOK;
// Message carries the remediation or fallback text otherwise.
type Result struct {
	Outcome         Outcome       `json:"outcome"`
	Text            string        `json:"guidance,omitempty"`
	Message         string        `json:"message,omitempty"`
	ConsentVerified bool          `json:"consent_verified"`
	ContextUsed     bool          `json:"context_used"`
	Evidence        []EvidenceRef `json:"evidence"`
	Timestamp       time.Time     `json:"timestamp"`
}
