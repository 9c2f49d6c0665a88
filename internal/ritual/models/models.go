// Package models holds ritual signal, trigger and batch types.
package models

import "time"

// Lunar phases.
const (
	PhaseNew    = "new"
	PhaseWaxing = "waxing"
	PhaseFull   = "full"
	PhaseWaning = "waning"
)

// Solar seasons.
const (
	SeasonWinter = "winter"
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
)

// Signals is the snapshot the rules are evaluated against.
type Signals struct {
	At     time.Time `json:"at"`
	Phase  string    `json:"phase"`
	Season string    `json:"season"`
	Day    int       `json:"day"`
	Kp     float64   `json:"kp"`
	HRV    float64   `json:"hrv"`
	// HRVFallback is true when no ledger readings covered the window.
	HRVFallback bool `json:"hrv_fallback"`
}

// Vars exposes the signals as rule variables.
func (s Signals) Vars() map[string]any {
	return map[string]any{
		"phase":  s.Phase,
		"season": s.Season,
		"day":    int64(s.Day),
		"kp":     s.Kp,
		"hrv":    s.HRV,
	}
}

// Trigger names a ritual that fired and why.
type Trigger struct {
	Ritual string `json:"ritual"`
	Reason string `json:"reason"`
}

// Batch is the payload written to sinks after one evaluation.
type Batch struct {
	GeneratedAt time.Time `json:"generated_at"`
	Triggers    []Trigger `json:"triggers"`
}

// Evaluation pairs a batch with the signals that produced it.
type Evaluation struct {
	Signals Signals `json:"signals"`
	Batch
}
