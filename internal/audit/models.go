package audit

import "time"

// Event is emitted from domain logic to capture consent decisions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time
	UserID      string
	Action      string
	ConsentType string
	Purpose     string
	Decision    string
	Reason      string
}
