package audit

import "context"

// Store persists audit events. Recorded events are never modified; bounded
// stores may drop the oldest ones.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}
