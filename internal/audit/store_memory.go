package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit events per user. When bounded it retains only
// the newest events per user and evicts the least recently written user
// once the user cap is reached.
type InMemoryStore struct {
	mu       sync.RWMutex
	events   map[string][]Event
	order    []string // users, least recently written first
	perUser  int
	maxUsers int
}

// StoreOption configures an InMemoryStore.
type StoreOption func(*InMemoryStore)

// WithMaxEventsPerUser keeps at most n events per user; 0 keeps all.
func WithMaxEventsPerUser(n int) StoreOption {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.perUser = n
		}
	}
}

// WithMaxUsers tracks at most n users; 0 tracks all.
func WithMaxUsers(n int) StoreOption {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.maxUsers = n
		}
	}
}

func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{events: make(map[string][]Event)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]Event)
	s.order = nil
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := append(s.events[event.UserID], event)
	if s.perUser > 0 && len(events) > s.perUser {
		events = append(events[:0:0], events[len(events)-s.perUser:]...)
	}
	s.events[event.UserID] = events
	s.touch(event.UserID)

	for s.maxUsers > 0 && len(s.order) > s.maxUsers {
		delete(s.events, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

// touch moves userID to the most recently written end of the order.
func (s *InMemoryStore) touch(userID string) {
	if s.maxUsers == 0 {
		return
	}
	for i, id := range s.order {
		if id == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append(s.order, userID)
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[userID]...), nil
}

// Actions returns the action names recorded for userID in emission order.
func (s *InMemoryStore) Actions(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.events[userID]))
	for _, e := range s.events[userID] {
		out = append(out, e.Action)
	}
	return out
}
