package store

import (
	"context"
	"sort"
	"sync"

	"sofie/internal/consent/models"
	"sofie/pkg/platform/sentinel"
)

// Error contract shared by every store in this package:
//   - Find returns sentinel.ErrNotFound when no record exists
//   - writes return nil on success or a wrapped infrastructure error

// InMemoryStore keeps consent records for the lifetime of the process.
type InMemoryStore struct {
	mu       sync.RWMutex
	consents map[string]map[models.ConsentType]*models.Record
}

// New constructs an empty in-memory consent store.
func New() *InMemoryStore {
	return &InMemoryStore{consents: make(map[string]map[models.ConsentType]*models.Record)}
}

// Save upserts the record for (UserID, Type).
func (s *InMemoryStore) Save(_ context.Context, consent *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.consents[consent.UserID]
	if !ok {
		records = make(map[models.ConsentType]*models.Record)
		s.consents[consent.UserID] = records
	}
	records[consent.Type] = consent.Clone()
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, userID string, consentType models.ConsentType) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.consents[userID][consentType]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

// ListByUser returns copies of the user's records ordered by consent type.
func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.consents[userID]
	out := make([]*models.Record, 0, len(records))
	for _, record := range records {
		out = append(out, record.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

// Health always succeeds for the in-memory store.
func (s *InMemoryStore) Health(context.Context) error {
	return nil
}
