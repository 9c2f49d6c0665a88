package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sofie/internal/platform/kafka/producer"
	"sofie/pkg/platform/tracer"
)

// Producer publishes one message and waits for the broker acknowledgement.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// StreamStore persists to a local Store and mirrors every event to a Kafka
// topic. The local store stays authoritative for ListByUser. Published
// events carry a hashed user id only.
type StreamStore struct {
	local    Store
	producer Producer
	topic    string
}

func NewStreamStore(local Store, p Producer, topic string) *StreamStore {
	return &StreamStore{local: local, producer: p, topic: topic}
}

type streamEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	UserHash    string    `json:"user_hash"`
	Action      string    `json:"action"`
	ConsentType string    `json:"consent_type,omitempty"`
	Purpose     string    `json:"purpose,omitempty"`
	Decision    string    `json:"decision,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

func (s *StreamStore) Append(ctx context.Context, event Event) error {
	if err := s.local.Append(ctx, event); err != nil {
		return err
	}

	userHash := tracer.HashUserID(event.UserID)
	payload, err := json.Marshal(streamEvent{
		Timestamp:   event.Timestamp.UTC(),
		UserHash:    userHash,
		Action:      event.Action,
		ConsentType: event.ConsentType,
		Purpose:     event.Purpose,
		Decision:    event.Decision,
		Reason:      event.Reason,
	})
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	err = s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(userHash),
		Value: payload,
		Headers: map[string]string{
			"content-type": "application/json",
			"action":       event.Action,
		},
	})
	if err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

func (s *StreamStore) ListByUser(ctx context.Context, userID string) ([]Event, error) {
	return s.local.ListByUser(ctx, userID)
}
