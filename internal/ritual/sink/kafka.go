package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"sofie/internal/platform/kafka/producer"
	"sofie/internal/ritual/models"
)

// Publisher is the subset of the platform producer the Kafka sink needs.
type Publisher interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Kafka publishes each batch as one JSON record keyed by its UTC date.
type Kafka struct {
	publisher Publisher
	topic     string
}

func NewKafka(publisher Publisher, topic string) *Kafka {
	return &Kafka{publisher: publisher, topic: topic}
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Write(ctx context.Context, batch models.Batch) error {
	if batch.Triggers == nil {
		batch.Triggers = []models.Trigger{}
	}
	value, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	return k.publisher.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(batch.GeneratedAt.UTC().Format("2006-01-02")),
		Value: value,
		Headers: map[string]string{
			"content-type":  "application/json",
			"trigger-count": fmt.Sprint(len(batch.Triggers)),
		},
	})
}
