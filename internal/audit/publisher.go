package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sofie/pkg/platform/tracer"
)

// Publisher is the consent ledger's audit sink. Grants, revocations and
// verification outcomes reach the Store either inline or, with an async
// buffer, from a single writer goroutine so guidance requests never wait on
// the audit trail.
type Publisher struct {
	store   Store
	queue   chan Event
	done    sync.WaitGroup
	logger  *slog.Logger
	dropped atomic.Int64
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer queues up to size events for the background writer.
// Events arriving while the queue is full are dropped and counted.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan Event, size)
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.done.Add(1)
		go p.write()
	}
	return p
}

func (p *Publisher) write() {
	defer p.done.Done()
	for event := range p.queue {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.warn("audit event not persisted", event, "error", err)
		}
	}
}

// Close stops accepting queued events and waits for the writer to drain.
func (p *Publisher) Close() {
	if p.queue != nil {
		close(p.queue)
		p.done.Wait()
	}
}

// Emit records a consent event, stamping it with the current time when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.queue == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.queue <- event:
	default:
		p.dropped.Add(1)
		p.warn("audit queue full, event dropped", event)
	}
	return nil
}

// Dropped reports how many events the async queue has discarded.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) List(ctx context.Context, userID string) ([]Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// warn logs with the user hashed; raw user IDs stay out of logs.
func (p *Publisher) warn(msg string, event Event, args ...any) {
	if p.logger == nil {
		return
	}
	attrs := append([]any{
		"action", event.Action,
		"consent_type", event.ConsentType,
		"user_hash", tracer.HashUserID(event.UserID),
	}, args...)
	p.logger.Warn(msg, attrs...)
}
