// Package scheduler evaluates ritual rules on an interval and delivers the
// resulting batch to a sink.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sofie/internal/ritual/metrics"
	"sofie/internal/ritual/models"
	"sofie/internal/ritual/rules"
	"sofie/internal/ritual/sink"
	"sofie/pkg/platform/tracer"
)

// SignalSource produces the signal snapshot for an instant.
type SignalSource interface {
	Snapshot(ctx context.Context, now time.Time) models.Signals
}

// Scheduler runs rule evaluation. Rules are immutable, so concurrent
// Preview calls and scheduled runs share no mutable state.
type Scheduler struct {
	signals  SignalSource
	rules    *rules.Set
	sink     sink.Sink
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
}

type Option func(*Scheduler)

// WithInterval overrides the run interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Scheduler) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Scheduler. out may be nil for preview-only use.
func New(signals SignalSource, set *rules.Set, out sink.Sink, opts ...Option) (*Scheduler, error) {
	if signals == nil || set == nil {
		return nil, fmt.Errorf("signals and rules are required")
	}
	s := &Scheduler{
		signals:  signals,
		rules:    set,
		sink:     out,
		interval: time.Hour,
		now:      time.Now,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Start runs once immediately, then on every tick until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.ErrorContext(ctx, "ritual run failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "ritual run failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Preview evaluates the rules for now without writing anything.
func (s *Scheduler) Preview(ctx context.Context) *models.Evaluation {
	return s.evaluate(ctx, s.now())
}

// RunOnce evaluates the rules and writes the batch to the sink. The
// evaluation is returned even when the sink fails.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.Evaluation, error) {
	start := time.Now()
	eval := s.evaluate(ctx, s.now())
	var err error
	if s.sink != nil {
		if werr := s.sink.Write(ctx, eval.Batch); werr != nil {
			err = fmt.Errorf("write ritual batch: %w", werr)
		}
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	if s.metrics != nil {
		s.metrics.IncrementRun(result)
		s.metrics.ObserveRunDuration(time.Since(start).Seconds())
		s.metrics.SetHRV(eval.Signals.HRV)
		for _, t := range eval.Triggers {
			s.metrics.IncrementTrigger(t.Ritual)
		}
	}
	s.logger.InfoContext(ctx, "ritual calendar updated",
		"triggers", len(eval.Triggers),
		"phase", eval.Signals.Phase,
		"season", eval.Signals.Season,
		"hrv", eval.Signals.HRV,
		"result", result,
	)
	return eval, err
}

func (s *Scheduler) evaluate(ctx context.Context, now time.Time) *models.Evaluation {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRitualEvaluation)

	sig := s.signals.Snapshot(ctx, now)
	triggers, err := s.rules.Evaluate(sig)
	if err != nil {
		// Rules that evaluated cleanly still produce triggers.
		s.logger.WarnContext(ctx, "ritual rule evaluation errors", "error", err)
	}
	span.SetAttributes(tracer.Int(tracer.AttrTriggerCount, len(triggers)))
	span.End(nil)

	return &models.Evaluation{
		Signals: sig,
		Batch: models.Batch{
			GeneratedAt: now.UTC(),
			Triggers:    triggers,
		},
	}
}
