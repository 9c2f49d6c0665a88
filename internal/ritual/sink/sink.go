// Package sink delivers ritual batches to their consumers.
package sink

import (
	"context"
	"errors"
	"fmt"

	"sofie/internal/ritual/models"
)

// Sink receives each evaluated batch.
type Sink interface {
	Write(ctx context.Context, batch models.Batch) error
	Name() string
}

// Multi writes to every sink and joins their errors. A failing sink does
// not prevent delivery to the others.
type Multi struct {
	sinks []Sink
	onErr func(name string, err error)
}

// NewMulti fans out to sinks in order. onErr, if set, is called per failure.
func NewMulti(onErr func(name string, err error), sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, onErr: onErr}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Write(ctx context.Context, batch models.Batch) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, batch); err != nil {
			if m.onErr != nil {
				m.onErr(s.Name(), err)
			}
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
