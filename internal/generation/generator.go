// Package generation adapts language-model backends behind a single
// Generator interface and layers rate limiting and a circuit breaker on top.
package generation

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -source=generator.go -destination=mocks/generator.go -package=mocks Generator

// Params is one completion request.
type Params struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	Stop        []string
}

// DefaultStop ends a completion before the model starts writing the next
// user turn or a new paragraph.
var DefaultStop = []string{"User:", "\n\n"}

const (
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.7
)

// Generator produces text for a prompt. Available is a cheap liveness probe
// used by health reporting.
type Generator interface {
	Generate(ctx context.Context, p Params) (string, error)
	Available(ctx context.Context) bool
}

// ErrorKind classifies generation failures for logging and metrics.
type ErrorKind string

const (
	ErrorTimeout     ErrorKind = "timeout"
	ErrorOutage      ErrorKind = "outage"
	ErrorBadResponse ErrorKind = "bad_response"
	ErrorRateLimited ErrorKind = "rate_limited"
	ErrorCircuitOpen ErrorKind = "circuit_open"
	ErrorInternal    ErrorKind = "internal"
)

// Error is returned by every generator in this package.
type Error struct {
	Kind    ErrorKind
	Backend string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Backend, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Backend, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified generation error.
func NewError(kind ErrorKind, backend, msg string, err error) *Error {
	return &Error{Kind: kind, Backend: backend, Message: msg, Err: err}
}

// KindOf returns the classification of err, or ErrorInternal when err did
// not come from this package.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorInternal
}
