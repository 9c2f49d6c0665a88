package generation

import (
	"context"
	"log/slog"

	"sofie/pkg/platform/circuit"
)

// BreakerGenerator fails fast while the wrapped backend's circuit is open.
type BreakerGenerator struct {
	next    Generator
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// WithBreaker wraps next with b.
func WithBreaker(next Generator, b *circuit.Breaker, logger *slog.Logger) *BreakerGenerator {
	return &BreakerGenerator{next: next, breaker: b, logger: logger}
}

func (g *BreakerGenerator) Generate(ctx context.Context, p Params) (string, error) {
	if !g.breaker.Allow() {
		return "", NewError(ErrorCircuitOpen, g.breaker.Name(), "circuit open", nil)
	}

	text, err := g.next.Generate(ctx, p)
	if err != nil {
		// Caller cancellations say nothing about backend health.
		if ctx.Err() != nil && KindOf(err) != ErrorTimeout {
			return "", err
		}
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "generation circuit opened",
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return "", err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "generation circuit closed",
			"breaker", g.breaker.Name(),
		)
	}
	return text, nil
}

// Available is false while the circuit rejects calls.
func (g *BreakerGenerator) Available(ctx context.Context) bool {
	return g.breaker.Allow() && g.next.Available(ctx)
}

// State exposes the breaker state for health reporting.
func (g *BreakerGenerator) State() circuit.State {
	return g.breaker.State()
}
