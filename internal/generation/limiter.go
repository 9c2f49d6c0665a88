package generation

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// LimitedGenerator spaces calls to the wrapped backend with a token bucket.
// Callers wait for a token up to maxWait before being rejected.
type LimitedGenerator struct {
	next    Generator
	limiter *rate.Limiter
	maxWait time.Duration
}

// WithRateLimit allows rps calls per second with the given burst. A
// non-positive rps disables limiting.
func WithRateLimit(next Generator, rps float64, burst int, maxWait time.Duration) *LimitedGenerator {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &LimitedGenerator{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		maxWait: maxWait,
	}
}

func (g *LimitedGenerator) Generate(ctx context.Context, p Params) (string, error) {
	waitCtx := ctx
	if g.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.maxWait)
		defer cancel()
	}
	if err := g.limiter.Wait(waitCtx); err != nil {
		return "", NewError(ErrorRateLimited, "limiter", "generation rate limit exceeded", err)
	}
	return g.next.Generate(ctx, p)
}

func (g *LimitedGenerator) Available(ctx context.Context) bool {
	return g.next.Available(ctx)
}
