package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sofie/internal/platform/metrics"
	"sofie/internal/platform/middleware"
	"sofie/pkg/platform/middleware/requesttime"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// Config controls the middleware stack.
type Config struct {
	// RequestTimeout must exceed the generation timeout or slow completions
	// are cut off before the fallback path can answer.
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter wires every handler behind the shared middleware stack and
// exposes Prometheus metrics on /metrics.
func NewRouter(cfg Config, logger *slog.Logger, m *metrics.Metrics, handlers ...Registrar) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(logger, m))
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.ContentTypeJSON)

	r.Handle("/metrics", promhttp.Handler())
	for _, h := range handlers {
		if h != nil {
			h.Register(r)
		}
	}
	return r
}
