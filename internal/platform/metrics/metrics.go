package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide HTTP and build metrics. Domain packages own
// their own collectors.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	EndpointLatency *prometheus.HistogramVec
	BuildInfo       *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_http_requests_total",
			Help: "Total number of HTTP requests, labeled by method, route and status",
		}, []string{"method", "route", "status"}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sofie_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		BuildInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sofie_build_info",
			Help: "Constant 1, labeled by version and environment",
		}, []string{"version", "environment"}),
	}
}

// ObserveHTTPRequest counts a finished request and records its latency.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.EndpointLatency.WithLabelValues(route).Observe(durationSeconds)
}

// SetBuildInfo publishes the running version.
func (m *Metrics) SetBuildInfo(version, environment string) {
	m.BuildInfo.WithLabelValues(version, environment).Set(1)
}
