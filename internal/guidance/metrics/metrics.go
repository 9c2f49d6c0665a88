package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for guidance requests.
type Metrics struct {
	Outcomes           *prometheus.CounterVec
	GenerationLatency  prometheus.Histogram
	GenerationFailures *prometheus.CounterVec
	EvidenceHits       prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_guidance_outcomes_total",
			Help: "Total number of guidance requests, labeled by outcome",
		}, []string{"outcome"}),
		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sofie_generation_latency_seconds",
			Help:    "Latency of generation backend calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		GenerationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_generation_failures_total",
			Help: "Total number of failed generation calls, labeled by failure kind",
		}, []string{"kind"}),
		EvidenceHits: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sofie_guidance_evidence_hits",
			Help:    "Number of evidence hits injected per guidance prompt",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	m.Outcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGenerationLatency(durationSeconds float64) {
	m.GenerationLatency.Observe(durationSeconds)
}

func (m *Metrics) IncrementGenerationFailure(kind string) {
	m.GenerationFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveEvidenceHits(n int) {
	m.EvidenceHits.Observe(float64(n))
}
