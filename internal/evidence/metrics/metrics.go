// Package metrics provides Prometheus metrics for the evidence library.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains evidence corpus and query metrics.
type Metrics struct {
	ModulesLoaded prometheus.Gauge
	RecordsLoaded prometheus.Gauge
	LoadFailures  *prometheus.CounterVec // by reason: read, decode, record

	QueryDuration prometheus.Histogram
	QueryHits     prometheus.Histogram
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		ModulesLoaded: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sofie_evidence_modules_loaded",
			Help: "Number of evidence modules in the active corpus snapshot",
		}),
		RecordsLoaded: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sofie_evidence_records_loaded",
			Help: "Number of scorable evidence records in the active corpus snapshot",
		}),
		LoadFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_evidence_load_failures_total",
			Help: "Total number of corpus files or records skipped during load, by reason",
		}, []string{"reason"}),
		QueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sofie_evidence_query_duration_seconds",
			Help:    "Duration of evidence queries",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		QueryHits: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sofie_evidence_query_hits",
			Help:    "Number of hits returned per evidence query",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		}),
	}
}

func (m *Metrics) SetCorpusSize(modules, records int) {
	m.ModulesLoaded.Set(float64(modules))
	m.RecordsLoaded.Set(float64(records))
}

func (m *Metrics) IncrementLoadFailure(reason string) {
	m.LoadFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveQuery(durationSeconds float64, hits int) {
	m.QueryDuration.Observe(durationSeconds)
	m.QueryHits.Observe(float64(hits))
}
