package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the ritual scheduler.
type Metrics struct {
	Runs         *prometheus.CounterVec
	Triggers     *prometheus.CounterVec
	SinkFailures *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	LastHRV      prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_ritual_runs_total",
			Help: "Total number of ritual evaluations, labeled by result",
		}, []string{"result"}),
		Triggers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_ritual_triggers_total",
			Help: "Total number of ritual triggers emitted, labeled by ritual",
		}, []string{"ritual"}),
		SinkFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_ritual_sink_failures_total",
			Help: "Total number of failed batch writes, labeled by sink",
		}, []string{"sink"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sofie_ritual_run_duration_seconds",
			Help:    "Duration of one ritual evaluation and write in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		LastHRV: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sofie_ritual_hrv_7d_ms",
			Help: "Most recent 7-day HRV average used for ritual evaluation",
		}),
	}
}

func (m *Metrics) IncrementRun(result string) {
	m.Runs.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementTrigger(ritual string) {
	m.Triggers.WithLabelValues(ritual).Inc()
}

func (m *Metrics) IncrementSinkFailure(sink string) {
	m.SinkFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) ObserveRunDuration(durationSeconds float64) {
	m.RunDuration.Observe(durationSeconds)
}

func (m *Metrics) SetHRV(ms float64) {
	m.LastHRV.Set(ms)
}
