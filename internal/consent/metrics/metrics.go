package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for consent operations.
type Metrics struct {
	ConsentsGranted     *prometheus.CounterVec
	ConsentsRevoked     *prometheus.CounterVec
	ConsentsExpired     *prometheus.CounterVec
	ConsentCheckPassed  *prometheus.CounterVec
	ConsentCheckFailed  *prometheus.CounterVec
	EnforcementBypassed prometheus.Counter
	ConsentGrantLatency prometheus.Histogram

	// Performance metrics
	StoreOperationLatency *prometheus.HistogramVec
	ShardLockWait         prometheus.Histogram
}

// New registers and returns consent metrics collectors.
// Call it once per process; promauto registers against the default registry.
func New() *Metrics {
	return &Metrics{
		ConsentsGranted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_consents_granted_total",
			Help: "Total number of consents granted, labeled by consent type",
		}, []string{"consent_type"}),
		ConsentsRevoked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_consents_revoked_total",
			Help: "Total number of consents revoked, labeled by consent type",
		}, []string{"consent_type"}),
		ConsentsExpired: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_consents_expired_total",
			Help: "Total number of granted consents observed past expiry, labeled by consent type",
		}, []string{"consent_type"}),
		ConsentCheckPassed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_consent_checks_passed_total",
			Help: "Total number of consent gate checks that passed, labeled by consent type",
		}, []string{"consent_type"}),
		ConsentCheckFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sofie_consent_checks_failed_total",
			Help: "Total number of consent gate checks that failed, labeled by consent type and status",
		}, []string{"consent_type", "status"}),
		EnforcementBypassed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sofie_consent_enforcement_bypassed_total",
			Help: "Total number of gate checks allowed because enforcement is disabled",
		}),
		ConsentGrantLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sofie_consent_grant_latency_seconds",
			Help:    "Latency of consent grant operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		StoreOperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sofie_consent_store_operation_latency_seconds",
			Help:    "Latency of consent store operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		ShardLockWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sofie_consent_shard_lock_wait_seconds",
			Help:    "Time spent waiting to acquire a consent key lock",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementConsentsGranted(consentType string) {
	m.ConsentsGranted.WithLabelValues(consentType).Inc()
}

func (m *Metrics) IncrementConsentsRevoked(consentType string) {
	m.ConsentsRevoked.WithLabelValues(consentType).Inc()
}

func (m *Metrics) IncrementConsentsExpired(consentType string) {
	m.ConsentsExpired.WithLabelValues(consentType).Inc()
}

func (m *Metrics) IncrementConsentCheckPassed(consentType string) {
	m.ConsentCheckPassed.WithLabelValues(consentType).Inc()
}

func (m *Metrics) IncrementConsentCheckFailed(consentType, status string) {
	m.ConsentCheckFailed.WithLabelValues(consentType, status).Inc()
}

func (m *Metrics) IncrementEnforcementBypassed() {
	m.EnforcementBypassed.Inc()
}

func (m *Metrics) ObserveConsentGrantLatency(durationSeconds float64) {
	m.ConsentGrantLatency.Observe(durationSeconds)
}

// ObserveStoreOperationLatency records the latency of a store operation.
func (m *Metrics) ObserveStoreOperationLatency(operation string, durationSeconds float64) {
	m.StoreOperationLatency.WithLabelValues(operation).Observe(durationSeconds)
}

// ObserveShardLockWait records how long a transaction waited for its key lock.
func (m *Metrics) ObserveShardLockWait(durationSeconds float64) {
	m.ShardLockWait.Observe(durationSeconds)
}
