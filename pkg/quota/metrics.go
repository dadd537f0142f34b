package quota

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the quota package. Identity
// is deliberately not a label: identity sets are unbounded and would
// blow up series cardinality.
type Metrics struct {
	checks        *prometheus.CounterVec
	sweptBuckets  prometheus.Counter
	activeBuckets prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on reg. A nil
// registerer yields unregistered collectors, which tests use to avoid
// polluting the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		checks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganymede_quota_checks_total",
				Help: "Total number of quota checks by result",
			},
			[]string{"result"},
		),

		sweptBuckets: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ganymede_quota_swept_buckets_total",
				Help: "Total number of stale quota buckets removed by the sweeper",
			},
		),

		activeBuckets: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ganymede_quota_active_buckets",
				Help: "Current number of live quota buckets",
			},
		),
	}
}

// RecordCheck records one quota check.
func (m *Metrics) RecordCheck(allowed bool) {
	result := "allowed"
	if !allowed {
		result = "rejected"
	}
	m.checks.WithLabelValues(result).Inc()
}

// RecordSwept records buckets removed by a sweep pass.
func (m *Metrics) RecordSwept(count int) {
	m.sweptBuckets.Add(float64(count))
}

// UpdateActiveBuckets updates the live bucket gauge.
func (m *Metrics) UpdateActiveBuckets(count int) {
	m.activeBuckets.Set(float64(count))
}
