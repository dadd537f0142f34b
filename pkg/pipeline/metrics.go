package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mercator-hq/ganymede/pkg/audit"
)

// Metrics contains Prometheus metrics for the extraction pipeline.
// Identity is deliberately not a label; outcome and transport are both
// small fixed sets.
type Metrics struct {
	sessions       *prometheus.CounterVec
	sessionSeconds *prometheus.HistogramVec
	activeSessions prometheus.Gauge
	inputChars     prometheus.Histogram
	sectionsPerRun prometheus.Histogram
}

// NewMetrics creates a Metrics instance registered on reg. A nil
// registerer yields unregistered collectors, which tests use to avoid
// polluting the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		sessions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganymede_pipeline_sessions_total",
				Help: "Total number of extraction sessions by outcome and transport",
			},
			[]string{"outcome", "transport"},
		),

		sessionSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ganymede_pipeline_session_duration_seconds",
				Help:    "Extraction session wall time by outcome",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0},
			},
			[]string{"outcome"},
		),

		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ganymede_pipeline_active_sessions",
				Help: "Current number of live extraction sessions",
			},
		),

		inputChars: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ganymede_pipeline_input_chars",
				Help:    "Submitted transcript size in characters",
				Buckets: []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000},
			},
		),

		sectionsPerRun: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ganymede_pipeline_sections_per_session",
				Help:    "Sections delivered per completed session",
				Buckets: []float64{0, 1, 2, 4, 6, 8, 12, 16},
			},
		),
	}
}

// RecordSession records one finished session. The sections histogram
// only observes completed sessions; rejections and failures would
// drown it in zeros.
func (m *Metrics) RecordSession(outcome, transport string, duration time.Duration, sections int) {
	m.sessions.WithLabelValues(outcome, transport).Inc()
	m.sessionSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
	if outcome == audit.OutcomeComplete {
		m.sectionsPerRun.Observe(float64(sections))
	}
}

// RecordInput records the size of a submitted transcript.
func (m *Metrics) RecordInput(chars int) {
	m.inputChars.Observe(float64(chars))
}

// SessionStarted increments the live session gauge.
func (m *Metrics) SessionStarted() {
	m.activeSessions.Inc()
}

// SessionEnded decrements the live session gauge.
func (m *Metrics) SessionEnded() {
	m.activeSessions.Dec()
}
