package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics tracks the server's HTTP surface.
//
// Metrics:
//   - ganymede_http_requests_total: requests by route, method, status
//   - ganymede_http_request_duration_seconds: duration histogram by route, method
//   - ganymede_http_requests_in_flight: currently open requests
//   - ganymede_http_request_body_bytes: request body size histogram by route
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	requestBytes    *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers HTTP metrics with the provided
// registerer. A nil registerer leaves the collectors unregistered,
// which tests use to avoid registry collisions.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(reg)

	return &HTTPMetrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganymede_http_requests_total",
				Help: "Total number of HTTP requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "ganymede_http_request_duration_seconds",
				Help: "HTTP request duration in seconds, including stream time",
				// Extraction responses stream for seconds to minutes.
				Buckets: []float64{0.025, 0.1, 0.25, 1, 2.5, 10, 30, 60, 120, 300},
			},
			[]string{"route", "method"},
		),

		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ganymede_http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),

		requestBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "ganymede_http_request_body_bytes",
				Help: "Size of HTTP request bodies in bytes",
				// 1KB to 16MB; the server caps bodies at 10MB.
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"route"},
		),
	}
}

// RecordRequest records a completed request.
func (m *HTTPMetrics) RecordRequest(route, method string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// ObserveRequestSize records a request body size.
func (m *HTTPMetrics) ObserveRequestSize(route string, sizeBytes int64) {
	if sizeBytes > 0 {
		m.requestBytes.WithLabelValues(route).Observe(float64(sizeBytes))
	}
}

// IncInFlight marks a request as started.
func (m *HTTPMetrics) IncInFlight() {
	m.inFlight.Inc()
}

// DecInFlight marks a request as finished.
func (m *HTTPMetrics) DecInFlight() {
	m.inFlight.Dec()
}
