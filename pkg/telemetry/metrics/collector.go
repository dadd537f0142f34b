package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus registry for a Ganymede process and the
// HTTP-surface metric families. Subsystems with their own metric
// families (pipeline sessions, quota admission) register against
// Registry() at wiring time, so one registry backs the whole /metrics
// endpoint without touching the global default registry.
type Collector struct {
	registry *prometheus.Registry

	// HTTP surface metrics, recorded by server middleware
	http *HTTPMetrics
}

// NewCollector creates a metrics collector. If registry is nil, a fresh
// private registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(nil)
//	pipelineMetrics := pipeline.NewMetrics(collector.Registry())
//	quotaMetrics := quota.NewMetrics(collector.Registry())
//	http.Handle("/metrics", collector.Handler())
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Collector{
		registry: registry,
		http:     NewHTTPMetrics(registry),
	}
}

// RecordRequest records a completed HTTP request.
//
// Parameters:
//   - route: mounted route pattern (e.g., "/v1/extractions")
//   - method: HTTP method
//   - status: response status code
//   - duration: total time to write the response, including streaming
func (c *Collector) RecordRequest(route, method string, status int, duration time.Duration) {
	c.http.RecordRequest(route, method, status, duration)
}

// ObserveRequestSize records the request body size for a route.
func (c *Collector) ObserveRequestSize(route string, sizeBytes int64) {
	c.http.ObserveRequestSize(route, sizeBytes)
}

// IncInFlight marks a request as started.
func (c *Collector) IncInFlight() {
	c.http.IncInFlight()
}

// DecInFlight marks a request as finished.
func (c *Collector) DecInFlight() {
	c.http.DecInFlight()
}

// Registry returns the Prometheus registry used by this collector.
// Subsystem metric constructors take it as their Registerer.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
