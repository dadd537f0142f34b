// Package metrics provides Prometheus metrics collection for Ganymede.
//
// # Overview
//
// The metrics package owns the process's Prometheus registry and the
// HTTP-surface metric families. Domain subsystems keep their own metric
// families next to their code (pipeline session outcomes, quota
// admission results) and register them against the collector's registry
// at wiring time. Nothing touches the global default registry.
//
// # Metric Families
//
//   - ganymede_http_requests_total: requests by route, method, status
//   - ganymede_http_request_duration_seconds: duration histogram
//   - ganymede_http_requests_in_flight: currently open requests
//   - ganymede_http_request_body_bytes: request body sizes
//
// Session and admission families (ganymede_pipeline_*, ganymede_quota_*)
// are defined in their packages and share this registry.
//
// # Usage
//
//	// Create collector and wire subsystems
//	collector := metrics.NewCollector(nil)
//	pipelineMetrics := pipeline.NewMetrics(collector.Registry())
//	quotaMetrics := quota.NewMetrics(collector.Registry())
//
//	// Record HTTP metrics from middleware
//	collector.IncInFlight()
//	defer collector.DecInFlight()
//	collector.RecordRequest("/v1/extractions", "POST", 200, elapsed)
//
//	// Expose the endpoint
//	http.Handle("/metrics", collector.Handler())
//
// # Cardinality
//
// Label values are drawn from fixed sets (mounted routes, HTTP methods,
// status codes, session outcomes), so cardinality stays bounded without
// a limiter.
package metrics
