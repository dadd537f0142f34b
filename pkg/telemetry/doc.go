// Package telemetry provides observability for Ganymede.
//
// # Overview
//
// The telemetry package implements structured logging, Prometheus metrics,
// and health check endpoints. It provides visibility into extraction
// runtime behavior while keeping the hot path cheap.
//
// # Components
//
//   - logging: Structured logging with secret redaction
//   - metrics: Prometheus metrics collection and exposition
//   - health: Liveness and readiness probes
//
// # Usage
//
//	// Build the logger from configuration
//	logger, err := logging.New(logging.Config{
//	    Level:         cfg.Telemetry.Logging.Level,
//	    Format:        logging.LogFormat(cfg.Telemetry.Logging.Format),
//	    RedactSecrets: cfg.Telemetry.Logging.RedactSecrets,
//	})
//
//	// Wire the metrics collector and register domain metrics against it
//	collector := metrics.NewCollector(nil)
//	pipelineMetrics := pipeline.NewMetrics(collector.Registry())
//
//	// Mount the probe endpoints
//	checker := health.New(5 * time.Second)
//	mux.HandleFunc("/health", checker.LivenessHandler())
//	mux.HandleFunc("/ready", checker.ReadinessHandler())
//	mux.Handle("/metrics", collector.Handler())
//
// # Secret Protection
//
// With redaction enabled, credentials never reach the log output:
//
//   - API keys: sk-abc123 becomes sk-***
//   - Bearer tokens: Authorization values become Bearer ***
//   - Sensitive attribute keys (api_key, password, authorization) are masked
//
// Transcript content is never logged at any level; the audit trail records
// a SHA-256 hash of the input instead.
package telemetry
