// Package server provides the HTTP server for the extraction service.
//
// This package ties together the delivery components (handlers,
// middleware, health endpoints) and provides server lifecycle
// management including start, graceful shutdown, and signal handling.
//
// # Architecture
//
// The server package is the delivery layer only. It owns:
//   - HTTP routes and handlers
//   - The middleware chain for cross-cutting concerns
//   - Graceful shutdown with a configurable drain timeout
//   - OS signal handling (SIGTERM, SIGINT)
//
// Extraction itself lives in the pipeline runner the server is handed;
// the server never touches quota, compaction, or the upstream gateway
// directly.
//
// # Basic Usage
//
// Creating and starting a server:
//
//	import (
//	    "context"
//	    "mercator-hq/ganymede/pkg/config"
//	    "mercator-hq/ganymede/pkg/server"
//	)
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv, err := server.NewServer(&cfg.Server, server.Deps{
//	    Runner:    runner,
//	    Checker:   checker,
//	    Collector: collector,
//	    Version:   version,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Blocks until SIGTERM/SIGINT, context cancellation, or failure.
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Routes
//
// The server exposes the following HTTP endpoints:
//
//   - POST /v1/extractions - One extraction session, streamed as SSE
//   - GET /v1/extractions/ws - One extraction session over WebSocket
//   - GET /health - Liveness probe (always returns 200)
//   - GET /ready - Readiness probe (runs the registered component checks)
//   - GET /version - Build information
//   - GET /metrics - Prometheus exposition (only with a collector wired)
//
// # Middleware Chain
//
// Requests pass through the following middleware (innermost to outermost):
//  1. Timeout: attaches the session deadline to the request context
//  2. CORS: Cross-Origin Resource Sharing headers and preflights
//  3. RequestID: unique request ID for log and audit correlation
//  4. Metrics: Prometheus request instrumentation
//  5. Logging: one structured line per completed request
//  6. Recovery: recovers from panics and returns a 500 envelope
//
// # Graceful Shutdown
//
// On SIGTERM, SIGINT, or context cancellation the server stops
// accepting connections and waits up to the configured shutdown
// timeout for in-flight sessions to finish. Streams that outlive the
// timeout are cut.
//
// # Thread Safety
//
// All server operations are thread-safe and can be called concurrently
// from multiple goroutines.
package server
