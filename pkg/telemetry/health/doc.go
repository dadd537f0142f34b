// Package health provides liveness and readiness probes for Ganymede.
//
// # Overview
//
// The health package implements the probe endpoints orchestration systems
// poll to decide whether to restart the process or route traffic to it.
// Components register check functions at startup and the readiness probe
// aggregates them on every request.
//
// # Endpoints
//
//   - /health: Liveness probe - indicates if the process is running
//   - /ready: Readiness probe - indicates if the system can serve traffic
//   - /version: Build information - version, commit, build time
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//
//	// Register component checks
//	checker.RegisterCheck("catalog", func(ctx context.Context) error {
//	    if manager.Current() == nil {
//	        return errors.New("no prompt catalog loaded")
//	    }
//	    return nil
//	})
//	checker.RegisterCheck("audit", func(ctx context.Context) error {
//	    return store.Ping(ctx)
//	})
//
//	// Add HTTP handlers
//	http.HandleFunc("/health", checker.LivenessHandler())
//	http.HandleFunc("/ready", checker.ReadinessHandler())
//	http.HandleFunc("/version", health.VersionHandler("1.0.0", "abc123", "2026-08-25"))
//
// # Liveness vs Readiness
//
// The liveness probe (/health) only reports that the process is alive. It
// never runs component checks, so a stuck audit database cannot cause a
// restart loop.
//
// The readiness probe (/ready) runs every registered check concurrently,
// each under the configured per-check timeout. Any failing component
// degrades the report and the endpoint answers 503, which takes the
// instance out of rotation without killing in-flight extractions.
//
// Common component checks:
//   - catalog: a prompt catalog version is loaded
//   - audit: the audit store answers a ping
//   - ledger: the quota ledger backend is reachable
//
// # Example Responses
//
// Readiness response (/ready):
//
//	{
//	    "status": "ready",
//	    "checks": {
//	        "catalog": {"status": "ok", "duration_ms": 0.1},
//	        "audit": {"status": "ok", "duration_ms": 5.2},
//	        "ledger": {"status": "ok", "duration_ms": 0.3}
//	    },
//	    "timestamp": "2026-08-25T10:30:00Z"
//	}
//
// Degraded response (/ready):
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "catalog": {"status": "ok"},
//	        "audit": {"status": "unhealthy", "message": "database is locked"}
//	    },
//	    "timestamp": "2026-08-25T10:30:00Z"
//	}
package health
