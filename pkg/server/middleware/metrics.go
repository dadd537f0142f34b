package middleware

import (
	"net/http"
	"time"

	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// knownRoutes is the fixed set of route labels. Anything else is
// collapsed to "other" so scanners probing random paths cannot blow up
// label cardinality.
var knownRoutes = map[string]struct{}{
	"/v1/extractions":    {},
	"/v1/extractions/ws": {},
	"/health":            {},
	"/ready":             {},
	"/version":           {},
	"/metrics":           {},
}

// MetricsMiddleware records the request counter, latency histogram,
// in-flight gauge and request body size for every request.
func MetricsMiddleware(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if collector == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := normalizeRoute(r.URL.Path)

			collector.IncInFlight()
			defer collector.DecInFlight()

			collector.ObserveRequestSize(route, r.ContentLength)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			collector.RecordRequest(route, r.Method, rw.statusCode, time.Since(start))
		})
	}
}

// normalizeRoute maps a request path to its metric label.
func normalizeRoute(path string) string {
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	return "other"
}
