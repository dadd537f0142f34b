package middleware

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware attaches a deadline to the request context. The
// handlers and the pipeline observe ctx.Done and abort the session
// themselves, which keeps the ResponseWriter single-owner; the
// streaming endpoints could not survive a middleware that races a
// second goroutine against the handler to write a 504.
//
// A timeout of zero or less disables the deadline entirely, which is
// what long-lived WebSocket deployments configure.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
