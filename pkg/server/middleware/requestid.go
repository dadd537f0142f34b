package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// RequestIDHeader is the header used for request IDs.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware ensures every request has a unique ID. A
// client-provided X-Request-ID is honored so callers can correlate
// retries; otherwise a new one is generated. The ID is stored on the
// request context twice: under RequestIDKey for handlers, and in the
// logging context so every slog line in the request path carries it.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logging.WithRequestID(ctx, requestID)

		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// generateRequestID creates a random 32-character hex request ID.
func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(bytes)
}

// GetRequestID retrieves the request ID from the context. Returns an
// empty string if not found.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
