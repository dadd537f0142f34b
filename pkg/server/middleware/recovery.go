package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/ganymede/pkg/server/types"
)

// RecoveryMiddleware recovers from panics in the handler chain, logs
// the stack, and answers with a generic 500 so the connection is not
// torn down mid-handshake. It sits outermost so nothing escapes it.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", err),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)

				errResp := types.NewServerError("An internal error occurred. Please try again later.")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				if encodeErr := json.NewEncoder(w).Encode(errResp); encodeErr != nil {
					slog.ErrorContext(r.Context(), "failed to encode panic response",
						slog.String("error", encodeErr.Error()),
					)
				}
			}
		}()

		next.ServeHTTP(w, r)
	})
}
