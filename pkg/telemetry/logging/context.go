package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// TeamKey is the context key for team identifiers.
	TeamKey contextKey = "team"

	// UserKey is the context key for user identifiers.
	UserKey contextKey = "user"

	// SessionKey is the context key for extraction session identifiers.
	SessionKey contextKey = "session"

	// ModelKey is the context key for upstream model names.
	ModelKey contextKey = "model"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithTeam adds a team identifier to the context.
func WithTeam(ctx context.Context, team string) context.Context {
	return context.WithValue(ctx, TeamKey, team)
}

// GetTeam retrieves the team identifier from the context.
func GetTeam(ctx context.Context) string {
	if team, ok := ctx.Value(TeamKey).(string); ok {
		return team
	}
	return ""
}

// WithUser adds a user identifier to the context.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser retrieves the user identifier from the context.
func GetUser(ctx context.Context) string {
	if user, ok := ctx.Value(UserKey).(string); ok {
		return user
	}
	return ""
}

// WithSession adds a session identifier to the context.
func WithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// GetSession retrieves the session identifier from the context.
func GetSession(ctx context.Context) string {
	if session, ok := ctx.Value(SessionKey).(string); ok {
		return session
	}
	return ""
}

// WithModel adds a model name to the context.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// GetModel retrieves the model name from the context.
func GetModel(ctx context.Context) string {
	if model, ok := ctx.Value(ModelKey).(string); ok {
		return model
	}
	return ""
}

// contextAttrs extracts the known context fields as slog attributes.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if requestID := GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if team := GetTeam(ctx); team != "" {
		attrs = append(attrs, slog.String("team", team))
	}
	if user := GetUser(ctx); user != "" {
		attrs = append(attrs, slog.String("user", user))
	}
	if session := GetSession(ctx); session != "" {
		attrs = append(attrs, slog.String("session", session))
	}
	if model := GetModel(ctx); model != "" {
		attrs = append(attrs, slog.String("model", model))
	}

	return attrs
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	attrs := contextAttrs(ctx)
	if len(attrs) == 0 {
		return nil
	}

	fields := make([]any, 0, len(attrs))
	for _, a := range attrs {
		fields = append(fields, a)
	}
	return fields
}

// contextHandler is a slog.Handler that appends the context's known
// fields to every record, so l.InfoContext(ctx, ...) carries request and
// identity attributes without callers threading them through.
type contextHandler struct {
	inner slog.Handler
}

func newContextHandler(inner slog.Handler) *contextHandler {
	return &contextHandler{inner: inner}
}

// Enabled reports whether the wrapped handler handles records at the
// given level.
func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle appends context fields and passes the record on.
func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		rec = rec.Clone()
		rec.AddAttrs(attrs...)
	}
	return h.inner.Handle(ctx, rec)
}

// WithAttrs binds attributes on the wrapped handler.
func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup opens a group on the wrapped handler.
func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name)}
}
