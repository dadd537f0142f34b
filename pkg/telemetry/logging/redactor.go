package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials in log output. It does not attempt general
// PII scrubbing: transcripts never enter the logs, so the threat model
// is leaked API keys, bearer tokens, and passwords.
type Redactor struct {
	patterns []*secretPattern
}

// secretPattern contains a compiled regex and replacement string.
type secretPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in secret pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
)

// NewRedactor creates a Redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*secretPattern{
			{
				// Gateway keys (sk- prefix) and inline api_key assignments.
				name:        PatternAPIKey,
				regex:       regexp.MustCompile(`(sk-[a-zA-Z0-9]+|api[-_]?key[-_:=]\s*[a-zA-Z0-9]+)`),
				replacement: "sk-***",
			},
			{
				name:        PatternBearerToken,
				regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
				replacement: "Bearer ***",
			},
			{
				name:        PatternPassword,
				regex:       regexp.MustCompile(`(password|passwd|pwd)[:=]\s*[^\s]+`),
				replacement: "$1: ***",
			},
		},
	}
}

// RedactString masks credential patterns in a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}

	return redacted
}

// isSensitiveKey checks if a key name indicates credential-bearing data.
func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	// Admission token counters ("tokens", "token_count") are not
	// credentials, so "token" only matches exactly or as a suffix.
	if lowerKey == "token" || strings.HasSuffix(lowerKey, "_token") {
		return true
	}

	sensitiveKeys := []string{
		"password", "passwd", "pwd",
		"secret", "api_key", "apikey",
		"auth", "authorization",
		"private_key", "privatekey",
		"credential",
	}

	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	return false
}

// maskValue redacts a sensitive value completely, keeping a short prefix
// for debugging.
func maskValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "***"
	}
	return value[:4] + "***"
}

// RedactingHandler is a slog.Handler that masks credentials in records
// before passing them to the wrapped handler. Both the message and all
// attribute values are scanned; attributes whose key names a credential
// are masked regardless of value content.
type RedactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

// NewRedactingHandler wraps a handler with credential redaction.
func NewRedactingHandler(inner slog.Handler, redactor *Redactor) *RedactingHandler {
	return &RedactingHandler{inner: inner, redactor: redactor}
}

// Enabled reports whether the wrapped handler handles records at the
// given level.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle redacts the record and passes it on.
func (h *RedactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, h.redactor.RedactString(rec.Message), rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

// WithAttrs redacts bound attributes once, at bind time.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

// WithGroup opens a group on the wrapped handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

// redactAttr redacts a single attribute, recursing into groups.
func (h *RedactingHandler) redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, ga := range group {
			redacted[i] = h.redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if h.redactor.isSensitiveKey(a.Key) {
		if a.Value.Kind() == slog.KindString {
			return slog.String(a.Key, maskValue(a.Value.String()))
		}
		return slog.String(a.Key, "***")
	}

	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, h.redactor.RedactString(a.Value.String()))
	}

	return a
}
