// Package logging provides structured logging with secret redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON and text formats
//   - Automatic credential redaction (API keys, bearer tokens, passwords)
//   - Context-aware logging with request, session, and identity fields
//   - Configurable log levels (debug, info, warn, error)
//
// Redaction and context extraction are slog.Handler wrappers, so they
// keep working in subsystems that receive the underlying *slog.Logger
// via Slog() rather than the Logger type itself.
//
// # Usage
//
//	// Create a logger
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//
//	// Log structured data
//	logger.Info("Session started",
//	    "request_id", "req-123",
//	    "api_key", "sk-abc123",  // Automatically redacted
//	    "input_chars", 48210,
//	)
//
//	// Context fields flow through automatically
//	ctx = logging.WithRequestID(ctx, "req-123")
//	ctx = logging.WithTeam(ctx, "team-alpha")
//	logger.InfoContext(ctx, "Processing")  // Includes request_id and team
//
// # Secret Redaction
//
// Credentials are masked in log fields when RedactSecrets is enabled:
//
//   - API keys: sk-abc123xyz → sk-***
//   - Bearer tokens: Bearer eyJhb... → Bearer ***
//   - Password assignments: password=hunter2 → password: ***
//
// Attributes whose key names a credential (api_key, authorization,
// token, secret, ...) are masked regardless of value content, keeping a
// four-character prefix for debugging.
//
// Transcript content never enters the logs; the audit trail stores a
// SHA-256 hash instead.
package logging
