package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access
// to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail. All validation errors
// are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateQuota(&cfg.Quota)...)
	errs = append(errs, validateCompaction(&cfg.Compaction)...)
	errs = append(errs, validateCatalog(&cfg.Catalog)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must not be negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must not be negative",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must not be negative",
		})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must not be negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must not be negative",
		})
	}

	if cfg.EventBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "server.event_buffer",
			Message: "event buffer must be at least 1",
		})
	}

	if cfg.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "server.cors.max_age",
			Message: "max age must not be negative",
		})
	}

	return errs
}

// validateUpstream validates upstream gateway configuration.
func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.base_url",
			Message: "base URL is required",
		})
	} else {
		u, err := url.Parse(cfg.BaseURL)
		switch {
		case err != nil:
			errs = append(errs, FieldError{
				Field:   "upstream.base_url",
				Message: fmt.Sprintf("invalid URL format: %v", err),
			})
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, FieldError{
				Field:   "upstream.base_url",
				Message: fmt.Sprintf("unsupported scheme %q (must be http or https)", u.Scheme),
			})
		}
	}

	if cfg.Model == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.model",
			Message: "model is required",
		})
	}

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}

// validateQuota validates quota admission configuration.
func validateQuota(cfg *QuotaConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxTokens < 1 {
		errs = append(errs, FieldError{
			Field:   "quota.max_tokens",
			Message: "max tokens must be at least 1",
		})
	}
	if cfg.RefillInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "quota.refill_interval",
			Message: "refill interval must be positive",
		})
	}
	if cfg.SweepInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "quota.sweep_interval",
			Message: "sweep interval must be positive",
		})
	}
	if cfg.StaleAfter <= 0 {
		errs = append(errs, FieldError{
			Field:   "quota.stale_after",
			Message: "stale after must be positive",
		})
	}

	switch cfg.Ledger.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "quota.ledger.backend",
			Message: fmt.Sprintf("unknown backend %q (must be \"memory\" or \"sqlite\")", cfg.Ledger.Backend),
		})
	}
	if cfg.Ledger.Backend == "sqlite" && cfg.Ledger.Path == "" {
		errs = append(errs, FieldError{
			Field:   "quota.ledger.path",
			Message: "path is required for the sqlite backend",
		})
	}

	return errs
}

// validateCompaction validates compaction configuration.
func validateCompaction(cfg *CompactionConfig) []FieldError {
	var errs []FieldError

	if cfg.TargetChars < 1 {
		errs = append(errs, FieldError{
			Field:   "compaction.target_chars",
			Message: "target chars must be at least 1",
		})
	}

	return errs
}

// validateCatalog validates catalog configuration.
func validateCatalog(cfg *CatalogConfig) []FieldError {
	var errs []FieldError

	if cfg.Watch && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "catalog.watch",
			Message: "watch requires a catalog path (the built-in catalog cannot be watched)",
		})
	}
	if cfg.DebounceInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "catalog.debounce_interval",
			Message: "debounce interval must not be negative",
		})
	}

	return errs
}

// validateAudit validates audit configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("unknown backend %q (must be \"sqlite\" or \"memory\")", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.path",
			Message: "path is required for the sqlite backend",
		})
	}

	if cfg.SQLite.MaxOpenConns < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.max_open_conns",
			Message: "max open conns must be at least 1",
		})
	}
	if cfg.SQLite.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.max_idle_conns",
			Message: "max idle conns must not be negative",
		})
	}

	if cfg.Recorder.AsyncBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.recorder.async_buffer",
			Message: "async buffer must be at least 1",
		})
	}
	if cfg.Recorder.WriteTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "audit.recorder.write_timeout",
			Message: "write timeout must be positive",
		})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.days",
			Message: "retention days must not be negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.max_records",
			Message: "max records must not be negative",
		})
	}
	pruning := cfg.Retention.Days > 0 || cfg.Retention.MaxRecords > 0
	if pruning && cfg.Retention.PruneSchedule == "" {
		errs = append(errs, FieldError{
			Field:   "audit.retention.prune_schedule",
			Message: "prune schedule is required when retention is active",
		})
	}
	if cfg.Retention.ArchiveBeforeDelete && cfg.Retention.ArchivePath == "" {
		errs = append(errs, FieldError{
			Field:   "audit.retention.archive_path",
			Message: "archive path is required when archive before delete is enabled",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "path must start with /",
		})
	}

	return errs
}
