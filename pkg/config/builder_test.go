package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in
// tests. It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for
// testing. The resulting configuration is valid and can be used
// immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := DefaultConfig()
	cfg.Upstream.BaseURL = "https://gateway.test:9443"
	cfg.Upstream.APIKey = "test-key"
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithReadTimeout sets the server read timeout.
func (b *ConfigBuilder) WithReadTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Server.ReadTimeout = d
	return b
}

// WithEventBuffer sets the per-session event channel buffer.
func (b *ConfigBuilder) WithEventBuffer(n int) *ConfigBuilder {
	b.cfg.Server.EventBuffer = n
	return b
}

// WithUpstreamBaseURL sets the upstream gateway base URL.
func (b *ConfigBuilder) WithUpstreamBaseURL(url string) *ConfigBuilder {
	b.cfg.Upstream.BaseURL = url
	return b
}

// WithUpstreamModel sets the default extraction model.
func (b *ConfigBuilder) WithUpstreamModel(model string) *ConfigBuilder {
	b.cfg.Upstream.Model = model
	return b
}

// WithQuota sets the bucket capacity and refill interval.
func (b *ConfigBuilder) WithQuota(maxTokens int, refill time.Duration) *ConfigBuilder {
	b.cfg.Quota.MaxTokens = maxTokens
	b.cfg.Quota.RefillInterval = refill
	return b
}

// WithQuotaLedger sets the usage ledger backend and path.
func (b *ConfigBuilder) WithQuotaLedger(backend, path string) *ConfigBuilder {
	b.cfg.Quota.Ledger.Backend = backend
	b.cfg.Quota.Ledger.Path = path
	return b
}

// WithTargetChars sets the compaction character budget.
func (b *ConfigBuilder) WithTargetChars(n int) *ConfigBuilder {
	b.cfg.Compaction.TargetChars = n
	return b
}

// WithCatalog sets the catalog file path and watch mode.
func (b *ConfigBuilder) WithCatalog(path string, watch bool) *ConfigBuilder {
	b.cfg.Catalog.Path = path
	b.cfg.Catalog.Watch = watch
	return b
}

// WithAuditEnabled toggles audit recording.
func (b *ConfigBuilder) WithAuditEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Audit.Enabled = enabled
	return b
}

// WithAuditBackend sets the audit storage backend.
func (b *ConfigBuilder) WithAuditBackend(backend string) *ConfigBuilder {
	b.cfg.Audit.Backend = backend
	return b
}

// WithSQLitePath sets the audit SQLite database path.
func (b *ConfigBuilder) WithSQLitePath(path string) *ConfigBuilder {
	b.cfg.Audit.SQLite.Path = path
	return b
}

// WithRetentionDays sets the audit retention window.
func (b *ConfigBuilder) WithRetentionDays(days int) *ConfigBuilder {
	b.cfg.Audit.Retention.Days = days
	return b
}

// WithLoggingLevel sets the minimum log level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithLoggingFormat sets the log output format.
func (b *ConfigBuilder) WithLoggingFormat(format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Format = format
	return b
}

// WithMetricsEnabled toggles the metrics endpoint.
func (b *ConfigBuilder) WithMetricsEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Telemetry.Metrics.Enabled = enabled
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
// This is useful for tests that don't care about most configuration values.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
