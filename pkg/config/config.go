package config

import "time"

// Config is the root configuration structure for Ganymede.
// It contains all configuration sections for the HTTP server, the
// upstream extraction gateway, quota admission, transcript compaction,
// the section catalog, audit storage, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, body limits, and CORS.
	Server ServerConfig `yaml:"server"`

	// Upstream contains configuration for the extraction model gateway.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Quota contains token-bucket admission configuration and the usage
	// ledger backend selection.
	Quota QuotaConfig `yaml:"quota"`

	// Compaction contains transcript compaction configuration including
	// the character budget.
	Compaction CompactionConfig `yaml:"compaction"`

	// Catalog contains section catalog configuration including the
	// optional catalog file and hot-reload settings.
	Catalog CatalogConfig `yaml:"catalog"`

	// Audit contains audit trail configuration including backend
	// selection, the async recorder, and retention.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains configuration for observability including
	// logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response. Extraction streams are long-lived, so the write
	// deadline stays disabled unless set explicitly.
	// Default: 0 (no write deadline)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown. Sessions still streaming after this timeout are cut off.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// SessionTimeout bounds one extraction session end to end, from
	// admission to the terminal event. A zero or negative value means
	// no timeout.
	// Default: 300s
	SessionTimeout time.Duration `yaml:"session_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes caps the inbound extraction request body. Requests
	// over the cap are rejected before JSON decoding.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// EventBuffer is the per-session event channel buffer. A slow
	// consumer stalls its own session once the buffer fills.
	// Default: 16
	EventBuffer int `yaml:"event_buffer"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS is enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins for CORS requests.
	// Use ["*"] to allow all origins (not recommended for production).
	// The WebSocket upgrader applies the same list.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers for CORS requests.
	// Default: ["Authorization", "Content-Type", "X-Request-ID", "Last-Event-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers that are exposed to the client.
	// Default: ["X-Request-ID", "X-RateLimit-Remaining", "Retry-After"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight request cache.
	// Default: 3600 (1 hour)
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls whether credentials (cookies, auth
	// headers) are allowed in CORS requests.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// UpstreamConfig contains configuration for the extraction model gateway.
type UpstreamConfig struct {
	// Name identifies the upstream in logs and errors.
	// Default: "model-gateway"
	Name string `yaml:"name"`

	// BaseURL is the base URL for the gateway's generation endpoint.
	// Example: "https://gateway.internal:9443"
	// Required.
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token sent with each request.
	// This should typically be loaded from an environment variable
	// (GANYMEDE_UPSTREAM_API_KEY). Empty disables the header.
	APIKey string `yaml:"api_key"`

	// Model is the default model identifier for extraction requests.
	// Default: "ganymede-extract-1"
	Model string `yaml:"model"`

	// Timeout bounds the time from sending a request until the response
	// headers arrive. The stream body is bounded by the session, not by
	// this value.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the connection pool size across all hosts.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the connection pool size per host.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle connections are kept in the pool.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// QuotaConfig contains token-bucket admission configuration.
type QuotaConfig struct {
	// Enabled controls whether quota admission is active. When false
	// every request is admitted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// MaxTokens is the bucket capacity per identity, which is also the
	// burst size.
	// Default: 10
	MaxTokens int `yaml:"max_tokens"`

	// RefillInterval is the time to earn one token back. Tokens refill
	// one per interval, never fractionally.
	// Default: 6s
	RefillInterval time.Duration `yaml:"refill_interval"`

	// SweepInterval is how often the background sweeper scans for stale
	// buckets.
	// Default: 1h
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// StaleAfter is the idle period after which a bucket is removed.
	// Default: 1h
	StaleAfter time.Duration `yaml:"stale_after"`

	// Ledger contains usage ledger configuration. The ledger counts
	// admitted and rejected checks per identity; it never affects
	// admission decisions.
	Ledger LedgerConfig `yaml:"ledger"`
}

// LedgerConfig contains usage ledger configuration.
type LedgerConfig struct {
	// Backend specifies the ledger storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Path is the database file path when Backend is "sqlite".
	// Default: "data/quota.db"
	Path string `yaml:"path"`
}

// CompactionConfig contains transcript compaction configuration.
type CompactionConfig struct {
	// TargetChars is the character budget the compactor reduces toward.
	// Inputs still over budget after aggressive reduction are rejected.
	// Default: 50000
	TargetChars int `yaml:"target_chars"`

	// PreserveTimestamps keeps caption timestamps in the compacted
	// output instead of stripping them.
	// Default: false
	PreserveTimestamps bool `yaml:"preserve_timestamps"`
}

// CatalogConfig contains section catalog configuration.
type CatalogConfig struct {
	// Path is the path to a YAML catalog file. Empty uses the built-in
	// catalog.
	// Default: "" (built-in catalog)
	Path string `yaml:"path"`

	// Watch enables automatic reloading when the catalog file changes.
	// Requires Path to be set.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period after a file event before
	// the catalog reloads.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// AuditConfig contains audit trail configuration.
type AuditConfig struct {
	// Enabled controls whether audit recording is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend specifies the storage backend for audit records.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains async recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains async audit recorder configuration.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing a record to storage, and
	// the longest a session will wait for buffer space before dropping
	// its record.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain audit records. Records older
	// than this are eligible for deletion.
	// 0 means keep records forever (no age pruning).
	// Default: 90
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete enables archiving records before deletion.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory to store archived records.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks credential-bearing attributes (api_key,
	// authorization, token) in log output.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
