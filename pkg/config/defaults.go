package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = time.Duration(0) // streams are long-lived
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultSessionTimeout  = 300 * time.Second
	DefaultMaxHeaderBytes  = 1048576  // 1MB
	DefaultMaxBodyBytes    = 10485760 // 10MB
	DefaultEventBuffer     = 16

	// CORS defaults
	DefaultCORSEnabled          = true
	DefaultCORSMaxAge           = 3600 // 1 hour
	DefaultCORSAllowCredentials = false

	// Upstream defaults
	DefaultUpstreamName        = "model-gateway"
	DefaultUpstreamModel       = "ganymede-extract-1"
	DefaultUpstreamTimeout     = 30 * time.Second
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second

	// Quota defaults
	DefaultQuotaEnabled   = true
	DefaultMaxTokens      = 10
	DefaultRefillInterval = 6000 * time.Millisecond
	DefaultSweepInterval  = time.Hour
	DefaultStaleAfter     = time.Hour
	DefaultLedgerBackend  = "memory"
	DefaultLedgerPath     = "data/quota.db"

	// Compaction defaults
	DefaultTargetChars        = 50000
	DefaultPreserveTimestamps = false

	// Catalog defaults
	DefaultCatalogWatch     = false
	DefaultDebounceInterval = 100 * time.Millisecond

	// Audit defaults
	DefaultAuditEnabled         = true
	DefaultAuditBackend         = "sqlite"
	DefaultSQLitePath           = "data/audit.db"
	DefaultSQLiteMaxOpenConns   = 10
	DefaultSQLiteMaxIdleConns   = 5
	DefaultSQLiteWALMode        = true
	DefaultSQLiteBusyTimeout    = 5 * time.Second
	DefaultRecorderAsyncBuffer  = 1000
	DefaultRecorderWriteTimeout = 5 * time.Second
	DefaultRetentionDays        = 90
	DefaultRetentionSchedule    = "0 3 * * *"
	DefaultRetentionArchive     = false
	DefaultRetentionArchivePath = "data/archives/"
	DefaultRetentionMaxRecords  = int64(0)

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultRedactSecrets  = true
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
)

// DefaultConfig returns a fully populated configuration with every field
// at its default value. LoadConfig unmarshals the YAML file over this
// struct, so sections absent from the file keep their defaults. This is
// the only way enabled-by-default booleans survive an absent section: a
// zero-value fill after parsing cannot tell "unset" from an explicit
// false.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress:   DefaultListenAddress,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			SessionTimeout:  DefaultSessionTimeout,
			MaxHeaderBytes:  DefaultMaxHeaderBytes,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			EventBuffer:     DefaultEventBuffer,
			CORS: CORSConfig{
				Enabled:          DefaultCORSEnabled,
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID", "Last-Event-ID"},
				ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
				MaxAge:           DefaultCORSMaxAge,
				AllowCredentials: DefaultCORSAllowCredentials,
			},
		},
		Upstream: UpstreamConfig{
			Name:                DefaultUpstreamName,
			Model:               DefaultUpstreamModel,
			Timeout:             DefaultUpstreamTimeout,
			MaxIdleConns:        DefaultMaxIdleConns,
			MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
		},
		Quota: QuotaConfig{
			Enabled:        DefaultQuotaEnabled,
			MaxTokens:      DefaultMaxTokens,
			RefillInterval: DefaultRefillInterval,
			SweepInterval:  DefaultSweepInterval,
			StaleAfter:     DefaultStaleAfter,
			Ledger: LedgerConfig{
				Backend: DefaultLedgerBackend,
				Path:    DefaultLedgerPath,
			},
		},
		Compaction: CompactionConfig{
			TargetChars:        DefaultTargetChars,
			PreserveTimestamps: DefaultPreserveTimestamps,
		},
		Catalog: CatalogConfig{
			Watch:            DefaultCatalogWatch,
			DebounceInterval: DefaultDebounceInterval,
		},
		Audit: AuditConfig{
			Enabled: DefaultAuditEnabled,
			Backend: DefaultAuditBackend,
			SQLite: SQLiteConfig{
				Path:         DefaultSQLitePath,
				MaxOpenConns: DefaultSQLiteMaxOpenConns,
				MaxIdleConns: DefaultSQLiteMaxIdleConns,
				WALMode:      DefaultSQLiteWALMode,
				BusyTimeout:  DefaultSQLiteBusyTimeout,
			},
			Recorder: RecorderConfig{
				AsyncBuffer:  DefaultRecorderAsyncBuffer,
				WriteTimeout: DefaultRecorderWriteTimeout,
			},
			Retention: RetentionConfig{
				Days:                DefaultRetentionDays,
				PruneSchedule:       DefaultRetentionSchedule,
				ArchiveBeforeDelete: DefaultRetentionArchive,
				ArchivePath:         DefaultRetentionArchivePath,
				MaxRecords:          DefaultRetentionMaxRecords,
			},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:         DefaultLoggingLevel,
				Format:        DefaultLoggingFormat,
				RedactSecrets: DefaultRedactSecrets,
			},
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
				Path:    DefaultMetricsPath,
			},
		},
	}
}

// ApplyDefaults fills zero-valued fields with default values. It covers
// configs built in code rather than loaded from a file; booleans are
// left as they are (see DefaultConfig). This function is idempotent and
// safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.SessionTimeout == 0 {
		cfg.Server.SessionTimeout = DefaultSessionTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.EventBuffer == 0 {
		cfg.Server.EventBuffer = DefaultEventBuffer
	}
	applyCORSDefaults(&cfg.Server.CORS)

	// Upstream defaults
	if cfg.Upstream.Name == "" {
		cfg.Upstream.Name = DefaultUpstreamName
	}
	if cfg.Upstream.Model == "" {
		cfg.Upstream.Model = DefaultUpstreamModel
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if cfg.Upstream.MaxIdleConns == 0 {
		cfg.Upstream.MaxIdleConns = DefaultMaxIdleConns
	}
	if cfg.Upstream.MaxIdleConnsPerHost == 0 {
		cfg.Upstream.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if cfg.Upstream.IdleConnTimeout == 0 {
		cfg.Upstream.IdleConnTimeout = DefaultIdleConnTimeout
	}

	// Quota defaults
	if cfg.Quota.MaxTokens == 0 {
		cfg.Quota.MaxTokens = DefaultMaxTokens
	}
	if cfg.Quota.RefillInterval == 0 {
		cfg.Quota.RefillInterval = DefaultRefillInterval
	}
	if cfg.Quota.SweepInterval == 0 {
		cfg.Quota.SweepInterval = DefaultSweepInterval
	}
	if cfg.Quota.StaleAfter == 0 {
		cfg.Quota.StaleAfter = DefaultStaleAfter
	}
	if cfg.Quota.Ledger.Backend == "" {
		cfg.Quota.Ledger.Backend = DefaultLedgerBackend
	}
	if cfg.Quota.Ledger.Path == "" {
		cfg.Quota.Ledger.Path = DefaultLedgerPath
	}

	// Compaction defaults
	if cfg.Compaction.TargetChars == 0 {
		cfg.Compaction.TargetChars = DefaultTargetChars
	}

	// Catalog defaults
	if cfg.Catalog.DebounceInterval == 0 {
		cfg.Catalog.DebounceInterval = DefaultDebounceInterval
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Audit.Recorder.AsyncBuffer == 0 {
		cfg.Audit.Recorder.AsyncBuffer = DefaultRecorderAsyncBuffer
	}
	if cfg.Audit.Recorder.WriteTimeout == 0 {
		cfg.Audit.Recorder.WriteTimeout = DefaultRecorderWriteTimeout
	}
	if cfg.Audit.Retention.PruneSchedule == "" {
		cfg.Audit.Retention.PruneSchedule = DefaultRetentionSchedule
	}
	if cfg.Audit.Retention.ArchivePath == "" {
		cfg.Audit.Retention.ArchivePath = DefaultRetentionArchivePath
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// applyCORSDefaults fills empty CORS lists with defaults.
func applyCORSDefaults(cors *CORSConfig) {
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Request-ID", "Last-Event-ID"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}
