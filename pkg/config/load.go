package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is unmarshaled over a fully defaulted configuration, so
// sections absent from the file keep their defaults and explicit values
// (including explicit false) win. The result is validated before it is
// returned. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Refill fields the file explicitly set to empty.
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow
// the naming convention GANYMEDE_SECTION_FIELD (e.g.
// GANYMEDE_SERVER_LISTEN_ADDRESS) and always take precedence over
// file-based configuration.
//
// The loading sequence is:
//  1. Seed defaults
//  2. Unmarshal YAML from file
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Unparseable values are ignored; validation afterwards
// catches anything that matters.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("GANYMEDE_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("GANYMEDE_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("GANYMEDE_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("GANYMEDE_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("GANYMEDE_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envDuration("GANYMEDE_SERVER_SESSION_TIMEOUT", &cfg.Server.SessionTimeout)
	envInt("GANYMEDE_SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	envInt64("GANYMEDE_SERVER_MAX_BODY_BYTES", &cfg.Server.MaxBodyBytes)
	envInt("GANYMEDE_SERVER_EVENT_BUFFER", &cfg.Server.EventBuffer)
	envBool("GANYMEDE_SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)

	// Upstream overrides
	envString("GANYMEDE_UPSTREAM_NAME", &cfg.Upstream.Name)
	envString("GANYMEDE_UPSTREAM_BASE_URL", &cfg.Upstream.BaseURL)
	envString("GANYMEDE_UPSTREAM_API_KEY", &cfg.Upstream.APIKey)
	envString("GANYMEDE_UPSTREAM_MODEL", &cfg.Upstream.Model)
	envDuration("GANYMEDE_UPSTREAM_TIMEOUT", &cfg.Upstream.Timeout)

	// Quota overrides
	envBool("GANYMEDE_QUOTA_ENABLED", &cfg.Quota.Enabled)
	envInt("GANYMEDE_QUOTA_MAX_TOKENS", &cfg.Quota.MaxTokens)
	envDuration("GANYMEDE_QUOTA_REFILL_INTERVAL", &cfg.Quota.RefillInterval)
	envDuration("GANYMEDE_QUOTA_SWEEP_INTERVAL", &cfg.Quota.SweepInterval)
	envDuration("GANYMEDE_QUOTA_STALE_AFTER", &cfg.Quota.StaleAfter)
	envString("GANYMEDE_QUOTA_LEDGER_BACKEND", &cfg.Quota.Ledger.Backend)
	envString("GANYMEDE_QUOTA_LEDGER_PATH", &cfg.Quota.Ledger.Path)

	// Compaction overrides
	envInt("GANYMEDE_COMPACTION_TARGET_CHARS", &cfg.Compaction.TargetChars)
	envBool("GANYMEDE_COMPACTION_PRESERVE_TIMESTAMPS", &cfg.Compaction.PreserveTimestamps)

	// Catalog overrides
	envString("GANYMEDE_CATALOG_PATH", &cfg.Catalog.Path)
	envBool("GANYMEDE_CATALOG_WATCH", &cfg.Catalog.Watch)
	envDuration("GANYMEDE_CATALOG_DEBOUNCE_INTERVAL", &cfg.Catalog.DebounceInterval)

	// Audit overrides
	envBool("GANYMEDE_AUDIT_ENABLED", &cfg.Audit.Enabled)
	envString("GANYMEDE_AUDIT_BACKEND", &cfg.Audit.Backend)
	envString("GANYMEDE_AUDIT_SQLITE_PATH", &cfg.Audit.SQLite.Path)
	envInt("GANYMEDE_AUDIT_RECORDER_ASYNC_BUFFER", &cfg.Audit.Recorder.AsyncBuffer)
	envDuration("GANYMEDE_AUDIT_RECORDER_WRITE_TIMEOUT", &cfg.Audit.Recorder.WriteTimeout)
	envInt("GANYMEDE_AUDIT_RETENTION_DAYS", &cfg.Audit.Retention.Days)
	envString("GANYMEDE_AUDIT_RETENTION_SCHEDULE", &cfg.Audit.Retention.PruneSchedule)
	envInt64("GANYMEDE_AUDIT_RETENTION_MAX_RECORDS", &cfg.Audit.Retention.MaxRecords)

	// Telemetry overrides
	envString("GANYMEDE_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("GANYMEDE_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("GANYMEDE_TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("GANYMEDE_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("GANYMEDE_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
}

func envString(key string, target *string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

func envBool(key string, target *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*target = b
		}
	}
}

func envInt(key string, target *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*target = i
		}
	}
}

func envInt64(key string, target *int64) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			*target = i
		}
	}
}

func envDuration(key string, target *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*target = d
		}
	}
}
