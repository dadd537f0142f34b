package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := writeConfigFile(t, `
server:
  listen_address: "0.0.0.0:8080"
  read_timeout: "60s"
  event_buffer: 32

upstream:
  base_url: "https://gateway.internal:9443"
  api_key: "test-key-123"
  model: "extract-v2"
  timeout: "45s"

quota:
  max_tokens: 4
  refill_interval: "3s"

compaction:
  target_chars: 30000

audit:
  backend: "sqlite"
  sqlite:
    path: "./test-audit.db"

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:8080", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.EventBuffer != 32 {
		t.Errorf("expected event buffer 32, got %d", cfg.Server.EventBuffer)
	}

	if cfg.Upstream.APIKey != "test-key-123" {
		t.Errorf("expected API key %q, got %q", "test-key-123", cfg.Upstream.APIKey)
	}
	if cfg.Upstream.Model != "extract-v2" {
		t.Errorf("expected model %q, got %q", "extract-v2", cfg.Upstream.Model)
	}
	if cfg.Upstream.Timeout != 45*time.Second {
		t.Errorf("expected upstream timeout %v, got %v", 45*time.Second, cfg.Upstream.Timeout)
	}

	if cfg.Quota.MaxTokens != 4 {
		t.Errorf("expected max tokens 4, got %d", cfg.Quota.MaxTokens)
	}
	if cfg.Quota.RefillInterval != 3*time.Second {
		t.Errorf("expected refill interval %v, got %v", 3*time.Second, cfg.Quota.RefillInterval)
	}

	if cfg.Compaction.TargetChars != 30000 {
		t.Errorf("expected target chars 30000, got %d", cfg.Compaction.TargetChars)
	}

	if cfg.Audit.SQLite.Path != "./test-audit.db" {
		t.Errorf("expected sqlite path %q, got %q", "./test-audit.db", cfg.Audit.SQLite.Path)
	}

	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("expected logging format %q, got %q", "text", cfg.Telemetry.Logging.Format)
	}
}

func TestLoadConfig_AbsentSectionsKeepDefaults(t *testing.T) {
	configPath := writeConfigFile(t, `
upstream:
  base_url: "https://gateway.internal:9443"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Quota.Enabled {
		t.Error("expected quota to stay enabled when the section is absent")
	}
	if !cfg.Audit.Enabled {
		t.Error("expected audit to stay enabled when the section is absent")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to stay enabled when the section is absent")
	}
	if cfg.Quota.MaxTokens != DefaultMaxTokens {
		t.Errorf("expected default max tokens, got %d", cfg.Quota.MaxTokens)
	}
	if cfg.Audit.Retention.Days != DefaultRetentionDays {
		t.Errorf("expected default retention days, got %d", cfg.Audit.Retention.Days)
	}
}

func TestLoadConfig_ExplicitFalseWins(t *testing.T) {
	configPath := writeConfigFile(t, `
upstream:
  base_url: "https://gateway.internal:9443"

quota:
  enabled: false

audit:
  enabled: false

telemetry:
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Quota.Enabled {
		t.Error("expected explicit quota.enabled=false to survive defaulting")
	}
	if cfg.Audit.Enabled {
		t.Error("expected explicit audit.enabled=false to survive defaulting")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected explicit metrics.enabled=false to survive defaulting")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "no such file or directory") {
		t.Errorf("expected file not found error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	configPath := writeConfigFile(t, `
server:
  listen_address: "0.0.0.0:8080"
  invalid yaml here: [
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	// No upstream base URL and a bad logging level.
	configPath := writeConfigFile(t, `
server:
  listen_address: "0.0.0.0:8080"

telemetry:
  logging:
    level: "loud"
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError in error chain, got %T: %v", err, err)
	}
	if len(validationErr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(validationErr.Errors), validationErr)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	configPath := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:8080"

upstream:
  base_url: "https://gateway.internal:9443"
  api_key: "file-key"

telemetry:
  logging:
    level: "info"
`)

	os.Setenv("GANYMEDE_SERVER_LISTEN_ADDRESS", "0.0.0.0:9090")
	os.Setenv("GANYMEDE_UPSTREAM_API_KEY", "env-key-override")
	os.Setenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL", "debug")
	defer func() {
		os.Unsetenv("GANYMEDE_SERVER_LISTEN_ADDRESS")
		os.Unsetenv("GANYMEDE_UPSTREAM_API_KEY")
		os.Unsetenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q from env, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Upstream.APIKey != "env-key-override" {
		t.Errorf("expected API key %q from env, got %q", "env-key-override", cfg.Upstream.APIKey)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q from env, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_TypedParsing(t *testing.T) {
	configPath := writeConfigFile(t, `
upstream:
  base_url: "https://gateway.internal:9443"

quota:
  max_tokens: 10
`)

	os.Setenv("GANYMEDE_QUOTA_MAX_TOKENS", "3")
	os.Setenv("GANYMEDE_QUOTA_REFILL_INTERVAL", "250ms")
	os.Setenv("GANYMEDE_QUOTA_ENABLED", "false")
	os.Setenv("GANYMEDE_SERVER_MAX_BODY_BYTES", "2097152")
	defer func() {
		os.Unsetenv("GANYMEDE_QUOTA_MAX_TOKENS")
		os.Unsetenv("GANYMEDE_QUOTA_REFILL_INTERVAL")
		os.Unsetenv("GANYMEDE_QUOTA_ENABLED")
		os.Unsetenv("GANYMEDE_SERVER_MAX_BODY_BYTES")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Quota.MaxTokens != 3 {
		t.Errorf("expected max tokens 3 from env, got %d", cfg.Quota.MaxTokens)
	}
	if cfg.Quota.RefillInterval != 250*time.Millisecond {
		t.Errorf("expected refill interval 250ms from env, got %v", cfg.Quota.RefillInterval)
	}
	if cfg.Quota.Enabled {
		t.Error("expected quota disabled from env")
	}
	if cfg.Server.MaxBodyBytes != 2097152 {
		t.Errorf("expected max body bytes 2097152 from env, got %d", cfg.Server.MaxBodyBytes)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnvValues(t *testing.T) {
	configPath := writeConfigFile(t, `
upstream:
  base_url: "https://gateway.internal:9443"
`)

	// Unparseable numbers are ignored; a bad level must still fail
	// validation afterwards.
	os.Setenv("GANYMEDE_QUOTA_MAX_TOKENS", "not-a-number")
	os.Setenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL", "shouting")
	defer func() {
		os.Unsetenv("GANYMEDE_QUOTA_MAX_TOKENS")
		os.Unsetenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL")
	}()

	_, err := LoadConfigWithEnvOverrides(configPath)
	if err == nil {
		t.Error("expected validation error for invalid env values")
	}
}
