// Package config provides configuration management for Ganymede.
//
// This package handles loading, validating, and managing configuration
// from YAML files with environment variable overrides. It provides a
// type-safe configuration system with comprehensive validation and
// sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention
// GANYMEDE_SECTION_FIELD. For example:
//
//   - GANYMEDE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - GANYMEDE_UPSTREAM_API_KEY overrides upstream.api_key
//   - GANYMEDE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based
// configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later
// overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// The YAML file is unmarshaled over a fully defaulted Config, so
// sections absent from the file keep their defaults and an explicit
// `enabled: false` still wins over an enabled-by-default section.
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Server.ListenAddress)
//
// For testing, prefer dependency injection with explicit Config
// instances rather than the global singleton.
//
// # Validation
//
// All configuration is validated automatically during loading.
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - upstream.base_url: base URL is required
//	  - quota.max_tokens: max tokens must be at least 1
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	server:
//	  listen_address: "127.0.0.1:8080"
//
//	upstream:
//	  base_url: "https://gateway.internal:9443"
//	  api_key: "${GANYMEDE_UPSTREAM_API_KEY}"
//	  model: "ganymede-extract-1"
//
//	quota:
//	  max_tokens: 10
//	  refill_interval: "6s"
//
//	audit:
//	  enabled: true
//	  backend: "sqlite"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses
// read-write locks to allow concurrent reads while protecting against
// concurrent writes during reload operations.
package config
