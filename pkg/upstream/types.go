package upstream

import "time"

// Default configuration values.
const (
	DefaultName                = "model-gateway"
	DefaultModel               = "ganymede-extract-1"
	DefaultTimeout             = 30 * time.Second
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultMaxOutputChars      = 32768
)

// Config holds the upstream client configuration.
type Config struct {
	// Name identifies the upstream in logs and errors.
	// Default: "model-gateway"
	Name string

	// BaseURL is the base URL of the upstream generation API.
	BaseURL string

	// APIKey is the bearer token sent with each request. Optional; when
	// empty no Authorization header is set.
	APIKey string

	// Model is the default model identifier for generation requests.
	// Default: "ganymede-extract-1"
	Model string

	// Timeout bounds the time from sending a request until the response
	// headers arrive. The stream body itself is bounded by the request
	// context, not by this value.
	// Default: 30s
	Timeout time.Duration

	// MaxIdleConns is the connection pool size across all hosts.
	// Default: 100
	MaxIdleConns int

	// MaxIdleConnsPerHost is the connection pool size per host.
	// Default: 10
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long idle connections are kept in the pool.
	// Default: 90s
	IdleConnTimeout time.Duration
}

// withDefaults returns a copy of the config with zero values replaced
// by defaults.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = DefaultIdleConnTimeout
	}
	return c
}

// ExtractionRequest describes a single structured-extraction call.
type ExtractionRequest struct {
	// System is the system prompt, typically assembled by BuildSystemPrompt.
	System string

	// Input is the transcript payload, typically assembled by BuildInput.
	Input string

	// Model overrides the configured default model when non-empty.
	Model string

	// MaxOutputChars caps the generated output length. Zero means the
	// client default.
	MaxOutputChars int
}

// generateRequest is the wire format of the upstream generation call.
type generateRequest struct {
	Model          string `json:"model"`
	System         string `json:"system"`
	Input          string `json:"input"`
	MaxOutputChars int    `json:"max_output_chars"`
	Stream         bool   `json:"stream"`
}

// streamChunk is the wire format of one SSE data payload.
type streamChunk struct {
	Delta string `json:"delta"`
}

// errorResponse is the wire format of an upstream error body.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
