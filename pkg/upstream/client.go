package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Client is a streaming HTTP client for the upstream generation API.
//
// A transport failure, at connect time or mid-stream, is terminal for the
// extraction session. The client never retries; retry policy belongs to
// the caller that owns the user-facing session.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates an upstream client with pooled connections.
func NewClient(config Config, logger *slog.Logger) *Client {
	config = config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
		// The overall client timeout would cut long streams short, so the
		// deadline here covers time to first byte only. The request context
		// bounds the stream itself.
		ResponseHeaderTimeout: config.Timeout,
	}

	return &Client{
		config: config,
		client: &http.Client{Transport: transport},
		logger: logger.With("component", "upstream", "upstream", config.Name),
	}
}

// Name returns the configured upstream name.
func (c *Client) Name() string {
	return c.config.Name
}

// Model returns the default model used when a request does not name one.
func (c *Client) Model() string {
	return c.config.Model
}

// Stream initiates a generation request and returns the token stream.
// Non-2xx responses are mapped to typed errors before any stream is
// returned, so a returned *Stream always carries a live response body.
func (c *Client) Stream(ctx context.Context, req *ExtractionRequest) (*Stream, error) {
	if req == nil {
		return nil, &UpstreamError{
			Provider: c.config.Name,
			Message:  "request cannot be nil",
		}
	}

	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	maxChars := req.MaxOutputChars
	if maxChars <= 0 {
		maxChars = DefaultMaxOutputChars
	}

	body, err := json.Marshal(&generateRequest{
		Model:          model,
		System:         req.System,
		Input:          req.Input,
		MaxOutputChars: maxChars,
		Stream:         true,
	})
	if err != nil {
		return nil, &UpstreamError{
			Provider: c.config.Name,
			Message:  "failed to marshal request",
			Cause:    err,
		}
	}

	url := c.config.BaseURL + "/v1/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{
			Provider: c.config.Name,
			Message:  "failed to create request",
			Cause:    err,
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TimeoutError{
				Provider: c.config.Name,
				Timeout:  c.config.Timeout,
			}
		}
		return nil, &UpstreamError{
			Provider: c.config.Name,
			Message:  "request failed",
			Cause:    err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, c.errorFromResponse(resp)
	}

	c.logger.Debug("Upstream stream opened",
		"model", model,
		"input_chars", len(req.Input),
		"ttfb_ms", time.Since(start).Milliseconds())

	return newStream(c.config.Name, resp), nil
}

// errorFromResponse maps a non-2xx response to a typed error.
func (c *Client) errorFromResponse(resp *http.Response) error {
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	message := parseErrorMessage(raw)
	if message == "" {
		if readErr != nil {
			message = fmt.Sprintf("failed to read error body: %v", readErr)
		} else {
			message = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{
			Provider: c.config.Name,
			Message:  message,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Provider:   c.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    message,
		}
	default:
		return &UpstreamError{
			Provider:   c.config.Name,
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}
}

// Close releases idle pooled connections.
func (c *Client) Close() error {
	if transport, ok := c.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}

// parseErrorMessage extracts the message from an upstream error body.
// Returns "" if the body is empty or not the expected shape.
func parseErrorMessage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var parsed errorResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Error.Message == "" {
		return string(bytes.TrimSpace(raw))
	}
	return parsed.Error.Message
}

// parseRetryAfter parses a Retry-After header value, which may be either
// a delay in seconds or an HTTP-date.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// IsRetryable reports whether the error indicates a condition the caller
// could reasonably retry on a later request. Auth failures are not
// retryable; rate limits and 5xx responses are.
func IsRetryable(err error) bool {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode >= 500
	}
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}
