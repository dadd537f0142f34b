// Package upstream provides a scriptable mock model gateway for tests.
package upstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockGateway is a mock HTTP server speaking the model gateway protocol:
// POST /v1/generate answering an SSE stream of delta frames terminated by
// the [DONE] sentinel. Tests script its behavior per run.
type MockGateway struct {
	server       *httptest.Server
	script       GatewayScript
	requests     []CapturedRequest
	requestCount int
	mu           sync.Mutex
}

// GatewayScript defines one scripted gateway behavior.
type GatewayScript struct {
	// StatusCode other than 200 short-circuits into an error response
	// carrying Body; Deltas are ignored.
	StatusCode int
	Body       string
	Headers    map[string]string

	// Deltas are streamed one SSE frame each, in order.
	Deltas []string

	// ChunkDelay sleeps between delta frames.
	ChunkDelay time.Duration

	// DropAfter closes the connection abruptly after that many deltas,
	// without the sentinel. Zero streams everything.
	DropAfter int

	// OmitDone ends the response cleanly but without the sentinel.
	OmitDone bool
}

// CapturedRequest is the decoded body of one generation call.
type CapturedRequest struct {
	Model          string `json:"model"`
	System         string `json:"system"`
	Input          string `json:"input"`
	MaxOutputChars int    `json:"max_output_chars"`
	Stream         bool   `json:"stream"`
}

// NewMockGateway creates a started mock gateway. Callers own Close.
func NewMockGateway() *MockGateway {
	mg := &MockGateway{}
	mg.server = httptest.NewServer(http.HandlerFunc(mg.handler))
	return mg
}

// URL returns the gateway's base URL, suitable for upstream.Config.BaseURL.
func (mg *MockGateway) URL() string {
	return mg.server.URL
}

// Close shuts the gateway down.
func (mg *MockGateway) Close() {
	mg.server.Close()
}

// SetScript installs the behavior for subsequent requests.
func (mg *MockGateway) SetScript(script GatewayScript) {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	mg.script = script
}

// RequestCount returns the number of generation calls received.
func (mg *MockGateway) RequestCount() int {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	return mg.requestCount
}

// LastRequest returns the most recent captured request body, or false when
// none arrived yet.
func (mg *MockGateway) LastRequest() (CapturedRequest, bool) {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	if len(mg.requests) == 0 {
		return CapturedRequest{}, false
	}
	return mg.requests[len(mg.requests)-1], true
}

func (mg *MockGateway) handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/generate" {
		http.NotFound(w, r)
		return
	}

	var captured CapturedRequest
	_ = json.NewDecoder(r.Body).Decode(&captured)

	mg.mu.Lock()
	mg.requestCount++
	mg.requests = append(mg.requests, captured)
	script := mg.script
	mg.mu.Unlock()

	for key, value := range script.Headers {
		w.Header().Set(key, value)
	}

	if script.StatusCode != 0 && script.StatusCode != http.StatusOK {
		w.WriteHeader(script.StatusCode)
		_, _ = w.Write([]byte(script.Body))
		return
	}

	mg.streamDeltas(w, script)
}

// streamDeltas writes the scripted deltas as SSE frames.
func (mg *MockGateway) streamDeltas(w http.ResponseWriter, script GatewayScript) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	for i, delta := range script.Deltas {
		if script.DropAfter > 0 && i >= script.DropAfter {
			if hj, ok := w.(http.Hijacker); ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
			}
			return
		}

		frame, _ := json.Marshal(struct {
			Delta string `json:"delta"`
		}{Delta: delta})
		fmt.Fprintf(w, "data: %s\n\n", frame)
		flusher.Flush()

		if script.ChunkDelay > 0 {
			time.Sleep(script.ChunkDelay)
		}
	}

	if !script.OmitDone {
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

// SectionLine renders one section record as the model emits it, newline
// terminated.
func SectionLine(id, content string) string {
	line, _ := json.Marshal(map[string]interface{}{
		"type":       "section",
		"sectionId":  id,
		"content":    content,
		"confidence": "high",
		"sources":    []string{},
	})
	return string(line) + "\n"
}

// CompleteLine renders the terminal complete record, newline terminated.
func CompleteLine(title string) string {
	line, _ := json.Marshal(map[string]interface{}{
		"type":           "complete",
		"suggestedTitle": title,
	})
	return string(line) + "\n"
}

// SplitIntoDeltas chops the concatenated lines into fixed-size fragments,
// deliberately splitting records mid-JSON the way a real gateway chunks its
// output.
func SplitIntoDeltas(size int, lines ...string) []string {
	if size < 1 {
		size = 1
	}
	var joined string
	for _, line := range lines {
		joined += line
	}

	var deltas []string
	for len(joined) > 0 {
		n := size
		if n > len(joined) {
			n = len(joined)
		}
		deltas = append(deltas, joined[:n])
		joined = joined[n:]
	}
	return deltas
}

// AuthErrorScript answers 401 with the gateway error envelope.
func AuthErrorScript() GatewayScript {
	return errorScript(http.StatusUnauthorized, "invalid api key", "auth")
}

// RateLimitScript answers 429 with a Retry-After header.
func RateLimitScript(retryAfterSeconds int) GatewayScript {
	script := errorScript(http.StatusTooManyRequests, "rate limit exceeded", "rate_limit")
	script.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfterSeconds),
	}
	return script
}

// ServerErrorScript answers 503 with a bare body.
func ServerErrorScript() GatewayScript {
	return GatewayScript{
		StatusCode: http.StatusServiceUnavailable,
		Body:       "overloaded",
	}
}

func errorScript(status int, message, errType string) GatewayScript {
	body, _ := json.Marshal(map[string]interface{}{
		"error": map[string]string{
			"message": message,
			"type":    errType,
		},
	})
	return GatewayScript{StatusCode: status, Body: string(body)}
}
