package relay

import (
	"fmt"
	"net/http"

	"mercator-hq/ganymede/pkg/extraction"
)

// SetSSEHeaders sets the response headers for Server-Sent Events
// delivery. Call before the first write.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// SSEWriter delivers event frames over an SSE response. Each frame is
// written as one "data:" line and flushed immediately.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter wraps a response writer for SSE delivery. It fails when
// the writer cannot flush, which would buffer the stream and defeat
// incremental delivery.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, &WriteError{
			Transport: "sse",
			Cause:     fmt.Errorf("response writer does not support flushing"),
		}
	}
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent writes one event frame and flushes it.
func (s *SSEWriter) WriteEvent(event extraction.Event) error {
	frame, err := MarshalFrame(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", frame); err != nil {
		return &WriteError{Transport: "sse", Cause: err}
	}
	s.flusher.Flush()
	return nil
}

// WriteDone writes the stream-terminating sentinel and flushes it.
func (s *SSEWriter) WriteDone() error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", DoneSentinel); err != nil {
		return &WriteError{Transport: "sse", Cause: err}
	}
	s.flusher.Flush()
	return nil
}
