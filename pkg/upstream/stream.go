package upstream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// doneSentinel terminates the SSE stream.
const doneSentinel = "[DONE]"

// Stream reads text deltas from an upstream SSE response.
type Stream struct {
	provider string
	resp     *http.Response
	scanner  *bufio.Scanner
	closed   bool
}

// newStream wraps a live streaming response.
func newStream(provider string, resp *http.Response) *Stream {
	return &Stream{
		provider: provider,
		resp:     resp,
		scanner:  bufio.NewScanner(resp.Body),
	}
}

// Next returns the next text delta from the stream. It returns io.EOF
// when the upstream sends the [DONE] sentinel or closes the connection
// cleanly. Any other failure is terminal and surfaces as a typed error.
func (s *Stream) Next(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return "", &StreamError{
					Provider: s.provider,
					Message:  "stream read failed",
					Cause:    err,
				}
			}
			return "", io.EOF
		}

		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			// Comment lines and unknown fields are allowed by SSE.
			continue
		}
		if data == doneSentinel {
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", &ParseError{
				Provider:   s.provider,
				RawPayload: data,
				Cause:      err,
			}
		}
		if chunk.Delta == "" {
			continue
		}
		return chunk.Delta, nil
	}
}

// Close closes the underlying response body. Safe to call multiple times.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.resp.Body.Close()
}
