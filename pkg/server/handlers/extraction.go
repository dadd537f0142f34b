package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/relay"
	"mercator-hq/ganymede/pkg/server/middleware"
	"mercator-hq/ganymede/pkg/server/types"
)

// ExtractionHandler serves POST /v1/extractions. Admission failures
// come back as plain JSON with a meaningful status code; once the
// session is admitted the response switches to an SSE stream and every
// further outcome, including upstream failures, is delivered in-band
// as an error event.
type ExtractionHandler struct {
	runner       *pipeline.Runner
	maxBodyBytes int64
}

// NewExtractionHandler creates an extraction handler.
func NewExtractionHandler(runner *pipeline.Runner, maxBodyBytes int64) *ExtractionHandler {
	return &ExtractionHandler{
		runner:       runner,
		maxBodyBytes: maxBodyBytes,
	}
}

// ServeHTTP handles extraction requests.
func (h *ExtractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorResponse(w, types.NewMethodNotAllowedError("Method not allowed. Only POST is supported."))
		return
	}

	ctx := r.Context()

	req, errResp := ParseExtractionRequest(r, h.maxBodyBytes)
	if errResp != nil {
		WriteErrorResponse(w, errResp)
		return
	}

	// Confirm streaming works before admitting the session, so a
	// buffering front proxy costs nobody a quota token.
	sw, err := relay.NewSSEWriter(w)
	if err != nil {
		WriteErrorResponse(w, types.NewServerError("Streaming is not supported on this connection"))
		return
	}

	identity := identityFor(req, r)
	session, err := h.runner.Run(ctx, toPipelineRequest(req, identity, middleware.GetRequestID(ctx), audit.TransportSSE))
	if err != nil {
		slog.DebugContext(ctx, "extraction not admitted", "error", err)
		WriteSessionError(w, err)
		return
	}

	relay.SetSSEHeaders(w)

	start := time.Now()
	eventsSent := 0
	clientGone := false

	for event := range session.Events() {
		if err := sw.WriteEvent(event); err != nil {
			// The client went away mid-stream. Cancelling makes the
			// pipeline abandon delivery and finalize the audit row.
			session.Cancel()
			clientGone = true
			slog.DebugContext(ctx, "client disconnected during stream",
				"error", err, "events_sent", eventsSent)
			break
		}
		eventsSent++
	}

	if !clientGone {
		if err := sw.WriteDone(); err != nil {
			slog.DebugContext(ctx, "failed to write done sentinel", "error", err)
		}
	}

	logSessionEnd(ctx, audit.TransportSSE, identity, eventsSent, time.Since(start), session.Err())
}

// logSessionEnd writes the one summary line every streaming transport
// emits when a session finishes.
func logSessionEnd(ctx context.Context, transport, identity string, eventsSent int, elapsed time.Duration, err error) {
	if err != nil {
		slog.WarnContext(ctx, "extraction session finished with error",
			"transport", transport,
			"identity", identity,
			"events_sent", eventsSent,
			"elapsed_ms", float64(elapsed.Microseconds())/1000.0,
			"error", err,
		)
		return
	}

	slog.InfoContext(ctx, "extraction session completed",
		"transport", transport,
		"identity", identity,
		"events_sent", eventsSent,
		"elapsed_ms", float64(elapsed.Microseconds())/1000.0,
	)
}
