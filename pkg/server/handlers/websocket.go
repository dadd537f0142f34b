package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/relay"
	"mercator-hq/ganymede/pkg/server/middleware"
	"mercator-hq/ganymede/pkg/server/types"
)

const (
	// requestReadWait bounds how long the server waits for the client
	// to send its extraction request after the upgrade.
	requestReadWait = 30 * time.Second

	// closeWriteWait bounds error and close frame writes.
	closeWriteWait = 10 * time.Second
)

// WebSocketHandler serves GET /v1/extractions/ws. The client sends one
// extraction request as the first text message after the upgrade; the
// server streams event frames back and finishes with the done sentinel
// and a close handshake. Errors after the upgrade are delivered as an
// error envelope frame followed by a close frame, since HTTP status
// codes are no longer available.
type WebSocketHandler struct {
	runner       *pipeline.Runner
	upgrader     *websocket.Upgrader
	maxBodyBytes int64
}

// NewWebSocketHandler creates a WebSocket extraction handler.
func NewWebSocketHandler(runner *pipeline.Runner, allowedOrigins []string, maxBodyBytes int64) *WebSocketHandler {
	return &WebSocketHandler{
		runner:       runner,
		upgrader:     relay.NewUpgrader(allowedOrigins),
		maxBodyBytes: maxBodyBytes,
	}
}

// ServeHTTP handles WebSocket extraction sessions.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorResponse(w, types.NewMethodNotAllowedError("Method not allowed. WebSocket upgrades use GET."))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		slog.DebugContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The request frame carries the whole transcript, so it gets the
	// same size cap as the HTTP body. The relay writer resets the
	// limit to its own small control-frame cap afterwards.
	conn.SetReadLimit(h.maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(requestReadWait))

	messageType, data, err := conn.ReadMessage()
	if err != nil {
		slog.DebugContext(ctx, "failed to read extraction request", "error", err)
		_ = conn.Close()
		return
	}
	if messageType != websocket.TextMessage {
		closeWithError(conn, types.NewInvalidRequestError(
			"Extraction request must be a text message", "", types.CodeInvalidJSON))
		return
	}

	req, errResp := DecodeExtractionRequest(data)
	if errResp != nil {
		closeWithError(conn, errResp)
		return
	}

	identity := identityFor(req, r)
	session, err := h.runner.Run(ctx, toPipelineRequest(req, identity, middleware.GetRequestID(ctx), audit.TransportWebSocket))
	if err != nil {
		slog.DebugContext(ctx, "extraction not admitted", "error", err)
		closeWithError(conn, ErrorResponseFor(err))
		return
	}

	writer := relay.NewWSWriter(conn, slog.Default())
	defer writer.Close()

	// A vanished client cancels the session so the pipeline stops
	// paying for upstream tokens nobody will read.
	go func() {
		select {
		case <-writer.Disconnected():
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	eventsSent := 0
	clientGone := false

	for event := range session.Events() {
		if err := writer.WriteEvent(event); err != nil {
			session.Cancel()
			clientGone = true
			slog.DebugContext(ctx, "client disconnected during stream",
				"error", err, "events_sent", eventsSent)
			break
		}
		eventsSent++
	}

	if !clientGone {
		if err := writer.WriteDone(); err != nil {
			slog.DebugContext(ctx, "failed to write done sentinel", "error", err)
		}
	}

	logSessionEnd(ctx, audit.TransportWebSocket, identity, eventsSent, time.Since(start), session.Err())
}

// closeWithError sends the error envelope as a text frame followed by a
// close frame, then tears the connection down. Only used before the
// relay writer takes ownership of the connection.
func closeWithError(conn *websocket.Conn, errResp *types.ErrorResponse) {
	if payload, err := json.Marshal(errResp); err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(closeWriteWait))
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}

	code := websocket.ClosePolicyViolation
	if errResp.Error.HTTPStatusCode() >= 500 {
		code = websocket.CloseInternalServerErr
	}
	message := websocket.FormatCloseMessage(code, errResp.Error.Type)
	_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(closeWriteWait))
	_ = conn.Close()
}
