package relay

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mercator-hq/ganymede/pkg/extraction"
)

const (
	// writeWait bounds each frame write.
	writeWait = 10 * time.Second

	// pongWait is how long the connection survives without a pong.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxInboundSize caps inbound client messages. The delivery stream is
	// one-directional; clients are only expected to send control frames.
	maxInboundSize = 4 * 1024
)

// NewUpgrader builds a WebSocket upgrader for the extraction endpoint.
// An empty origin list allows all origins.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// WSWriter delivers event frames over an upgraded WebSocket connection.
// It owns the connection: it answers pings, detects client disconnects,
// and keeps the connection alive with periodic pings of its own.
type WSWriter struct {
	conn   *websocket.Conn
	logger *slog.Logger

	mu sync.Mutex

	disconnected chan struct{}
	discOnce     sync.Once
	closeOnce    sync.Once
}

// NewWSWriter wraps an upgraded connection and starts its read and ping
// loops. Call Close when the session ends.
func NewWSWriter(conn *websocket.Conn, logger *slog.Logger) *WSWriter {
	if logger == nil {
		logger = slog.Default()
	}
	w := &WSWriter{
		conn:         conn,
		logger:       logger.With("component", "relay"),
		disconnected: make(chan struct{}),
	}

	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go w.readLoop()
	go w.pingLoop()
	return w
}

// WriteEvent writes one event frame as a text message.
func (w *WSWriter) WriteEvent(event extraction.Event) error {
	frame, err := MarshalFrame(event)
	if err != nil {
		return err
	}
	return w.writeMessage(frame)
}

// WriteDone writes the stream-terminating sentinel.
func (w *WSWriter) WriteDone() error {
	return w.writeMessage([]byte(DoneSentinel))
}

func (w *WSWriter) writeMessage(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := w.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return &WriteError{Transport: "websocket", Cause: err}
	}
	return nil
}

// Disconnected returns a channel closed when the client goes away. The
// session uses it to cancel the upstream call instead of streaming into
// a dead connection.
func (w *WSWriter) Disconnected() <-chan struct{} {
	return w.disconnected
}

// Close performs a best-effort close handshake and tears the connection
// down. Safe to call multiple times.
func (w *WSWriter) Close() error {
	var err error
	w.closeOnce.Do(func() {
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = w.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
		err = w.conn.Close()
	})
	return err
}

// readLoop discards inbound messages and surfaces the read error that
// signals a disconnect. Reading is also what drives the pong handler.
func (w *WSWriter) readLoop() {
	defer w.discOnce.Do(func() { close(w.disconnected) })
	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				w.logger.Debug("WebSocket read failed", "error", err)
			}
			return
		}
	}
}

// pingLoop keeps the connection alive until it is closed or the client
// disconnects. WriteControl is safe to call concurrently with writes.
func (w *WSWriter) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-w.disconnected:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := w.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
