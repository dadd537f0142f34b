// Package relay delivers extraction events to clients over Server-Sent
// Events and WebSocket transports.
//
// # Overview
//
// Both transports carry the same wire protocol: each event is one JSON
// frame with a "type" discriminator, and every stream ends with the
// literal [DONE] sentinel after its terminal event. On SSE each frame
// is a "data:" line; on WebSocket each frame is one text message.
//
//	writer, err := relay.NewSSEWriter(w)
//	if err != nil {
//		return err
//	}
//	for event := range session.Events() {
//		if err := writer.WriteEvent(event); err != nil {
//			return err
//		}
//	}
//	return writer.WriteDone()
//
// A delivery failure means the client is gone; the caller cancels the
// session rather than retrying the write.
//
// # Subscribing
//
// Subscribe is the client half of the protocol. It reads an SSE body,
// dispatches typed callbacks, and returns when the sentinel arrives.
package relay
