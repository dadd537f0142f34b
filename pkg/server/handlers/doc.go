// Package handlers implements the HTTP handlers for the extraction
// endpoints.
//
// Both transports run the same pipeline and speak the same event
// frames; they differ only in delivery. The SSE handler answers
// admission failures with plain JSON and a real status code, then
// switches the response to an event stream. The WebSocket handler has
// no status codes after the upgrade, so it delivers the same error
// envelope as a text frame followed by a close frame.
//
// A stream that has started never changes its mind: upstream failures
// mid-session arrive as an in-band error event and the stream still
// terminates with the [DONE] sentinel.
package handlers
