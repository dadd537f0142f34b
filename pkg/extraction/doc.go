// Package extraction decodes a streamed generative-text response into typed
// extraction events.
//
// # Overview
//
// The upstream model emits line-delimited JSON records over a live token
// stream. Deltas arrive at arbitrary byte boundaries, so a record may be
// split across several deltas or a single delta may carry several records.
// The Decoder reassembles lines with a newline buffer, parses each complete
// line, and emits typed events:
//
//   - ProgressEvent: coarse stage and percent, monotonic, capped at 90
//   - SectionEvent: one extracted section with catalog-resolved title
//   - CompleteEvent: terminal success, possibly synthesized
//   - ErrorEvent: terminal upstream transport failure
//
// # Session Lifecycle
//
// One Decoder serves one session:
//
//	dec := extraction.NewDecoder(extraction.DecoderConfig{Catalog: cat})
//	for delta := range deltas {
//	    events, err := dec.Feed(delta)
//	    ...
//	}
//	events, err := dec.Finish()
//
// Feed may be called any number of times; Finish exactly once. Both return
// ErrDecoderFinished after the session has ended. Transport failures go
// through Abort, which yields the single terminal error event.
//
// # Fault Tolerance
//
// Malformed lines are discarded and logged at debug level; they never abort
// a session. A stream that ends without a complete record still produces a
// terminal CompleteEvent: Finish synthesizes one, deriving a title from
// emitted section content in catalog preference order.
package extraction
