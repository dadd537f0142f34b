// Package pipeline orchestrates one extraction session end to end.
//
// # Overview
//
// A Runner owns the shared components (quota guard, catalog manager,
// upstream client, audit recorder) and turns each request into an
// independent Session:
//
//  1. Quota admission. A rejected identity costs nothing upstream and
//     returns a quota.QuotaExceededError carrying the retry hint.
//  2. Compaction. Items are joined into one transcript and reduced to
//     the configured character budget; an irreducible transcript
//     returns a compactor.InputTooLargeError with exact counts.
//  3. Streaming. The compacted transcript goes upstream and the delta
//     stream is decoded into typed extraction events on the session's
//     ordered channel.
//
//	sess, err := runner.Run(ctx, &pipeline.Request{
//		Identity:  "team-alpha",
//		Transport: audit.TransportSSE,
//		Items:     []pipeline.Item{{ID: "standup.txt", Text: transcript}},
//	})
//	if err != nil {
//		return err
//	}
//	for event := range sess.Events() {
//		...
//	}
//	return sess.Err()
//
// # Session Lifecycle
//
// Each session runs one worker goroutine under an errgroup: it pumps
// upstream deltas through the decoder and forwards events in generation
// order. End of stream finishes the decoder (synthesizing a complete
// event when the model never sent one), a transport failure aborts it
// into a single terminal error event, and cancellation, via Cancel or
// the request context, stops the worker within one read cycle. The
// event channel always closes after the terminal event, and every run
// ends with exactly one audit record whatever the outcome.
package pipeline
