// Package upstream implements the streaming HTTP client for the model
// gateway that performs the actual extraction.
//
// # Overview
//
// The client sends one generation request per extraction session and
// reads back an SSE stream of text deltas. The deltas carry NDJSON
// produced by the model; reassembling and interpreting that NDJSON is
// the job of the extraction package, not this one.
//
//	client := upstream.NewClient(upstream.Config{
//		BaseURL: "https://gateway.internal",
//		APIKey:  key,
//	}, logger)
//
//	stream, err := client.Stream(ctx, &upstream.ExtractionRequest{
//		System: upstream.BuildSystemPrompt(cat),
//		Input:  upstream.BuildInput(transcript, note),
//	})
//	if err != nil {
//		return err
//	}
//	defer stream.Close()
//
//	for {
//		delta, err := stream.Next(ctx)
//		if err == io.EOF {
//			break
//		}
//		...
//	}
//
// # Failure Handling
//
// Non-2xx responses map to typed errors before a stream is returned:
// AuthError for 401/403, RateLimitError for 429 (with Retry-After
// parsed), UpstreamError otherwise. A transport failure mid-stream
// surfaces as a StreamError and is terminal for the session; the client
// never retries on its own.
package upstream
