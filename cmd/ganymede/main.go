// Ganymede turns raw meeting transcripts into structured briefs.
//
// It runs as an HTTP service that streams extraction results over SSE or
// WebSocket, providing:
//   - Per-identity token-bucket admission with a usage ledger
//   - Deterministic transcript compaction to a character budget
//   - Streaming extraction through an upstream model gateway
//   - Audit records for every extraction session
//
// Usage:
//
//	# Start server with default configuration
//	ganymede run
//
//	# Start with custom configuration file
//	ganymede run --config /path/to/config.yaml
//
//	# Compact a transcript offline without calling the gateway
//	ganymede compact --file standup.vtt --stats
//
//	# Validate a catalog file
//	ganymede lint --file catalog.yaml
//
//	# Query the audit trail
//	ganymede audit query --time-range "2026-08-24T00:00:00Z/2026-08-25T00:00:00Z"
//
//	# Show version information
//	ganymede version
package main

func main() {
	Execute()
}
