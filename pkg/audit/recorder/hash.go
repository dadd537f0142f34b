package recorder

import (
	"crypto/sha256"
	"encoding/hex"
)

// MaxHashSize is the maximum number of bytes hashed from large
// transcripts. Hashing only the first 1MB bounds the work per record
// while still fingerprinting any transcript the service accepts.
const MaxHashSize = 1024 * 1024

// HashTranscript computes the SHA-256 fingerprint of a transcript and
// returns it hex-encoded. Transcripts beyond MaxHashSize are hashed by
// prefix. Returns an empty string for empty input.
func HashTranscript(content string) string {
	if len(content) == 0 {
		return ""
	}
	if len(content) > MaxHashSize {
		content = content[:MaxHashSize]
	}
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
