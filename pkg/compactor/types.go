package compactor

// DefaultTargetChars is the character budget applied when a request does
// not set one.
const DefaultTargetChars = 50000

// CompactionRequest is the immutable input to one compaction call.
type CompactionRequest struct {
	// Text is the raw transcript or document text.
	Text string

	// TargetChars is the hard character budget for the output.
	// Default: 50000
	TargetChars int

	// PreserveTimestamps keeps per-utterance timestamps in the serialized
	// output when the input carried them.
	PreserveTimestamps bool

	// Aggressive starts the progressive reduction at a higher
	// minimum-utterance-length threshold for faster convergence.
	Aggressive bool
}

// Utterance is one contiguous span of text attributed to a single speaker.
// Utterances are mutated only within one compaction pass and never shared
// outside it.
type Utterance struct {
	Speaker   string
	Timestamp string
	Text      string
}

// CompactionResult is the immutable outcome of one compaction call.
type CompactionResult struct {
	// Content is the compacted text, at or below the budget whenever the
	// progressive reduction converged.
	Content string

	// OriginalChars and FinalChars are exact before and after counts.
	OriginalChars int
	FinalChars    int

	// ReductionPercent is the relative size reduction, rounded to one
	// decimal place. Zero when the fast path returned the input unchanged.
	ReductionPercent float64

	// SpeakerMap maps each full speaker name to its abbreviated token.
	SpeakerMap map[string]string

	// MinUtteranceLength is the final minimum-length threshold the
	// progressive reduction settled on.
	MinUtteranceLength int

	// WasProcessed is false when the input was already within budget and
	// returned untouched.
	WasProcessed bool
}
