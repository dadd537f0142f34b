package compactor

import (
	"log/slog"
	"math"
)

// Compactor shrinks oversized text below a hard character budget while
// preserving as much semantic content as possible. It never calls an
// external service and is fully deterministic: identical input and options
// produce byte-identical output.
//
// A Compactor compiles its tables once at construction and is safe for
// concurrent use.
type Compactor struct {
	tables *compiledTables
	logger *slog.Logger
}

// New creates a compactor over the given table set. Use DefaultTables for
// the built-in vocabularies.
func New(tables Tables) *Compactor {
	return &Compactor{
		tables: compileTables(tables),
		logger: slog.Default().With("component", "compactor"),
	}
}

// Compact runs one compaction pass:
//
//  1. Fast path: input already within budget returns unchanged.
//  2. Structural parse into speaker-attributed utterances.
//  3. Merge of consecutive same-speaker utterances.
//  4. Speaker abbreviation.
//  5. Filler removal and punctuation canonicalization per utterance.
//  6. Progressive reduction under a growing minimum-length threshold.
//  7. Phrase-to-acronym substitution if still over budget.
//
// The returned result always carries exact before and after counts; output
// can still exceed the budget when the input resists reduction, which
// CompactToBudget turns into a typed error.
func (c *Compactor) Compact(req CompactionRequest) *CompactionResult {
	if req.TargetChars <= 0 {
		req.TargetChars = DefaultTargetChars
	}

	original := len(req.Text)
	if original <= req.TargetChars {
		return &CompactionResult{
			Content:       req.Text,
			OriginalChars: original,
			FinalChars:    original,
			SpeakerMap:    map[string]string{},
			WasProcessed:  false,
		}
	}

	utterances := mergeConsecutive(parseUtterances(req.Text))

	speakers := buildSpeakerMap(utterances)
	for i := range utterances {
		utterances[i].Speaker = speakers.Short(utterances[i].Speaker)
	}

	cleaned := make([]Utterance, 0, len(utterances))
	for _, u := range utterances {
		u.Text = cleanText(u.Text, c.tables)
		if u.Text == "" {
			continue
		}
		cleaned = append(cleaned, u)
	}

	content, threshold := reduce(cleaned, req, c.tables)
	if len(content) > req.TargetChars {
		content = applyAbbreviations(content, c.tables)
	}

	final := len(content)
	var reduction float64
	if original > 0 {
		reduction = math.Round(float64(original-final)/float64(original)*1000) / 10
	}

	c.logger.Debug("compaction pass finished",
		"original_chars", original,
		"final_chars", final,
		"aggressive", req.Aggressive,
		"min_utterance_length", threshold,
	)

	return &CompactionResult{
		Content:            content,
		OriginalChars:      original,
		FinalChars:         final,
		ReductionPercent:   reduction,
		SpeakerMap:         speakers.Mapping(),
		MinUtteranceLength: threshold,
		WasProcessed:       true,
	}
}

// CompactToBudget applies the two-phase oversized-input policy: one normal
// pass, an aggressive pass if the output still exceeds the budget, and an
// InputTooLargeError when even aggressive compaction does not fit. The
// input is never silently truncated.
func (c *Compactor) CompactToBudget(text string, targetChars int, preserveTimestamps bool) (*CompactionResult, error) {
	if targetChars <= 0 {
		targetChars = DefaultTargetChars
	}

	result := c.Compact(CompactionRequest{
		Text:               text,
		TargetChars:        targetChars,
		PreserveTimestamps: preserveTimestamps,
	})
	if result.FinalChars <= targetChars {
		return result, nil
	}

	result = c.Compact(CompactionRequest{
		Text:               text,
		TargetChars:        targetChars,
		PreserveTimestamps: preserveTimestamps,
		Aggressive:         true,
	})
	if result.FinalChars <= targetChars {
		return result, nil
	}

	return nil, &InputTooLargeError{
		OriginalChars: result.OriginalChars,
		CleanedChars:  result.FinalChars,
		TargetChars:   targetChars,
	}
}
