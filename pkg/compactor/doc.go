// Package compactor shrinks oversized transcripts and documents below a
// hard character budget without calling any external service.
//
// # Overview
//
// Compaction is a deterministic pipeline over speaker-attributed
// utterances:
//
//   - structural parse of caption-style or freeform speaker-annotated text
//   - merge of consecutive same-speaker utterances
//   - speaker name abbreviation with collision-free short tokens
//   - filler removal and punctuation canonicalization
//   - progressive dropping of short and backchannel utterances
//   - phrase-to-acronym substitution as a final pass
//
// Input already within budget is returned untouched:
//
//	c := compactor.New(compactor.DefaultTables())
//	result := c.Compact(compactor.CompactionRequest{
//	    Text:        transcript,
//	    TargetChars: 50000,
//	})
//	if result.WasProcessed {
//	    fmt.Printf("reduced %.1f%%\n", result.ReductionPercent)
//	}
//
// CompactToBudget adds the two-phase policy used by the pipeline: a normal
// pass, then an aggressive one, then a typed InputTooLargeError carrying
// exact counts.
//
// # Determinism
//
// Identical input and options produce byte-identical output. The filler,
// backchannel, and abbreviation vocabularies are injected as Tables so the
// package holds no tunable hidden state.
package compactor
