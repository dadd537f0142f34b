package compactor

import "strings"

const (
	// thresholdStep is how much the minimum-utterance-length threshold
	// grows per reduction pass.
	thresholdStep = 5

	// thresholdCeiling caps the threshold; reduction gives up once the
	// next step would exceed it.
	thresholdCeiling = 100

	// aggressiveStart is the initial threshold under Aggressive mode.
	aggressiveStart = 10
)

// serialize renders utterances one per line as "[token] timestamp? text".
func serialize(utterances []Utterance, preserveTimestamps bool) string {
	var b strings.Builder
	for i, u := range utterances {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('[')
		b.WriteString(u.Speaker)
		b.WriteString("] ")
		if preserveTimestamps && u.Timestamp != "" {
			b.WriteString(u.Timestamp)
			b.WriteByte(' ')
		}
		b.WriteString(u.Text)
	}
	return b.String()
}

// reduce rebuilds the serialized output under a growing
// minimum-utterance-length threshold until it fits the budget, no
// utterances remain, or the threshold reaches its ceiling. Returns the
// final output and the threshold it settled on.
func reduce(utterances []Utterance, req CompactionRequest, tables *compiledTables) (string, int) {
	threshold := 0
	if req.Aggressive {
		threshold = aggressiveStart
	}

	out := serialize(utterances, req.PreserveTimestamps)
	for len(out) > req.TargetChars && len(utterances) > 0 && threshold+thresholdStep <= thresholdCeiling {
		threshold += thresholdStep
		utterances = dropBelowThreshold(utterances, threshold, tables)
		out = serialize(utterances, req.PreserveTimestamps)
	}

	return out, threshold
}

// dropBelowThreshold removes utterances shorter than the threshold along
// with pure backchannel acknowledgments.
func dropBelowThreshold(utterances []Utterance, threshold int, tables *compiledTables) []Utterance {
	kept := make([]Utterance, 0, len(utterances))
	for _, u := range utterances {
		if len(u.Text) < threshold || isBackchannel(u.Text, tables) {
			continue
		}
		kept = append(kept, u)
	}
	return kept
}

// isBackchannel reports whether the utterance text exactly matches the
// backchannel vocabulary, case-insensitively.
func isBackchannel(text string, tables *compiledTables) bool {
	_, ok := tables.backchannels[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// applyAbbreviations runs the ordered phrase-to-acronym substitution table
// over the serialized output. Used as the final low-value-loss pass when
// progressive reduction alone did not reach the budget.
func applyAbbreviations(content string, tables *compiledTables) string {
	for _, abbr := range tables.abbreviations {
		content = abbr.pattern.ReplaceAllString(content, abbr.acronym)
	}
	return content
}
