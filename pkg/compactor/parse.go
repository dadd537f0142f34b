package compactor

import (
	"regexp"
	"strings"
)

// UnknownSpeaker is assigned to text that cannot be attributed to anyone.
const UnknownSpeaker = "Unknown"

var (
	// timingLine matches caption timing ranges like
	// "00:00:01.000 --> 00:00:04.000" (VTT) or with comma millis (SRT).
	// The leading capture is the start timestamp without milliseconds.
	timingLine = regexp.MustCompile(`(?m)^\s*((?:\d{1,2}:)?\d{2}:\d{2})[.,]\d{3}\s+-->\s+(?:\d{1,2}:)?\d{2}:\d{2}[.,]\d{3}`)

	// cueIDLine matches a numeric caption cue identifier on its own line.
	cueIDLine = regexp.MustCompile(`^\d+$`)

	// voiceTag matches the explicit-speaker caption form "<v Name>text".
	voiceTag = regexp.MustCompile(`^<v\s+([^>]+)>\s*(.*)$`)

	// bracketedLine matches "[Name] hh:mm:ss text".
	bracketedLine = regexp.MustCompile(`^\[([^\]]+)\]\s+(\d{1,2}:\d{2}(?::\d{2})?)\s+(.+)$`)

	// parenthesizedLine matches "Name (hh:mm:ss): text".
	parenthesizedLine = regexp.MustCompile(`^(.{1,49}?)\s*\((\d{1,2}:\d{2}(?::\d{2})?)\)\s*:\s*(.*)$`)

	// colonLine matches "Name: text" with a short prefix.
	colonLine = regexp.MustCompile(`^([^:]{1,49}):\s*(.*)$`)

	letterPattern = regexp.MustCompile(`[A-Za-z]`)
)

// parseUtterances breaks raw text into speaker-attributed utterances.
// Caption-style input (detected by a timing range line) and freeform
// speaker-annotated text are both supported.
func parseUtterances(text string) []Utterance {
	if timingLine.MatchString(text) {
		return parseCaptionUtterances(text)
	}
	return parseFreeformUtterances(text)
}

// parseCaptionUtterances handles caption blocks: an optional numeric cue id,
// a timing range line carrying the block's start timestamp, then text lines.
// "<v Name>" tags set the speaker explicitly; other text lines continue the
// current speaker.
func parseCaptionUtterances(text string) []Utterance {
	var utterances []Utterance

	currentSpeaker := ""
	currentTimestamp := ""

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "WEBVTT") {
			continue
		}

		if m := timingLine.FindStringSubmatch(line); m != nil {
			currentTimestamp = m[1]
			continue
		}

		if cueIDLine.MatchString(line) {
			continue
		}

		if m := voiceTag.FindStringSubmatch(line); m != nil {
			currentSpeaker = strings.TrimSpace(m[1])
			content := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[2]), "</v>"))
			utterances = append(utterances, Utterance{
				Speaker:   currentSpeaker,
				Timestamp: currentTimestamp,
				Text:      content,
			})
			continue
		}

		speaker := currentSpeaker
		if speaker == "" {
			speaker = UnknownSpeaker
		}
		utterances = append(utterances, Utterance{
			Speaker:   speaker,
			Timestamp: currentTimestamp,
			Text:      line,
		})
	}

	return utterances
}

// parseFreeformUtterances tests each line against the three speaker
// patterns in order: bracketed, parenthesized-timestamp, plain colon. A
// line matching none continues the current speaker, or is attributed to
// UnknownSpeaker when no speaker has appeared yet.
func parseFreeformUtterances(text string) []Utterance {
	var utterances []Utterance

	currentSpeaker := ""

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if m := bracketedLine.FindStringSubmatch(line); m != nil {
			currentSpeaker = strings.TrimSpace(m[1])
			utterances = append(utterances, Utterance{
				Speaker:   currentSpeaker,
				Timestamp: m[2],
				Text:      strings.TrimSpace(m[3]),
			})
			continue
		}

		if m := parenthesizedLine.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			if name != "" && letterPattern.MatchString(name) {
				currentSpeaker = name
				utterances = append(utterances, Utterance{
					Speaker:   currentSpeaker,
					Timestamp: m[2],
					Text:      strings.TrimSpace(m[3]),
				})
				continue
			}
		}

		if m := colonLine.FindStringSubmatch(line); m != nil && isSpeakerPrefix(m[1], m[2]) {
			currentSpeaker = strings.TrimSpace(m[1])
			utterances = append(utterances, Utterance{
				Speaker: currentSpeaker,
				Text:    strings.TrimSpace(m[2]),
			})
			continue
		}

		speaker := currentSpeaker
		if speaker == "" {
			speaker = UnknownSpeaker
		}
		utterances = append(utterances, Utterance{Speaker: speaker, Text: line})
	}

	return utterances
}

// isSpeakerPrefix rejects colon-line prefixes that are not plausible
// speaker names: URL schemes ("https://...") and purely numeric prefixes
// such as bare timestamps.
func isSpeakerPrefix(prefix, rest string) bool {
	if strings.HasPrefix(rest, "//") {
		return false
	}
	return letterPattern.MatchString(prefix)
}

// mergeConsecutive concatenates runs of utterances from the same speaker
// into one space-joined utterance, keeping the first timestamp of the run.
func mergeConsecutive(utterances []Utterance) []Utterance {
	if len(utterances) == 0 {
		return utterances
	}

	merged := make([]Utterance, 0, len(utterances))
	current := utterances[0]

	for _, u := range utterances[1:] {
		if u.Speaker == current.Speaker {
			if current.Text == "" {
				current.Text = u.Text
			} else if u.Text != "" {
				current.Text += " " + u.Text
			}
			if current.Timestamp == "" {
				current.Timestamp = u.Timestamp
			}
			continue
		}
		merged = append(merged, current)
		current = u
	}

	return append(merged, current)
}
