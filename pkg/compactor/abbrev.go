package compactor

import (
	"strconv"
	"strings"
	"unicode"
)

// SpeakerAbbreviationMap holds the bidirectional full-name to short-token
// mapping built for one compaction call. All generated tokens are pairwise
// distinct within one map.
type SpeakerAbbreviationMap struct {
	fullToShort map[string]string
	shortToFull map[string]string
}

// buildSpeakerMap derives a short token for every distinct speaker, in
// first-appearance order so repeated runs over the same input produce the
// same tokens.
func buildSpeakerMap(utterances []Utterance) *SpeakerAbbreviationMap {
	m := &SpeakerAbbreviationMap{
		fullToShort: make(map[string]string),
		shortToFull: make(map[string]string),
	}

	for _, u := range utterances {
		m.assign(u.Speaker)
	}

	return m
}

// assign derives and records a unique token for a speaker name: uppercase
// initials first, the first two characters uppercased on collision, then an
// integer suffix until unique.
func (m *SpeakerAbbreviationMap) assign(full string) string {
	if short, ok := m.fullToShort[full]; ok {
		return short
	}

	candidate := initials(full)
	if candidate == "" || m.taken(candidate) {
		candidate = firstTwo(full)
	}
	if candidate == "" {
		candidate = "SP"
	}

	base := candidate
	for n := 2; m.taken(candidate); n++ {
		candidate = base + strconv.Itoa(n)
	}

	m.fullToShort[full] = candidate
	m.shortToFull[candidate] = full
	return candidate
}

// Short returns the token for a full speaker name, assigning one if the
// name has not been seen.
func (m *SpeakerAbbreviationMap) Short(full string) string {
	return m.assign(full)
}

// Full resolves a token back to the full speaker name.
func (m *SpeakerAbbreviationMap) Full(short string) (string, bool) {
	full, ok := m.shortToFull[short]
	return full, ok
}

// Mapping returns a copy of the full-name to token map.
func (m *SpeakerAbbreviationMap) Mapping() map[string]string {
	out := make(map[string]string, len(m.fullToShort))
	for full, short := range m.fullToShort {
		out[full] = short
	}
	return out
}

func (m *SpeakerAbbreviationMap) taken(short string) bool {
	_, ok := m.shortToFull[short]
	return ok
}

// initials returns the uppercased first letter of each word in the name,
// skipping words that do not start with a letter.
func initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// firstTwo returns the first two characters of the trimmed name, uppercased.
func firstTwo(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}
