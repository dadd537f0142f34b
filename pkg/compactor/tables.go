package compactor

import (
	"regexp"
	"strings"
)

// Abbreviation is one ordered phrase-to-acronym substitution.
type Abbreviation struct {
	Phrase  string
	Acronym string
}

// Tables holds the fixed vocabularies driving a compaction pass. They are
// injected rather than hard-coded so the compactor stays pure and callers
// can tune the catalogues without code changes.
type Tables struct {
	// Fillers are discourse-marker phrases removed from utterance text,
	// matched case-insensitively at word boundaries. Entries with a
	// trailing comma (like "you know,") only match the marker usage.
	Fillers []string

	// Backchannels are pure-acknowledgment utterances dropped during
	// progressive reduction, matched exactly and case-insensitively
	// against the whole utterance text.
	Backchannels []string

	// Abbreviations are phrase-to-acronym substitutions applied, in
	// order, as the final reduction pass.
	Abbreviations []Abbreviation
}

// DefaultTables returns the built-in vocabularies.
func DefaultTables() Tables {
	return Tables{
		Fillers: []string{
			"um", "uh", "er", "hmm",
			"like,", "you know,", "i mean,",
			"sort of,", "kind of,", "basically,",
			"gonna", "wanna",
		},
		Backchannels: []string{
			"yeah", "yes", "yep", "no", "okay", "ok",
			"mm-hmm", "uh-huh", "got it", "sounds good",
			"sure", "right", "cool", "great", "makes sense",
			"thanks", "thank you",
		},
		Abbreviations: []Abbreviation{
			{Phrase: "for example", Acronym: "e.g."},
			{Phrase: "in other words", Acronym: "i.e."},
			{Phrase: "minimum viable product", Acronym: "MVP"},
			{Phrase: "proof of concept", Acronym: "PoC"},
			{Phrase: "as soon as possible", Acronym: "ASAP"},
			{Phrase: "end of day", Acronym: "EOD"},
			{Phrase: "end of week", Acronym: "EOW"},
			{Phrase: "work in progress", Acronym: "WIP"},
			{Phrase: "to be determined", Acronym: "TBD"},
			{Phrase: "frequently asked questions", Acronym: "FAQ"},
		},
	}
}

// compiledTables is the regex-compiled form of Tables, built once per
// Compactor.
type compiledTables struct {
	fillers       []*regexp.Regexp
	backchannels  map[string]struct{}
	abbreviations []compiledAbbreviation
}

type compiledAbbreviation struct {
	pattern *regexp.Regexp
	acronym string
}

// compileTables builds the matchers for a table set. Phrases are quoted
// literally; word boundaries are added only where the phrase starts or ends
// with a word character, so entries like "you know," anchor on the comma.
func compileTables(t Tables) *compiledTables {
	ct := &compiledTables{
		backchannels: make(map[string]struct{}, len(t.Backchannels)),
	}

	for _, phrase := range t.Fillers {
		if phrase == "" {
			continue
		}
		ct.fillers = append(ct.fillers, compilePhrase(phrase))
	}

	for _, phrase := range t.Backchannels {
		if phrase == "" {
			continue
		}
		ct.backchannels[strings.ToLower(phrase)] = struct{}{}
	}

	for _, abbr := range t.Abbreviations {
		if abbr.Phrase == "" {
			continue
		}
		ct.abbreviations = append(ct.abbreviations, compiledAbbreviation{
			pattern: compilePhrase(abbr.Phrase),
			acronym: abbr.Acronym,
		})
	}

	return ct
}

func compilePhrase(phrase string) *regexp.Regexp {
	pattern := regexp.QuoteMeta(phrase)
	if isWordChar(rune(phrase[0])) {
		pattern = `\b` + pattern
	}
	if isWordChar(rune(phrase[len(phrase)-1])) {
		pattern += `\b`
	}
	return regexp.MustCompile(`(?i)` + pattern)
}

func isWordChar(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
