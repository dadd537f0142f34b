package compactor

import (
	"regexp"
	"strings"
)

var (
	spaceBeforePunct = regexp.MustCompile(`\s+([,.!?;:])`)
	repeatedPunct    = regexp.MustCompile(`([,.!?;:])[,.!?;:]+`)
	sentenceGap      = regexp.MustCompile(`([.!?])([A-Z])`)
	multiSpace       = regexp.MustCompile(`[ \t]{2,}`)
	leadingPunct     = regexp.MustCompile(`^[,.;:!?\s]+`)
)

// cleanText strips filler phrases and canonicalizes punctuation and
// whitespace. Removing a filler can leave orphaned commas and doubled
// spaces behind, so the punctuation passes run after the removals.
func cleanText(text string, tables *compiledTables) string {
	for _, filler := range tables.fillers {
		text = filler.ReplaceAllString(text, "")
	}

	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = repeatedPunct.ReplaceAllString(text, "$1")
	text = sentenceGap.ReplaceAllString(text, "$1 $2")
	text = multiSpace.ReplaceAllString(text, " ")
	text = leadingPunct.ReplaceAllString(text, "")

	return strings.TrimSpace(text)
}
