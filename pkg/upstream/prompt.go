package upstream

import (
	"fmt"
	"strings"

	"mercator-hq/ganymede/pkg/catalog"
)

// BuildSystemPrompt assembles the system prompt for an extraction call
// from the catalog's base prompt and its section definitions. The section
// list is rendered in catalog order so identical catalogs produce
// identical prompts.
func BuildSystemPrompt(c *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(c.SystemPrompt))
	b.WriteString("\n\nSections to extract, in order:\n")
	for _, section := range c.Sections {
		b.WriteString(fmt.Sprintf("- %s: %s", section.ID, section.Title))
		if section.Description != "" {
			b.WriteString(" | ")
			b.WriteString(section.Description)
		}
		if section.Required {
			b.WriteString(" (required)")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nEmit a section record only when the transcript supports it. Required sections must always be emitted, even if only to state that nothing relevant was discussed.")
	return b.String()
}

// BuildInput assembles the user payload from the compacted transcript and
// an optional caller-supplied context note.
func BuildInput(transcript, contextNote string) string {
	var b strings.Builder
	if contextNote != "" {
		b.WriteString("Meeting context: ")
		b.WriteString(strings.TrimSpace(contextNote))
		b.WriteString("\n\n")
	}
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	return b.String()
}
