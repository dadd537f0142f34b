package catalog

import "mercator-hq/ganymede/pkg/compactor"

// defaultSystemPrompt instructs the model to emit the NDJSON record
// protocol the stream decoder understands.
const defaultSystemPrompt = `You turn a meeting transcript into a structured brief.

Respond ONLY with newline-delimited JSON records, one JSON object per line, no surrounding prose and no code fences.

For each brief section you can fill from the transcript, emit one record:
{"type":"section","sectionId":"<id from the section list>","content":"<markdown content>","confidence":"high|medium|low","sources":["<short supporting quote>"]}

Skip sections the transcript gives you nothing for. When you have emitted every section you can, finish with exactly one record:
{"type":"complete","suggestedTitle":"<concise document title>","notes":"<optional caveats>"}

Content rules: write in the transcript's language, attribute decisions and action items to named speakers when the transcript names them, and never invent facts that are not in the transcript.`

// Default returns the built-in brief catalog used when no catalog file
// is configured.
func Default() *Catalog {
	c := &Catalog{
		Version:      CurrentVersion,
		SystemPrompt: defaultSystemPrompt,
		Sections: []Section{
			{
				ID:          "executive_summary",
				Title:       "Executive Summary",
				Description: "Two to four sentences covering what the meeting was about and what came out of it.",
				Required:    true,
			},
			{
				ID:          "problem_statement",
				Title:       "Problem Statement",
				Description: "The problem or opportunity the discussion centered on, as the participants framed it.",
			},
			{
				ID:          "goals",
				Title:       "Goals and Success Criteria",
				Description: "Agreed goals and how the participants said they would measure success.",
			},
			{
				ID:          "requirements",
				Title:       "Functional Requirements",
				Description: "Concrete requirements or constraints stated during the meeting, one bullet each.",
			},
			{
				ID:          "decisions",
				Title:       "Key Decisions",
				Description: "Decisions that were actually made, with the deciding person when named.",
				Required:    true,
			},
			{
				ID:          "risks",
				Title:       "Risks and Mitigations",
				Description: "Risks raised in the discussion and any mitigations proposed for them.",
			},
			{
				ID:          "action_items",
				Title:       "Action Items",
				Description: "Follow-up tasks with owner and deadline when the transcript names them.",
			},
			{
				ID:          "open_questions",
				Title:       "Open Questions",
				Description: "Questions raised but left unresolved at the end of the meeting.",
			},
		},
		Fallbacks: []string{"executive_summary", "problem_statement"},
	}

	defaults := compactor.DefaultTables()
	c.Compaction.Fillers = defaults.Fillers
	c.Compaction.Backchannels = defaults.Backchannels
	for _, a := range defaults.Abbreviations {
		c.Compaction.Abbreviations = append(c.Compaction.Abbreviations, PhraseAbbreviation{
			Phrase:  a.Phrase,
			Acronym: a.Acronym,
		})
	}

	c.buildIndex()
	return c
}
