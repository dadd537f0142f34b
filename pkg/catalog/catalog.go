package catalog

import (
	"fmt"
	"os"
	"regexp"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"mercator-hq/ganymede/pkg/compactor"
)

// MaxFileSize is the largest catalog file the loader accepts, in bytes.
const MaxFileSize = 1 << 20

// CurrentVersion is the catalog schema version this build understands.
const CurrentVersion = 1

var sectionIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Section describes one entry of the brief template the extraction model
// is asked to fill.
type Section struct {
	// ID is the stable identifier the model echoes back in section
	// records. Lowercase snake_case.
	ID string `yaml:"id"`

	// Title is the human-readable display title for the section.
	Title string `yaml:"title"`

	// Description tells the model what belongs in this section. It is
	// embedded in the extraction prompt verbatim.
	Description string `yaml:"description,omitempty"`

	// Required marks sections the prompt instructs the model to always
	// produce. Decoding never enforces it; absent sections simply do
	// not appear in the output.
	Required bool `yaml:"required,omitempty"`
}

// PhraseAbbreviation maps a long phrase to its acronym for the
// compactor's substitution table.
type PhraseAbbreviation struct {
	Phrase  string `yaml:"phrase"`
	Acronym string `yaml:"acronym"`
}

// CompactionVocabulary overrides the compactor's built-in word lists.
// Empty lists fall back to the defaults during load.
type CompactionVocabulary struct {
	Fillers       []string             `yaml:"fillers,omitempty"`
	Backchannels  []string             `yaml:"backchannels,omitempty"`
	Abbreviations []PhraseAbbreviation `yaml:"abbreviations,omitempty"`
}

// Catalog is a validated brief template: the section inventory, the
// prompt that requests it, and the compaction vocabulary that prepares
// transcripts for it. A loaded Catalog is immutable; reloads install a
// fresh instance rather than mutating the current one.
type Catalog struct {
	// Version is the schema version of the catalog file.
	Version int `yaml:"version"`

	// SystemPrompt is the instruction block sent to the extraction
	// model ahead of the transcript.
	SystemPrompt string `yaml:"system_prompt,omitempty"`

	// Sections lists the brief sections in presentation order.
	Sections []Section `yaml:"sections"`

	// Fallbacks names the section IDs consulted, in order, when a
	// title must be derived because the stream ended without a
	// completion record.
	Fallbacks []string `yaml:"fallback_order,omitempty"`

	// Compaction carries optional overrides for the transcript
	// compactor's vocabularies.
	Compaction CompactionVocabulary `yaml:"compaction,omitempty"`

	titles map[string]string
}

// Load reads, parses, and validates a catalog file.
func Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Path: path, Message: "file not found", Cause: err}
		}
		return nil, &LoadError{Path: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{Path: path, Message: "not a regular file"}
	}
	if info.Size() > MaxFileSize {
		return nil, &LoadError{
			Path:    path,
			Message: fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{Path: path, Message: "file contains invalid UTF-8 encoding"}
	}

	c, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "invalid catalog", Cause: err}
	}
	return c, nil
}

// Parse unmarshals catalog YAML, applies defaults, and validates the
// result.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.buildIndex()

	return &c, nil
}

// applyDefaults fills unset fields with built-in values.
func (c *Catalog) applyDefaults() {
	if c.Version == 0 {
		c.Version = CurrentVersion
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = defaultSystemPrompt
	}

	defaults := compactor.DefaultTables()
	if len(c.Compaction.Fillers) == 0 {
		c.Compaction.Fillers = defaults.Fillers
	}
	if len(c.Compaction.Backchannels) == 0 {
		c.Compaction.Backchannels = defaults.Backchannels
	}
	if len(c.Compaction.Abbreviations) == 0 {
		for _, a := range defaults.Abbreviations {
			c.Compaction.Abbreviations = append(c.Compaction.Abbreviations, PhraseAbbreviation{
				Phrase:  a.Phrase,
				Acronym: a.Acronym,
			})
		}
	}
}

// Validate checks the catalog for structural problems. All problems are
// collected rather than stopping at the first.
func (c *Catalog) Validate() error {
	errList := &ErrorList{}

	if c.Version != CurrentVersion {
		errList.Add(&ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported catalog version %d, this build supports version %d", c.Version, CurrentVersion),
		})
	}

	if len(c.Sections) == 0 {
		errList.Add(&ValidationError{
			Field:   "sections",
			Message: "catalog must define at least one section",
		})
	}

	seen := make(map[string]bool, len(c.Sections))
	for i, s := range c.Sections {
		field := fmt.Sprintf("sections[%d]", i)

		if s.ID == "" {
			errList.Add(&ValidationError{Field: field + ".id", Message: "section id cannot be empty"})
		} else if !sectionIDPattern.MatchString(s.ID) {
			errList.Add(&ValidationError{
				SectionID: s.ID,
				Field:     field + ".id",
				Message:   "section id must be lowercase snake_case",
			})
		}

		if s.Title == "" {
			errList.Add(&ValidationError{
				SectionID: s.ID,
				Field:     field + ".title",
				Message:   "section title cannot be empty",
			})
		}

		if s.ID != "" {
			if seen[s.ID] {
				errList.Add(&ValidationError{
					SectionID: s.ID,
					Field:     field + ".id",
					Message:   "duplicate section id",
				})
			}
			seen[s.ID] = true
		}
	}

	for i, id := range c.Fallbacks {
		if !seen[id] {
			errList.Add(&ValidationError{
				SectionID: id,
				Field:     fmt.Sprintf("fallback_order[%d]", i),
				Message:   "fallback references an unknown section id",
			})
		}
	}

	for i, a := range c.Compaction.Abbreviations {
		if a.Phrase == "" || a.Acronym == "" {
			errList.Add(&ValidationError{
				Field:   fmt.Sprintf("compaction.abbreviations[%d]", i),
				Message: "abbreviation requires both phrase and acronym",
			})
		}
	}

	return errList.ToError()
}

func (c *Catalog) buildIndex() {
	c.titles = make(map[string]string, len(c.Sections))
	for _, s := range c.Sections {
		c.titles[s.ID] = s.Title
	}
}

// Title returns the display title for a section ID and whether the ID
// is part of this catalog.
func (c *Catalog) Title(id string) (string, bool) {
	title, ok := c.titles[id]
	return title, ok
}

// FallbackOrder returns the section IDs consulted when deriving a title
// for a stream that ended without a completion record.
func (c *Catalog) FallbackOrder() []string {
	out := make([]string, len(c.Fallbacks))
	copy(out, c.Fallbacks)
	return out
}

// SectionCount returns the number of sections the catalog defines. It
// feeds progress estimation during decoding.
func (c *Catalog) SectionCount() int {
	return len(c.Sections)
}

// Tables converts the catalog's compaction vocabulary into the
// compactor's table format.
func (c *Catalog) Tables() compactor.Tables {
	t := compactor.Tables{
		Fillers:      c.Compaction.Fillers,
		Backchannels: c.Compaction.Backchannels,
	}
	for _, a := range c.Compaction.Abbreviations {
		t.Abbreviations = append(t.Abbreviations, compactor.Abbreviation{
			Phrase:  a.Phrase,
			Acronym: a.Acronym,
		})
	}
	return t
}
