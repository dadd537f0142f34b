package extraction

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
)

// SectionCatalog resolves section identifiers to display titles and orders
// the candidates used when synthesizing a fallback title.
type SectionCatalog interface {
	// Title returns the display title for a section id. The second return
	// value is false when the id is not in the catalog.
	Title(id string) (string, bool)

	// FallbackOrder returns section ids in preference order for fallback
	// title derivation.
	FallbackOrder() []string
}

// Decoder session states.
type decoderState int

const (
	stateIdle decoderState = iota
	stateStreaming
	stateFinished
)

const (
	// defaultExpectedSections matches the size of the built-in section
	// catalog and is used when the caller does not set a denominator.
	defaultExpectedSections = 8

	// maxFallbackTitleLen bounds synthesized titles.
	maxFallbackTitleLen = 60
)

// record is one line of the upstream model's line-delimited output. The
// model emits self-describing JSON records, one per line, with a type
// discriminator; lines may be split across deltas at arbitrary byte
// boundaries.
type record struct {
	Type           string   `json:"type"`
	SectionID      string   `json:"sectionId"`
	Content        string   `json:"content"`
	Confidence     string   `json:"confidence"`
	Sources        []string `json:"sources"`
	SuggestedTitle string   `json:"suggestedTitle"`
	Notes          string   `json:"notes"`
}

// Record type discriminators accepted from the upstream stream.
const (
	recordTypeSection  = "section"
	recordTypeComplete = "complete"
)

// DecoderConfig configures a decoder session.
type DecoderConfig struct {
	// Catalog resolves section ids to titles and orders fallback title
	// candidates. Required.
	Catalog SectionCatalog

	// TotalExpectedSections is the denominator for progress computation.
	// Default: 8
	TotalExpectedSections int

	// FirstItemID seeds the fallback title when no emitted section has
	// usable content. Typically the identifier of the first input item.
	FirstItemID string

	// Logger receives debug records for discarded malformed lines.
	// Default: slog.Default() with component attribute.
	Logger *slog.Logger
}

// Decoder incrementally parses a raw delta stream into typed extraction
// events. One decoder serves exactly one session; it is not safe for
// concurrent use and is discarded when the session ends.
//
// The decoder is self-healing: records split across deltas are reassembled
// via newline buffering, malformed lines are discarded without aborting the
// session, and a missing terminal record is repaired by synthesizing a
// complete event on Finish.
type Decoder struct {
	catalog       SectionCatalog
	totalExpected int
	firstItemID   string
	logger        *slog.Logger

	state           decoderState
	buffer          string
	sectionsSeen    int
	terminalEmitted bool
	sections        []SectionEvent
}

// NewDecoder creates a decoder session.
func NewDecoder(cfg DecoderConfig) *Decoder {
	total := cfg.TotalExpectedSections
	if total <= 0 {
		total = defaultExpectedSections
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "extraction.decoder")
	}

	return &Decoder{
		catalog:       cfg.Catalog,
		totalExpected: total,
		firstItemID:   cfg.FirstItemID,
		logger:        logger,
		state:         stateIdle,
	}
}

// Feed appends a delta to the session buffer and returns the events decoded
// from every newline-completed record it now holds. The trailing fragment
// after the last newline is retained for the next call. Feeding a finished
// session returns ErrDecoderFinished and no events.
func (d *Decoder) Feed(delta string) ([]Event, error) {
	if d.state == stateFinished {
		return nil, ErrDecoderFinished
	}
	d.state = stateStreaming

	d.buffer += delta

	lines := strings.Split(d.buffer, "\n")
	d.buffer = lines[len(lines)-1]

	var events []Event
	for _, line := range lines[:len(lines)-1] {
		events = append(events, d.decodeLine(line)...)
	}

	return events, nil
}

// Finish ends the session. A trailing buffered fragment that parses as a
// complete record is processed normally; if no terminal event has been
// emitted by then, a fallback complete event is synthesized. Finish on an
// already-finished session returns ErrDecoderFinished.
func (d *Decoder) Finish() ([]Event, error) {
	if d.state == stateFinished {
		return nil, ErrDecoderFinished
	}
	d.state = stateFinished

	var events []Event

	trailing := strings.TrimSpace(d.buffer)
	d.buffer = ""
	if trailing != "" && strings.HasPrefix(trailing, "{") {
		var rec record
		if err := json.Unmarshal([]byte(trailing), &rec); err == nil && rec.Type == recordTypeComplete {
			events = append(events, d.decodeComplete(&rec)...)
		}
	}

	if !d.terminalEmitted {
		events = append(events, d.synthesizeComplete()...)
	}

	return events, nil
}

// Abort terminates the session with a transport failure. It returns the
// single terminal error event carrying the upstream message verbatim.
// Aborting an already-finished session returns no events.
func (d *Decoder) Abort(message string) []Event {
	if d.state == stateFinished {
		return nil
	}
	d.state = stateFinished
	d.terminalEmitted = true

	return []Event{NewError(message)}
}

// SectionsSeen returns the number of section records decoded so far.
func (d *Decoder) SectionsSeen() int {
	return d.sectionsSeen
}

// decodeLine parses one complete line into zero or more events. Empty
// lines, non-JSON lines, and malformed records produce no events and never
// abort the session.
func (d *Decoder) decodeLine(line string) []Event {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "{") {
		return nil
	}

	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		d.logger.Debug("discarding malformed stream line",
			"error", err,
			"line_length", len(line),
		)
		return nil
	}

	switch rec.Type {
	case recordTypeSection:
		return d.decodeSection(&rec)
	case recordTypeComplete:
		return d.decodeComplete(&rec)
	default:
		d.logger.Debug("ignoring unrecognized record type", "type", rec.Type)
		return nil
	}
}

// decodeSection turns a section record into a progress event followed by
// the section itself.
func (d *Decoder) decodeSection(rec *record) []Event {
	d.sectionsSeen++

	confidence := rec.Confidence
	switch confidence {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		confidence = ConfidenceLow
	}

	sources := rec.Sources
	if sources == nil {
		sources = []string{}
	}

	title, ok := d.catalog.Title(rec.SectionID)
	if !ok {
		title = rec.SectionID
	}

	section := SectionEvent{
		Type:       EventTypeSection,
		ID:         rec.SectionID,
		Title:      title,
		Content:    rec.Content,
		Confidence: confidence,
		Sources:    sources,
	}
	d.sections = append(d.sections, section)

	return []Event{NewProgress(d.stage(), d.percent()), section}
}

// decodeComplete turns a complete record into the terminal progress and
// complete events.
func (d *Decoder) decodeComplete(rec *record) []Event {
	d.terminalEmitted = true

	title := rec.SuggestedTitle
	if title == "" {
		title = DefaultTitle
	}

	complete := CompleteEvent{
		Type:  EventTypeComplete,
		Title: title,
		Notes: rec.Notes,
	}

	return []Event{NewProgress(StageComplete, 100), complete}
}

// stage maps the current section count onto a coarse pipeline stage. The
// first ~30% of expected sections report analyzing, the middle ~45%
// extracting, the rest mapping.
func (d *Decoder) stage() string {
	ratio := float64(d.sectionsSeen) / float64(d.totalExpected)
	switch {
	case ratio <= 0.30:
		return StageAnalyzing
	case ratio <= 0.75:
		return StageExtracting
	default:
		return StageMapping
	}
}

// percent computes monotonic progress capped at 90. The terminal complete
// record is the only path to 100.
func (d *Decoder) percent() int {
	p := 10 + int(math.Round(float64(d.sectionsSeen)/float64(d.totalExpected)*80))
	if p > 90 {
		p = 90
	}
	return p
}

// synthesizeComplete builds the fallback terminal events for a session
// whose upstream stream ended without a complete record.
func (d *Decoder) synthesizeComplete() []Event {
	d.terminalEmitted = true

	complete := CompleteEvent{
		Type:  EventTypeComplete,
		Title: d.fallbackTitle(),
		Notes: fmt.Sprintf("Extracted %d sections. Title was auto-generated because the stream ended without a completion record.", d.sectionsSeen),
	}

	return []Event{NewProgress(StageComplete, 100), complete}
}

// fallbackTitle derives a title from emitted sections in catalog preference
// order, falling back to the first input item's identifier and finally to
// the generic default.
func (d *Decoder) fallbackTitle() string {
	for _, id := range d.catalog.FallbackOrder() {
		for _, section := range d.sections {
			if section.ID != id {
				continue
			}
			if line := firstContentLine(section.Content); line != "" {
				return truncateTitle(line)
			}
		}
	}

	if d.firstItemID != "" {
		return truncateTitle(titleFromItemID(d.firstItemID))
	}

	return DefaultTitle
}

// firstContentLine returns the first non-empty line of content with leading
// heading markers stripped.
func firstContentLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "# ")
		if line != "" {
			return line
		}
	}
	return ""
}

// titleFromItemID turns an input item identifier (often a file path) into a
// readable title.
func titleFromItemID(id string) string {
	base := filepath.Base(id)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	base = strings.TrimSpace(base)
	if base == "" {
		return DefaultTitle
	}
	return base
}

// truncateTitle caps a title at maxFallbackTitleLen runes, appending an
// ellipsis when it was longer.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxFallbackTitleLen {
		return title
	}
	return string(runes[:maxFallbackTitleLen]) + "..."
}
