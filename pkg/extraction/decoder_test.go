package extraction

import (
	"strings"
	"testing"
)

// testCatalog is a minimal SectionCatalog for decoder tests.
type testCatalog struct {
	titles map[string]string
	order  []string
}

func (c *testCatalog) Title(id string) (string, bool) {
	title, ok := c.titles[id]
	return title, ok
}

func (c *testCatalog) FallbackOrder() []string {
	return c.order
}

func newTestCatalog() *testCatalog {
	return &testCatalog{
		titles: map[string]string{
			"executive_summary": "Executive Summary",
			"problem_statement": "Problem Statement",
			"decisions":         "Key Decisions",
		},
		order: []string{"executive_summary", "problem_statement"},
	}
}

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	return NewDecoder(DecoderConfig{
		Catalog:               newTestCatalog(),
		TotalExpectedSections: 8,
	})
}

func collectByType(events []Event, eventType string) []Event {
	var out []Event
	for _, ev := range events {
		if ev.EventType() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// ==== Feed Tests ====

func TestDecoder_FeedSingleSection(t *testing.T) {
	dec := newTestDecoder(t)

	events, err := dec.Feed(`{"type":"section","sectionId":"decisions","content":"Ship in Q3.","confidence":"high","sources":["standup.vtt"]}` + "\n")
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events (progress, section), got %d", len(events))
	}

	progress, ok := events[0].(ProgressEvent)
	if !ok {
		t.Fatalf("expected first event to be ProgressEvent, got %T", events[0])
	}
	if progress.Stage != StageAnalyzing {
		t.Errorf("expected stage %q, got %q", StageAnalyzing, progress.Stage)
	}
	if progress.Percent != 20 {
		t.Errorf("expected percent 20 for 1/8 sections, got %d", progress.Percent)
	}

	section, ok := events[1].(SectionEvent)
	if !ok {
		t.Fatalf("expected second event to be SectionEvent, got %T", events[1])
	}
	if section.ID != "decisions" {
		t.Errorf("expected section id 'decisions', got %q", section.ID)
	}
	if section.Title != "Key Decisions" {
		t.Errorf("expected catalog title 'Key Decisions', got %q", section.Title)
	}
	if section.Confidence != ConfidenceHigh {
		t.Errorf("expected confidence 'high', got %q", section.Confidence)
	}
	if len(section.Sources) != 1 || section.Sources[0] != "standup.vtt" {
		t.Errorf("unexpected sources: %v", section.Sources)
	}
}

func TestDecoder_SplitAcrossFeeds(t *testing.T) {
	dec := newTestDecoder(t)

	first, err := dec.Feed(`{"type":"section","sectionId":"decisions","content":"Agreed."}` + "\n" + `{"type":"comp`)
	if err != nil {
		t.Fatalf("first Feed returned error: %v", err)
	}

	second, err := dec.Feed(`lete","suggestedTitle":"X"}` + "\n")
	if err != nil {
		t.Fatalf("second Feed returned error: %v", err)
	}

	all := append(first, second...)

	sections := collectByType(all, EventTypeSection)
	if len(sections) != 1 {
		t.Fatalf("expected exactly 1 section event, got %d", len(sections))
	}

	completes := collectByType(all, EventTypeComplete)
	if len(completes) != 1 {
		t.Fatalf("expected exactly 1 complete event, got %d", len(completes))
	}
	complete := completes[0].(CompleteEvent)
	if complete.Title != "X" {
		t.Errorf("expected complete title 'X', got %q", complete.Title)
	}
}

func TestDecoder_ByteAtATime(t *testing.T) {
	dec := newTestDecoder(t)

	stream := `{"type":"section","sectionId":"decisions","content":"Agreed."}` + "\n" +
		`{"type":"complete","suggestedTitle":"Roadmap Sync"}` + "\n"

	var all []Event
	for _, b := range []byte(stream) {
		events, err := dec.Feed(string(b))
		if err != nil {
			t.Fatalf("Feed returned error: %v", err)
		}
		all = append(all, events...)
	}

	if len(collectByType(all, EventTypeSection)) != 1 {
		t.Errorf("expected 1 section event from byte-wise feed, got %d", len(collectByType(all, EventTypeSection)))
	}
	completes := collectByType(all, EventTypeComplete)
	if len(completes) != 1 {
		t.Fatalf("expected 1 complete event from byte-wise feed, got %d", len(completes))
	}
	if title := completes[0].(CompleteEvent).Title; title != "Roadmap Sync" {
		t.Errorf("expected title 'Roadmap Sync', got %q", title)
	}
}

func TestDecoder_MalformedLineTolerated(t *testing.T) {
	dec := newTestDecoder(t)

	stream := `{"type":"section","sectionId":"a","content":"one"}` + "\n" +
		`{this is not valid json` + "\n" +
		`{"type":"section","sectionId":"b","content":"two"}` + "\n"

	events, err := dec.Feed(stream)
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}

	sections := collectByType(events, EventTypeSection)
	if len(sections) != 2 {
		t.Fatalf("expected exactly 2 section events around malformed line, got %d", len(sections))
	}
	if sections[0].(SectionEvent).ID != "a" || sections[1].(SectionEvent).ID != "b" {
		t.Errorf("section order not preserved: %q, %q",
			sections[0].(SectionEvent).ID, sections[1].(SectionEvent).ID)
	}
}

func TestDecoder_SkipsNonRecordLines(t *testing.T) {
	dec := newTestDecoder(t)

	events, err := dec.Feed("\n   \nplain prose, not a record\n")
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events from blank and prose lines, got %d", len(events))
	}
}

func TestDecoder_UnknownRecordTypeIgnored(t *testing.T) {
	dec := newTestDecoder(t)

	events, err := dec.Feed(`{"type":"heartbeat"}` + "\n")
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events for unrecognized record type, got %d", len(events))
	}
}

func TestDecoder_UnknownSectionIDUsesRawID(t *testing.T) {
	dec := newTestDecoder(t)

	events, err := dec.Feed(`{"type":"section","sectionId":"totally_new","content":"x"}` + "\n")
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}

	sections := collectByType(events, EventTypeSection)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section event, got %d", len(sections))
	}
	if title := sections[0].(SectionEvent).Title; title != "totally_new" {
		t.Errorf("expected raw id as title fallback, got %q", title)
	}
}

func TestDecoder_DefaultsConfidenceAndSources(t *testing.T) {
	dec := newTestDecoder(t)

	events, err := dec.Feed(`{"type":"section","sectionId":"a","content":"x"}` + "\n")
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}

	section := collectByType(events, EventTypeSection)[0].(SectionEvent)
	if section.Confidence != ConfidenceLow {
		t.Errorf("expected default confidence 'low', got %q", section.Confidence)
	}
	if section.Sources == nil {
		t.Error("expected non-nil sources slice")
	}
	if len(section.Sources) != 0 {
		t.Errorf("expected empty sources, got %v", section.Sources)
	}
}

func TestDecoder_UnrecognizedConfidenceNormalized(t *testing.T) {
	dec := newTestDecoder(t)

	events, err := dec.Feed(`{"type":"section","sectionId":"a","content":"x","confidence":"certain"}` + "\n")
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}

	section := collectByType(events, EventTypeSection)[0].(SectionEvent)
	if section.Confidence != ConfidenceLow {
		t.Errorf("expected unrecognized confidence normalized to 'low', got %q", section.Confidence)
	}
}

// ==== Progress Tests ====

func TestDecoder_StageProgression(t *testing.T) {
	dec := NewDecoder(DecoderConfig{
		Catalog:               newTestCatalog(),
		TotalExpectedSections: 10,
	})

	wantStages := map[int]string{
		1: StageAnalyzing,
		3: StageAnalyzing,
		4: StageExtracting,
		7: StageExtracting,
		8: StageMapping,
	}

	for i := 1; i <= 8; i++ {
		events, err := dec.Feed(`{"type":"section","sectionId":"a","content":"x"}` + "\n")
		if err != nil {
			t.Fatalf("Feed %d returned error: %v", i, err)
		}
		progress := collectByType(events, EventTypeProgress)[0].(ProgressEvent)

		if want, checked := wantStages[i]; checked && progress.Stage != want {
			t.Errorf("section %d: expected stage %q, got %q", i, want, progress.Stage)
		}
	}
}

func TestDecoder_PercentMonotonicAndCapped(t *testing.T) {
	dec := newTestDecoder(t)

	last := 0
	for i := 0; i < 20; i++ {
		events, err := dec.Feed(`{"type":"section","sectionId":"a","content":"x"}` + "\n")
		if err != nil {
			t.Fatalf("Feed returned error: %v", err)
		}
		progress := collectByType(events, EventTypeProgress)[0].(ProgressEvent)

		if progress.Percent < last {
			t.Errorf("percent decreased from %d to %d", last, progress.Percent)
		}
		if progress.Percent > 90 {
			t.Errorf("percent exceeded cap: %d", progress.Percent)
		}
		last = progress.Percent
	}

	if last != 90 {
		t.Errorf("expected percent pinned at 90 after overshoot, got %d", last)
	}
}

func TestDecoder_CompleteCarriesHundredPercent(t *testing.T) {
	dec := newTestDecoder(t)

	events, err := dec.Feed(`{"type":"complete","suggestedTitle":"Done"}` + "\n")
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}

	progress := collectByType(events, EventTypeProgress)[0].(ProgressEvent)
	if progress.Stage != StageComplete {
		t.Errorf("expected stage 'complete', got %q", progress.Stage)
	}
	if progress.Percent != 100 {
		t.Errorf("expected percent 100, got %d", progress.Percent)
	}
}

// ==== Finish Tests ====

func TestDecoder_FinishSynthesizesComplete(t *testing.T) {
	dec := newTestDecoder(t)

	for i := 0; i < 3; i++ {
		if _, err := dec.Feed(`{"type":"section","sectionId":"a","content":"x"}` + "\n"); err != nil {
			t.Fatalf("Feed returned error: %v", err)
		}
	}

	events, err := dec.Finish()
	if err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}

	completes := collectByType(events, EventTypeComplete)
	if len(completes) != 1 {
		t.Fatalf("expected exactly 1 synthesized complete event, got %d", len(completes))
	}

	complete := completes[0].(CompleteEvent)
	if !strings.Contains(complete.Notes, "3") {
		t.Errorf("expected note to mention the section count 3, got %q", complete.Notes)
	}
	if !strings.Contains(complete.Notes, "auto-generated") {
		t.Errorf("expected note to say the title was auto-generated, got %q", complete.Notes)
	}
}

func TestDecoder_FinishParsesTrailingComplete(t *testing.T) {
	dec := newTestDecoder(t)

	// No trailing newline: the complete record sits in the buffer.
	if _, err := dec.Feed(`{"type":"complete","suggestedTitle":"Trailing","notes":"n"}`); err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}

	events, err := dec.Finish()
	if err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}

	completes := collectByType(events, EventTypeComplete)
	if len(completes) != 1 {
		t.Fatalf("expected 1 complete event from trailing buffer, got %d", len(completes))
	}
	complete := completes[0].(CompleteEvent)
	if complete.Title != "Trailing" {
		t.Errorf("expected title 'Trailing', got %q", complete.Title)
	}
	if strings.Contains(complete.Notes, "auto-generated") {
		t.Error("trailing complete record should not be marked auto-generated")
	}
}

func TestDecoder_FallbackTitleFromPreferredSection(t *testing.T) {
	dec := newTestDecoder(t)

	stream := `{"type":"section","sectionId":"decisions","content":"Ship it."}` + "\n" +
		`{"type":"section","sectionId":"executive_summary","content":"## Heading\nQ3 roadmap is on track."}` + "\n"
	if _, err := dec.Feed(stream); err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}

	events, err := dec.Finish()
	if err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}

	complete := collectByType(events, EventTypeComplete)[0].(CompleteEvent)
	if complete.Title != "Heading" {
		t.Errorf("expected title from first non-empty summary line with markers stripped, got %q", complete.Title)
	}
}

func TestDecoder_FallbackTitleTruncated(t *testing.T) {
	dec := newTestDecoder(t)

	long := strings.Repeat("word ", 30)
	if _, err := dec.Feed(`{"type":"section","sectionId":"executive_summary","content":"` + strings.TrimSpace(long) + `"}` + "\n"); err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}

	events, err := dec.Finish()
	if err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}

	complete := collectByType(events, EventTypeComplete)[0].(CompleteEvent)
	if len([]rune(complete.Title)) != maxFallbackTitleLen+3 {
		t.Errorf("expected truncated title of %d runes plus ellipsis, got %d runes (%q)",
			maxFallbackTitleLen, len([]rune(complete.Title)), complete.Title)
	}
	if !strings.HasSuffix(complete.Title, "...") {
		t.Errorf("expected ellipsis suffix on truncated title, got %q", complete.Title)
	}
}

func TestDecoder_FallbackTitleFromFirstItemID(t *testing.T) {
	dec := NewDecoder(DecoderConfig{
		Catalog:     newTestCatalog(),
		FirstItemID: "meetings/q3-roadmap_sync.vtt",
	})

	events, err := dec.Finish()
	if err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}

	complete := collectByType(events, EventTypeComplete)[0].(CompleteEvent)
	if complete.Title != "q3 roadmap sync" {
		t.Errorf("expected title derived from item id, got %q", complete.Title)
	}
}

func TestDecoder_FallbackTitleGenericPlaceholder(t *testing.T) {
	dec := newTestDecoder(t)

	events, err := dec.Finish()
	if err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}

	complete := collectByType(events, EventTypeComplete)[0].(CompleteEvent)
	if complete.Title != DefaultTitle {
		t.Errorf("expected generic placeholder title, got %q", complete.Title)
	}
}

// ==== Lifecycle Tests ====

func TestDecoder_FeedAfterFinish(t *testing.T) {
	dec := newTestDecoder(t)

	if _, err := dec.Finish(); err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}

	events, err := dec.Feed(`{"type":"section","sectionId":"a","content":"x"}` + "\n")
	if err != ErrDecoderFinished {
		t.Errorf("expected ErrDecoderFinished, got %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events after finish, got %d", len(events))
	}
}

func TestDecoder_DoubleFinish(t *testing.T) {
	dec := newTestDecoder(t)

	if _, err := dec.Finish(); err != nil {
		t.Fatalf("first Finish returned error: %v", err)
	}
	if _, err := dec.Finish(); err != ErrDecoderFinished {
		t.Errorf("expected ErrDecoderFinished on second Finish, got %v", err)
	}
}

func TestDecoder_NoSecondTerminalAfterComplete(t *testing.T) {
	dec := newTestDecoder(t)

	if _, err := dec.Feed(`{"type":"complete","suggestedTitle":"X"}` + "\n"); err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}

	events, err := dec.Finish()
	if err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no synthesized events after explicit complete, got %d", len(events))
	}
}

func TestDecoder_Abort(t *testing.T) {
	dec := newTestDecoder(t)

	if _, err := dec.Feed(`{"type":"section","sectionId":"a","content":"x"}` + "\n"); err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}

	events := dec.Abort("connection reset by peer")
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 error event from Abort, got %d", len(events))
	}
	errEvent, ok := events[0].(ErrorEvent)
	if !ok {
		t.Fatalf("expected ErrorEvent, got %T", events[0])
	}
	if errEvent.Message != "connection reset by peer" {
		t.Errorf("expected verbatim transport message, got %q", errEvent.Message)
	}
	if !errEvent.Terminal() {
		t.Error("error event must be terminal")
	}

	if _, err := dec.Feed("more"); err != ErrDecoderFinished {
		t.Errorf("expected ErrDecoderFinished after abort, got %v", err)
	}
	if again := dec.Abort("second"); len(again) != 0 {
		t.Errorf("expected no events from repeated abort, got %d", len(again))
	}
}

// ==== Benchmarks ====

func BenchmarkDecoder_Feed(b *testing.B) {
	line := `{"type":"section","sectionId":"decisions","content":"We agreed to ship the Q3 roadmap on schedule.","confidence":"high","sources":["standup.vtt"]}` + "\n"
	catalog := newTestCatalog()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dec := NewDecoder(DecoderConfig{Catalog: catalog})
		if _, err := dec.Feed(line); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecoder_FeedFragmented(b *testing.B) {
	line := `{"type":"section","sectionId":"decisions","content":"We agreed to ship the Q3 roadmap on schedule."}` + "\n"
	catalog := newTestCatalog()
	half := len(line) / 2

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dec := NewDecoder(DecoderConfig{Catalog: catalog})
		if _, err := dec.Feed(line[:half]); err != nil {
			b.Fatal(err)
		}
		if _, err := dec.Feed(line[half:]); err != nil {
			b.Fatal(err)
		}
	}
}
