package compactor

import (
	"errors"
	"strings"
	"testing"
)

// buildColonTranscript generates a deterministic colon-format transcript of
// at least minChars characters, mixing filler-heavy content lines with
// backchannel acknowledgments.
func buildColonTranscript(minChars int) string {
	sentences := []string{
		"So, um, I think we should, you know, finalize the rollout plan for the ingestion service before the sprint review on Thursday.",
		"Well, uh, the latency numbers from the load test were basically, fine for every region we checked last week, I mean, genuinely fine.",
		"We are gonna need sign-off from the platform team, and, um, the security review has to happen before the end of the week anyway.",
		"Honestly, you know, the migration script is basically, ninety percent done and the remaining work is, um, cleanup and documentation.",
	}
	backchannels := []string{"Yeah", "Okay", "Got it", "Sounds good", "Makes sense"}
	speakers := []string{"Alice Chen", "Bob Martinez", "Priya Patel", "Dan Wright"}

	var b strings.Builder
	for i := 0; b.Len() < minChars; i++ {
		speaker := speakers[i%len(speakers)]
		if i%2 == 1 {
			b.WriteString(speaker + ": " + backchannels[i%len(backchannels)] + "\n")
		} else {
			b.WriteString(speaker + ": " + sentences[i%len(sentences)] + "\n")
		}
	}
	return b.String()
}

// ==== Fast Path Tests ====

func TestCompactFastPathUnchanged(t *testing.T) {
	c := New(DefaultTables())
	text := "Alice: short transcript that fits the budget easily."

	result := c.Compact(CompactionRequest{Text: text, TargetChars: len(text) + 1})

	if result.WasProcessed {
		t.Error("expected WasProcessed=false on fast path")
	}
	if result.Content != text {
		t.Error("expected content returned byte-identical")
	}
	if result.OriginalChars != len(text) || result.FinalChars != len(text) {
		t.Errorf("expected counts %d/%d, got %d/%d",
			len(text), len(text), result.OriginalChars, result.FinalChars)
	}
	if result.ReductionPercent != 0 {
		t.Errorf("expected zero reduction, got %v", result.ReductionPercent)
	}
}

func TestCompactExactBudgetBoundary(t *testing.T) {
	c := New(DefaultTables())
	text := buildColonTranscript(50000)[:50000]

	result := c.Compact(CompactionRequest{Text: text, TargetChars: 50000})

	if result.WasProcessed {
		t.Error("expected input of exactly the budget size returned unchanged")
	}
	if result.Content != text {
		t.Error("expected content unchanged at the exact boundary")
	}
}

// ==== Budget Scenarios ====

func TestCompactSixtyThousandCharTranscript(t *testing.T) {
	c := New(DefaultTables())
	text := buildColonTranscript(60000)[:60000]

	result := c.Compact(CompactionRequest{Text: text, TargetChars: 50000})

	if !result.WasProcessed {
		t.Fatal("expected WasProcessed=true for oversized input")
	}
	if result.FinalChars > 50000 {
		t.Errorf("expected FinalChars <= 50000, got %d", result.FinalChars)
	}
	if result.FinalChars != len(result.Content) {
		t.Errorf("FinalChars %d disagrees with content length %d",
			result.FinalChars, len(result.Content))
	}
	if result.ReductionPercent <= 0 {
		t.Errorf("expected positive reduction percent, got %v", result.ReductionPercent)
	}
	if result.OriginalChars != 60000 {
		t.Errorf("expected OriginalChars 60000, got %d", result.OriginalChars)
	}
	if len(result.SpeakerMap) == 0 {
		t.Error("expected a populated speaker map")
	}
}

func TestCompactBudgetConvergence(t *testing.T) {
	c := New(DefaultTables())
	text := buildColonTranscript(60000)[:60000]

	normal := c.Compact(CompactionRequest{Text: text, TargetChars: 20000})
	aggressive := c.Compact(CompactionRequest{Text: text, TargetChars: 20000, Aggressive: true})

	if aggressive.FinalChars > normal.FinalChars {
		t.Errorf("aggressive output (%d chars) must not exceed normal output (%d chars)",
			aggressive.FinalChars, normal.FinalChars)
	}
}

func TestCompactDeterministic(t *testing.T) {
	c := New(DefaultTables())
	text := buildColonTranscript(60000)[:60000]
	req := CompactionRequest{Text: text, TargetChars: 50000}

	first := c.Compact(req)
	second := c.Compact(req)

	if first.Content != second.Content {
		t.Error("expected byte-identical output across runs")
	}
	if first.FinalChars != second.FinalChars || first.MinUtteranceLength != second.MinUtteranceLength {
		t.Errorf("expected identical stats across runs: %d/%d vs %d/%d",
			first.FinalChars, first.MinUtteranceLength,
			second.FinalChars, second.MinUtteranceLength)
	}
}

// ==== Pipeline Behavior Tests ====

func TestCompactAbbreviatesSpeakers(t *testing.T) {
	c := New(DefaultTables())
	// Padding pushes the input over a small budget so the pipeline runs.
	text := "Alice Chen: " + strings.Repeat("the plan is solid and the dates hold. ", 6) + "\n" +
		"Bob Martinez: agreed on every point raised so far today.\n"

	result := c.Compact(CompactionRequest{Text: text, TargetChars: len(text) - 1})

	if !strings.Contains(result.Content, "[AC]") {
		t.Errorf("expected abbreviated speaker token [AC] in output: %q", result.Content)
	}
	if result.SpeakerMap["Alice Chen"] != "AC" {
		t.Errorf("expected speaker map entry Alice Chen->AC, got %v", result.SpeakerMap)
	}
	if strings.Contains(result.Content, "Alice Chen:") {
		t.Error("expected full speaker prefixes replaced")
	}
}

func TestCompactRemovesFillers(t *testing.T) {
	c := New(DefaultTables())
	text := "Alice: So, um, I think we should, you know, ship it this week for sure.\n" +
		"Bob: " + strings.Repeat("agreed and aligned on that point. ", 4) + "\n"

	result := c.Compact(CompactionRequest{Text: text, TargetChars: len(text) - 1})

	lower := strings.ToLower(result.Content)
	if strings.Contains(lower, " um") {
		t.Errorf("expected filler 'um' removed: %q", result.Content)
	}
	if strings.Contains(lower, "you know,") {
		t.Errorf("expected filler 'you know,' removed: %q", result.Content)
	}
}

func TestCompactDropsBackchannels(t *testing.T) {
	c := New(DefaultTables())
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Alice Chen: the deployment pipeline needs a full dry run before we cut the release branch.\n")
		b.WriteString("Bob: Yeah\n")
	}
	text := b.String()

	// A budget low enough to force a reduction pass, reachable by dropping
	// only the backchannel lines.
	result := c.Compact(CompactionRequest{Text: text, TargetChars: len(text) - 500})

	if strings.Contains(result.Content, "Yeah") {
		t.Errorf("expected backchannel utterances dropped: %q", result.Content)
	}
	if result.MinUtteranceLength < thresholdStep {
		t.Errorf("expected at least one reduction pass, threshold %d", result.MinUtteranceLength)
	}
}

func TestCompactPreservesTimestamps(t *testing.T) {
	c := New(DefaultTables())
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("[Alice Chen] 00:03:12 the rollout plan needs one more review before the freeze.\n")
		b.WriteString("[Bob] 00:03:40 the freeze date is already on the calendar for everyone.\n")
	}
	text := b.String()

	with := c.Compact(CompactionRequest{Text: text, TargetChars: len(text) - 1, PreserveTimestamps: true})
	without := c.Compact(CompactionRequest{Text: text, TargetChars: len(text) - 1})

	if !strings.Contains(with.Content, "00:03:12") {
		t.Error("expected timestamps kept when PreserveTimestamps is set")
	}
	if strings.Contains(without.Content, "00:03:12") {
		t.Error("expected timestamps dropped by default")
	}
}

func TestCompactPhraseAbbreviationFallback(t *testing.T) {
	c := New(DefaultTables())
	sentence := "the minimum viable product scope needs to be locked so the proof of concept can be evaluated against the minimum viable product criteria we wrote down during planning last month."
	text := "Alice Chen: " + sentence + "\n" + "Bob Martinez: " + sentence + "\n" + "Priya Patel: " + sentence + "\n"

	// Every utterance is far longer than the threshold ceiling, so only the
	// substitution table can shrink the output.
	result := c.Compact(CompactionRequest{Text: text, TargetChars: len(text) - 60})

	if strings.Contains(strings.ToLower(result.Content), "minimum viable product") {
		t.Errorf("expected phrase replaced by acronym: %q", result.Content)
	}
	if !strings.Contains(result.Content, "MVP") {
		t.Errorf("expected MVP acronym in output: %q", result.Content)
	}
	if result.FinalChars >= result.OriginalChars {
		t.Errorf("expected output smaller than input, got %d >= %d",
			result.FinalChars, result.OriginalChars)
	}
}

func TestCompactToBudgetTwoPhase(t *testing.T) {
	c := New(DefaultTables())
	text := buildColonTranscript(60000)[:60000]

	result, err := c.CompactToBudget(text, 50000, false)
	if err != nil {
		t.Fatalf("CompactToBudget returned error: %v", err)
	}
	if result.FinalChars > 50000 {
		t.Errorf("expected result within budget, got %d", result.FinalChars)
	}
}

func TestCompactToBudgetRejectsIrreducibleInput(t *testing.T) {
	c := New(DefaultTables())
	// One giant unbroken utterance: nothing to drop, nothing to abbreviate.
	text := "Alice: " + strings.Repeat("a", 60000)

	_, err := c.CompactToBudget(text, 50000, false)
	if err == nil {
		t.Fatal("expected InputTooLargeError for irreducible input")
	}

	var tooLarge *InputTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected InputTooLargeError, got %T: %v", err, err)
	}
	if tooLarge.OriginalChars != len(text) {
		t.Errorf("expected original count %d, got %d", len(text), tooLarge.OriginalChars)
	}
	if tooLarge.CleanedChars <= 50000 {
		t.Errorf("expected cleaned count still over budget, got %d", tooLarge.CleanedChars)
	}
	if tooLarge.TargetChars != 50000 {
		t.Errorf("expected target 50000 in error, got %d", tooLarge.TargetChars)
	}
	if !strings.Contains(err.Error(), "50000") {
		t.Errorf("expected budget in error message: %v", err)
	}
}

// ==== Cleanup Tests ====

func TestCleanTextFillerRemoval(t *testing.T) {
	tables := compileTables(DefaultTables())

	cases := []struct {
		in   string
		want string
	}{
		{"I was, um, thinking about it", "I was, thinking about it"},
		{"Um, yes", "yes"},
		{"We're gonna ship it!!", "We're ship it!"},
		{"you know, the plan holds", "the plan holds"},
		{"done.Next steps tomorrow", "done. Next steps tomorrow"},
		{"pi is 3.14 exactly", "pi is 3.14 exactly"},
		{"crummy summary stays intact", "crummy summary stays intact"},
	}

	for _, tc := range cases {
		if got := cleanText(tc.in, tables); got != tc.want {
			t.Errorf("cleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanTextWordBoundaries(t *testing.T) {
	tables := compileTables(DefaultTables())

	// "um" inside words must survive.
	got := cleanText("the volume and momentum numbers look good", tables)
	if got != "the volume and momentum numbers look good" {
		t.Errorf("word-boundary matching broke embedded text: %q", got)
	}
}

// ==== Benchmarks ====

func BenchmarkCompactor_Compact(b *testing.B) {
	c := New(DefaultTables())
	text := buildColonTranscript(60000)[:60000]
	req := CompactionRequest{Text: text, TargetChars: 50000}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Compact(req)
	}
}

func BenchmarkCompactor_FastPath(b *testing.B) {
	c := New(DefaultTables())
	text := buildColonTranscript(4000)
	req := CompactionRequest{Text: text, TargetChars: len(text) + 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Compact(req)
	}
}
