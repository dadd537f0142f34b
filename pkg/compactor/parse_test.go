package compactor

import "testing"

// ==== Caption Format Tests ====

func TestParseCaptionFormat(t *testing.T) {
	text := `WEBVTT

1
00:00:01.000 --> 00:00:03.500
<v Alice Chen>Good morning everyone.

2
00:00:03.600 --> 00:00:05.000
Let's get started with the agenda.

3
00:00:05.100 --> 00:00:07.000
<v Bob>Morning! Ready when you are.
`

	utterances := parseUtterances(text)
	if len(utterances) != 3 {
		t.Fatalf("expected 3 utterances, got %d: %+v", len(utterances), utterances)
	}

	if utterances[0].Speaker != "Alice Chen" {
		t.Errorf("expected voice tag speaker 'Alice Chen', got %q", utterances[0].Speaker)
	}
	if utterances[0].Timestamp != "00:00:01" {
		t.Errorf("expected start timestamp without millis, got %q", utterances[0].Timestamp)
	}
	if utterances[0].Text != "Good morning everyone." {
		t.Errorf("unexpected text: %q", utterances[0].Text)
	}

	// Block without a voice tag continues the current speaker.
	if utterances[1].Speaker != "Alice Chen" {
		t.Errorf("expected continuation speaker 'Alice Chen', got %q", utterances[1].Speaker)
	}
	if utterances[1].Timestamp != "00:00:03" {
		t.Errorf("expected second block timestamp, got %q", utterances[1].Timestamp)
	}

	if utterances[2].Speaker != "Bob" {
		t.Errorf("expected speaker 'Bob', got %q", utterances[2].Speaker)
	}
}

func TestParseCaptionCommaMillis(t *testing.T) {
	text := "1\n00:00:01,000 --> 00:00:04,000\nHello there.\n"

	utterances := parseUtterances(text)
	if len(utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(utterances))
	}
	if utterances[0].Speaker != UnknownSpeaker {
		t.Errorf("expected unknown speaker before any voice tag, got %q", utterances[0].Speaker)
	}
	if utterances[0].Timestamp != "00:00:01" {
		t.Errorf("expected timestamp '00:00:01', got %q", utterances[0].Timestamp)
	}
}

func TestParseCaptionClosingVoiceTag(t *testing.T) {
	text := "00:00:01.000 --> 00:00:02.000\n<v Priya>Thanks all.</v>\n"

	utterances := parseUtterances(text)
	if len(utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(utterances))
	}
	if utterances[0].Text != "Thanks all." {
		t.Errorf("expected closing tag stripped, got %q", utterances[0].Text)
	}
}

// ==== Freeform Format Tests ====

func TestParseBracketedLines(t *testing.T) {
	text := "[Alice Chen] 00:03:12 We should ship on Thursday.\n[Bob] 00:03:40 Agreed.\n"

	utterances := parseUtterances(text)
	if len(utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utterances))
	}
	if utterances[0].Speaker != "Alice Chen" || utterances[0].Timestamp != "00:03:12" {
		t.Errorf("unexpected first utterance: %+v", utterances[0])
	}
	if utterances[0].Text != "We should ship on Thursday." {
		t.Errorf("unexpected text: %q", utterances[0].Text)
	}
}

func TestParseParenthesizedLines(t *testing.T) {
	text := "Alice Chen (00:03): We should ship on Thursday.\nBob (00:04): Agreed.\n"

	utterances := parseUtterances(text)
	if len(utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utterances))
	}
	if utterances[0].Speaker != "Alice Chen" {
		t.Errorf("expected speaker 'Alice Chen', got %q", utterances[0].Speaker)
	}
	if utterances[0].Timestamp != "00:03" {
		t.Errorf("expected timestamp '00:03', got %q", utterances[0].Timestamp)
	}
}

func TestParseColonLines(t *testing.T) {
	text := "Alice: We should ship on Thursday.\nBob: Agreed, let's do it.\n"

	utterances := parseUtterances(text)
	if len(utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utterances))
	}
	if utterances[0].Speaker != "Alice" || utterances[1].Speaker != "Bob" {
		t.Errorf("unexpected speakers: %q, %q", utterances[0].Speaker, utterances[1].Speaker)
	}
}

func TestParseColonRejectsURLs(t *testing.T) {
	text := "Alice: check the doc\nhttps://example.com/runbook has the details\n"

	utterances := parseUtterances(text)
	if len(utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utterances))
	}
	// The URL line continues Alice rather than creating an "https" speaker.
	if utterances[1].Speaker != "Alice" {
		t.Errorf("expected URL line to continue current speaker, got %q", utterances[1].Speaker)
	}
}

func TestParseColonRejectsBareTimestamps(t *testing.T) {
	text := "12:30 lunch break\n"

	utterances := parseUtterances(text)
	if len(utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(utterances))
	}
	if utterances[0].Speaker != UnknownSpeaker {
		t.Errorf("expected numeric prefix to stay unattributed, got speaker %q", utterances[0].Speaker)
	}
}

func TestParseColonRejectsLongPrefix(t *testing.T) {
	long := "This sentence happens to contain a colon after quite a few words"
	text := long + ": and then more\n"

	utterances := parseUtterances(text)
	if len(utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(utterances))
	}
	if utterances[0].Speaker != UnknownSpeaker {
		t.Errorf("expected long prefix rejected as speaker, got %q", utterances[0].Speaker)
	}
}

func TestParseContinuationLines(t *testing.T) {
	text := "Alice: first thought\nsecond thought on its own line\nBob: reply\n"

	utterances := parseUtterances(text)
	if len(utterances) != 3 {
		t.Fatalf("expected 3 utterances, got %d", len(utterances))
	}
	if utterances[1].Speaker != "Alice" {
		t.Errorf("expected continuation attributed to Alice, got %q", utterances[1].Speaker)
	}
}

func TestParseLeadingUnattributedText(t *testing.T) {
	text := "agenda review notes\nAlice: hello\n"

	utterances := parseUtterances(text)
	if len(utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utterances))
	}
	if utterances[0].Speaker != UnknownSpeaker {
		t.Errorf("expected leading text attributed to %q, got %q", UnknownSpeaker, utterances[0].Speaker)
	}
}

// ==== Merge Tests ====

func TestMergeConsecutive(t *testing.T) {
	in := []Utterance{
		{Speaker: "Alice", Timestamp: "00:01", Text: "first"},
		{Speaker: "Alice", Text: "second"},
		{Speaker: "Bob", Text: "reply"},
		{Speaker: "Alice", Text: "third"},
	}

	merged := mergeConsecutive(in)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged utterances, got %d", len(merged))
	}
	if merged[0].Text != "first second" {
		t.Errorf("expected space-joined text, got %q", merged[0].Text)
	}
	if merged[0].Timestamp != "00:01" {
		t.Errorf("expected first timestamp kept, got %q", merged[0].Timestamp)
	}
	if merged[2].Text != "third" {
		t.Errorf("non-consecutive same-speaker utterances must not merge, got %q", merged[2].Text)
	}
}

func TestMergeEmpty(t *testing.T) {
	if out := mergeConsecutive(nil); len(out) != 0 {
		t.Errorf("expected empty result for empty input, got %d", len(out))
	}
}
