package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/audit/recorder"
	"mercator-hq/ganymede/pkg/audit/storage"
	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/compactor"
	"mercator-hq/ganymede/pkg/extraction"
	"mercator-hq/ganymede/pkg/quota"
	"mercator-hq/ganymede/pkg/upstream"
)

// testEnv wires a runner against a mock upstream with in-memory audit
// storage.
type testEnv struct {
	runner *Runner
	guard  *quota.Guard
	store  *storage.MemoryStorage
	rec    *recorder.Recorder
}

func newTestEnv(t *testing.T, serverURL string, cfg Config, quotaCfg quota.Config) *testEnv {
	t.Helper()

	store := storage.NewMemoryStorage()
	rec := recorder.NewRecorder(store, nil)

	guard := quota.NewGuard(quotaCfg)
	t.Cleanup(guard.Close)

	client := upstream.NewClient(upstream.Config{
		Name:    "gateway-test",
		BaseURL: serverURL,
		Model:   "extract-test",
	}, nil)
	t.Cleanup(func() { client.Close() })

	runner := NewRunner(cfg, Deps{
		Quota:    guard,
		Catalog:  catalog.NewManager("", 0, nil),
		Upstream: client,
		Recorder: rec,
		Metrics:  NewMetrics(nil),
	})

	return &testEnv{runner: runner, guard: guard, store: store, rec: rec}
}

// auditedRecords drains the recorder and returns everything it stored.
func (e *testEnv) auditedRecords(t *testing.T) []*audit.Record {
	t.Helper()
	if err := e.rec.Close(); err != nil {
		t.Fatalf("failed to close recorder: %v", err)
	}
	records, err := e.store.Query(context.Background(), &audit.Query{})
	if err != nil {
		t.Fatalf("failed to query audit storage: %v", err)
	}
	return records
}

// auditedRecord drains the recorder and returns its single stored record.
func (e *testEnv) auditedRecord(t *testing.T) *audit.Record {
	t.Helper()
	records := e.auditedRecords(t)
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 audit record, got %d", len(records))
	}
	return records[0]
}

type streamDelta struct {
	Delta string `json:"delta"`
}

// ndjsonServer streams each record as one SSE delta and ends with the
// sentinel.
func ndjsonServer(records ...string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, record := range records {
			payload, _ := json.Marshal(streamDelta{Delta: record + "\n"})
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
}

// collectEvents drains the session event channel until it closes.
func collectEvents(t *testing.T, s *Session) []extraction.Event {
	t.Helper()
	var events []extraction.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-s.Events():
			if !ok {
				return events
			}
			events = append(events, event)
		case <-timeout:
			t.Fatal("timed out waiting for session events")
		}
	}
}

func basicRequest() *Request {
	return &Request{
		Identity:  "team-alpha",
		RequestID: "req-001",
		Transport: audit.TransportSSE,
		Items: []Item{
			{ID: "standup.txt", Text: "Alice: We shipped the relay to production.\nBob: Ship the decoder on Friday."},
		},
	}
}

// ==== Session Flow Tests ====

func TestRunnerCompleteSession(t *testing.T) {
	server := ndjsonServer(
		`{"type":"section","sectionId":"executive_summary","content":"Shipped the relay.","confidence":"high","sources":["we shipped"]}`,
		`{"type":"section","sectionId":"decisions","content":"Ship the decoder on Friday.","confidence":"medium","sources":[]}`,
		`{"type":"complete","suggestedTitle":"Platform Sync","notes":""}`,
	)
	defer server.Close()

	env := newTestEnv(t, server.URL, Config{}, quota.Config{})
	req := basicRequest()

	sess, err := env.runner.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	events := collectEvents(t, sess)
	if len(events) != 6 {
		t.Fatalf("expected 6 events (2x progress+section, progress+complete), got %d", len(events))
	}

	progress, ok := events[0].(extraction.ProgressEvent)
	if !ok {
		t.Fatalf("expected first event to be progress, got %T", events[0])
	}
	if progress.Stage != extraction.StageAnalyzing || progress.Percent != 20 {
		t.Errorf("expected analyzing/20 first, got %s/%d", progress.Stage, progress.Percent)
	}

	section, ok := events[1].(extraction.SectionEvent)
	if !ok {
		t.Fatalf("expected second event to be section, got %T", events[1])
	}
	if section.ID != "executive_summary" || section.Title != "Executive Summary" {
		t.Errorf("unexpected section resolution: %s/%s", section.ID, section.Title)
	}

	final, ok := events[4].(extraction.ProgressEvent)
	if !ok || final.Stage != extraction.StageComplete || final.Percent != 100 {
		t.Errorf("expected terminal progress complete/100, got %+v", events[4])
	}
	complete, ok := events[5].(extraction.CompleteEvent)
	if !ok {
		t.Fatalf("expected last event to be complete, got %T", events[5])
	}
	if complete.Title != "Platform Sync" {
		t.Errorf("expected title %q, got %q", "Platform Sync", complete.Title)
	}

	if err := sess.Err(); err != nil {
		t.Errorf("expected nil session error after completion, got %v", err)
	}

	record := env.auditedRecord(t)
	if record.Outcome != audit.OutcomeComplete {
		t.Errorf("expected outcome %q, got %q", audit.OutcomeComplete, record.Outcome)
	}
	if record.Identity != "team-alpha" || record.RequestID != "req-001" {
		t.Errorf("unexpected caller fields: %s/%s", record.Identity, record.RequestID)
	}
	if record.Transport != audit.TransportSSE {
		t.Errorf("expected transport sse, got %q", record.Transport)
	}
	if record.Model != "extract-test" {
		t.Errorf("expected resolved model extract-test, got %q", record.Model)
	}
	if record.SectionCount != 2 {
		t.Errorf("expected 2 sections recorded, got %d", record.SectionCount)
	}
	if record.Title != "Platform Sync" {
		t.Errorf("expected audited title %q, got %q", "Platform Sync", record.Title)
	}
	wantChars := len(req.Items[0].Text)
	if record.SourceChars != wantChars || record.CompactedChars != wantChars {
		t.Errorf("expected source/compacted chars %d/%d, got %d/%d",
			wantChars, wantChars, record.SourceChars, record.CompactedChars)
	}
	if record.WasCompacted {
		t.Error("expected was_compacted=false for an under-budget transcript")
	}
	if record.TranscriptHash == "" {
		t.Error("expected transcript hash to be recorded")
	}
	if record.ErrorDetail != "" {
		t.Errorf("expected empty error detail, got %q", record.ErrorDetail)
	}
}

func TestRunnerSynthesizesCompleteOnSilentEnd(t *testing.T) {
	server := ndjsonServer(
		`{"type":"section","sectionId":"executive_summary","content":"Shipped the relay to production.\nDecoder cutover is next.","confidence":"high"}`,
		`{"type":"section","sectionId":"risks","content":"Decoder untested.","confidence":"low"}`,
	)
	defer server.Close()

	env := newTestEnv(t, server.URL, Config{}, quota.Config{})
	sess, err := env.runner.Run(context.Background(), basicRequest())
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	events := collectEvents(t, sess)
	if len(events) != 6 {
		t.Fatalf("expected 6 events with synthesized terminal, got %d", len(events))
	}

	complete, ok := events[len(events)-1].(extraction.CompleteEvent)
	if !ok {
		t.Fatalf("expected synthesized complete event, got %T", events[len(events)-1])
	}
	if complete.Title != "Shipped the relay to production." {
		t.Errorf("expected title from section content, got %q", complete.Title)
	}
	if !strings.Contains(complete.Notes, "2 sections") {
		t.Errorf("expected note mentioning 2 sections, got %q", complete.Notes)
	}

	if err := sess.Err(); err != nil {
		t.Errorf("expected nil session error, got %v", err)
	}
	record := env.auditedRecord(t)
	if record.Outcome != audit.OutcomeComplete {
		t.Errorf("expected outcome complete, got %q", record.Outcome)
	}
	if record.Title != complete.Title {
		t.Errorf("expected audited title %q, got %q", complete.Title, record.Title)
	}
}

func TestRunnerTransportAbortEmitsTerminalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		payload, _ := json.Marshal(streamDelta{Delta: `{"type":"section","sectionId":"goals","content":"Finish the cutover.","confidence":"medium"}` + "\n"})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()

		if hj, ok := w.(http.Hijacker); ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, Config{}, quota.Config{})
	sess, err := env.runner.Run(context.Background(), basicRequest())
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	events := collectEvents(t, sess)
	if len(events) != 3 {
		t.Fatalf("expected progress, section, error, got %d events", len(events))
	}
	errEvent, ok := events[2].(extraction.ErrorEvent)
	if !ok {
		t.Fatalf("expected terminal error event, got %T", events[2])
	}
	if errEvent.Message == "" {
		t.Error("expected error event to carry the transport failure message")
	}

	var streamErr *upstream.StreamError
	if !errors.As(sess.Err(), &streamErr) {
		t.Errorf("expected session error to be a StreamError, got %v", sess.Err())
	}

	record := env.auditedRecord(t)
	if record.Outcome != audit.OutcomeError {
		t.Errorf("expected outcome error, got %q", record.Outcome)
	}
	if record.SectionCount != 1 {
		t.Errorf("expected 1 section before the failure, got %d", record.SectionCount)
	}
	if record.ErrorDetail == "" {
		t.Error("expected error detail in the audit record")
	}
}

func TestRunnerCancelMidSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		payload, _ := json.Marshal(streamDelta{Delta: `{"type":"section","sectionId":"goals","content":"Finish the cutover.","confidence":"medium"}` + "\n"})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, Config{}, quota.Config{})
	sess, err := env.runner.Run(context.Background(), basicRequest())
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	// Wait for the section to prove the stream is live, then cancel.
	timeout := time.After(5 * time.Second)
	got := 0
	for got < 2 {
		select {
		case _, ok := <-sess.Events():
			if !ok {
				t.Fatal("session closed before any events arrived")
			}
			got++
		case <-timeout:
			t.Fatal("timed out waiting for the first section")
		}
	}
	sess.Cancel()
	collectEvents(t, sess)
	sess.Cancel() // safe after the session has ended

	if !errors.Is(sess.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", sess.Err())
	}

	record := env.auditedRecord(t)
	if record.Outcome != audit.OutcomeCanceled {
		t.Errorf("expected outcome canceled, got %q", record.Outcome)
	}
	if record.SectionCount != 1 {
		t.Errorf("expected 1 section before cancellation, got %d", record.SectionCount)
	}
}

// ==== Admission Tests ====

func TestRunnerQuotaRejection(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		payload, _ := json.Marshal(streamDelta{Delta: `{"type":"complete","suggestedTitle":"Only Run"}` + "\n"})
		fmt.Fprintf(w, "data: %s\n\n", payload)
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, Config{}, quota.Config{
		MaxTokens:      1,
		RefillInterval: time.Hour,
	})

	sess, err := env.runner.Run(context.Background(), basicRequest())
	if err != nil {
		t.Fatalf("first run should be admitted: %v", err)
	}
	collectEvents(t, sess)

	_, err = env.runner.Run(context.Background(), basicRequest())
	var quotaErr *quota.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected QuotaExceededError, got %T: %v", err, err)
	}
	if quotaErr.Identity != "team-alpha" || quotaErr.Limit != 1 {
		t.Errorf("unexpected rejection metadata: %+v", quotaErr)
	}
	if quotaErr.RetryAfter <= 0 {
		t.Errorf("expected a positive retry hint, got %s", quotaErr.RetryAfter)
	}

	if calls.Load() != 1 {
		t.Errorf("expected rejection to cost zero upstream calls, got %d total", calls.Load())
	}

	records := env.auditedRecords(t)
	if len(records) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(records))
	}
	rejected := 0
	for _, record := range records {
		if record.Outcome == audit.OutcomeRejected {
			rejected++
			if !strings.Contains(record.ErrorDetail, "quota exceeded") {
				t.Errorf("expected quota detail, got %q", record.ErrorDetail)
			}
			if record.SectionCount != 0 || record.Model != "" {
				t.Errorf("expected empty session fields on rejection, got %+v", record)
			}
		}
	}
	if rejected != 1 {
		t.Errorf("expected exactly 1 rejected record, got %d", rejected)
	}
}

func TestRunnerInputTooLarge(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, Config{TargetChars: 100}, quota.Config{})

	// A single long utterance cannot be dropped by progressive reduction.
	text := strings.TrimSpace("Alice: " + strings.Repeat("the decoder must keep section order stable ", 50))
	_, err := env.runner.Run(context.Background(), &Request{
		Identity:  "team-alpha",
		Transport: audit.TransportSSE,
		Items:     []Item{{Text: text}},
	})

	var tooLarge *compactor.InputTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected InputTooLargeError, got %T: %v", err, err)
	}
	if tooLarge.TargetChars != 100 {
		t.Errorf("expected target 100 in error, got %d", tooLarge.TargetChars)
	}
	if tooLarge.OriginalChars != len(text) {
		t.Errorf("expected original chars %d, got %d", len(text), tooLarge.OriginalChars)
	}
	if tooLarge.CleanedChars <= 100 {
		t.Errorf("expected cleaned chars still over budget, got %d", tooLarge.CleanedChars)
	}

	if calls.Load() != 0 {
		t.Errorf("expected no upstream call for oversized input, got %d", calls.Load())
	}

	record := env.auditedRecord(t)
	if record.Outcome != audit.OutcomeTooLarge {
		t.Errorf("expected outcome too_large, got %q", record.Outcome)
	}
	if !record.WasCompacted {
		t.Error("expected was_compacted=true after a failed reduction attempt")
	}
	if record.SourceChars != len(text) || record.CompactedChars != tooLarge.CleanedChars {
		t.Errorf("expected counts %d/%d, got %d/%d",
			len(text), tooLarge.CleanedChars, record.SourceChars, record.CompactedChars)
	}
}

func TestRunnerUpstreamOpenFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`overloaded`))
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, Config{}, quota.Config{})
	sess, err := env.runner.Run(context.Background(), basicRequest())
	if sess != nil {
		t.Fatal("expected no session when the stream cannot be opened")
	}
	var upstreamErr *upstream.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}

	record := env.auditedRecord(t)
	if record.Outcome != audit.OutcomeError {
		t.Errorf("expected outcome error, got %q", record.Outcome)
	}
	if record.Model != "extract-test" {
		t.Errorf("expected resolved model in record, got %q", record.Model)
	}
	if !strings.Contains(record.ErrorDetail, "overloaded") {
		t.Errorf("expected upstream message in detail, got %q", record.ErrorDetail)
	}
}

func TestRunnerValidation(t *testing.T) {
	env := newTestEnv(t, "http://localhost:9", Config{}, quota.Config{})

	_, err := env.runner.Run(context.Background(), &Request{
		Items: []Item{{Text: "Alice: hello"}},
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if validationErr.Field != "identity" {
		t.Errorf("expected identity failure, got %q", validationErr.Field)
	}

	_, err = env.runner.Run(context.Background(), &Request{
		Identity: "team-alpha",
		Items:    []Item{{Text: "   "}, {Text: ""}},
	})
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if validationErr.Field != "items" {
		t.Errorf("expected items failure, got %q", validationErr.Field)
	}

	// Malformed requests must not consume quota tokens.
	if env.guard.Len() != 0 {
		t.Errorf("expected no quota buckets after validation failures, got %d", env.guard.Len())
	}
	if records := env.auditedRecords(t); len(records) != 0 {
		t.Errorf("expected no audit records for invalid requests, got %d", len(records))
	}
}

// ==== Prompt Assembly Tests ====

func TestRunnerJoinsItemsAndContext(t *testing.T) {
	type captured struct {
		System string `json:"system"`
		Input  string `json:"input"`
		Model  string `json:"model"`
	}
	reqCh := make(chan captured, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c captured
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			t.Errorf("failed to decode upstream request: %v", err)
		}
		reqCh <- c
		w.Header().Set("Content-Type", "text/event-stream")
		payload, _ := json.Marshal(streamDelta{Delta: `{"type":"complete","suggestedTitle":"Joined"}` + "\n"})
		fmt.Fprintf(w, "data: %s\n\n", payload)
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, Config{}, quota.Config{})
	sess, err := env.runner.Run(context.Background(), &Request{
		Identity:  "team-alpha",
		Transport: audit.TransportCLI,
		Items: []Item{
			{ID: "one.txt", Text: "Alice: part one."},
			{Text: "  Bob: part two.  "},
		},
		Context: "weekly platform sync",
	})
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	collectEvents(t, sess)
	got := <-reqCh

	if !strings.HasPrefix(got.Input, "Meeting context: weekly platform sync") {
		t.Errorf("expected context note ahead of the transcript, got %q", got.Input)
	}
	if !strings.Contains(got.Input, "Alice: part one.\n\nBob: part two.") {
		t.Errorf("expected items joined by a blank line, got %q", got.Input)
	}
	if !strings.Contains(got.System, "- executive_summary: Executive Summary") {
		t.Error("expected catalog sections in the system prompt")
	}
	if got.Model != "extract-test" {
		t.Errorf("expected client default model on the wire, got %q", got.Model)
	}

	env.rec.Close()
}

// ==== Configuration Tests ====

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.TargetChars != compactor.DefaultTargetChars {
		t.Errorf("expected default target %d, got %d", compactor.DefaultTargetChars, cfg.TargetChars)
	}
	if cfg.EventBuffer != DefaultEventBuffer {
		t.Errorf("expected default event buffer %d, got %d", DefaultEventBuffer, cfg.EventBuffer)
	}

	cfg = Config{TargetChars: 1234, PreserveTimestamps: true, EventBuffer: 2}.withDefaults()
	if cfg.TargetChars != 1234 || !cfg.PreserveTimestamps || cfg.EventBuffer != 2 {
		t.Errorf("expected explicit values preserved, got %+v", cfg)
	}
}
