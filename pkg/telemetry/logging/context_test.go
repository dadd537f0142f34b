package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	ctx = WithRequestID(ctx, "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID = %q, want %q", got, "req-123")
	}

	ctx = WithTeam(ctx, "team-alpha")
	if got := GetTeam(ctx); got != "team-alpha" {
		t.Errorf("GetTeam = %q, want %q", got, "team-alpha")
	}

	ctx = WithUser(ctx, "casey")
	if got := GetUser(ctx); got != "casey" {
		t.Errorf("GetUser = %q, want %q", got, "casey")
	}

	ctx = WithSession(ctx, "sess-9")
	if got := GetSession(ctx); got != "sess-9" {
		t.Errorf("GetSession = %q, want %q", got, "sess-9")
	}

	ctx = WithModel(ctx, "ganymede-extract-1")
	if got := GetModel(ctx); got != "ganymede-extract-1" {
		t.Errorf("GetModel = %q, want %q", got, "ganymede-extract-1")
	}
}

func TestContextKeys_Empty(t *testing.T) {
	ctx := context.Background()

	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID on empty context = %q, want empty", got)
	}
	if got := GetTeam(ctx); got != "" {
		t.Errorf("GetTeam on empty context = %q, want empty", got)
	}
	if got := GetUser(ctx); got != "" {
		t.Errorf("GetUser on empty context = %q, want empty", got)
	}
	if got := GetSession(ctx); got != "" {
		t.Errorf("GetSession on empty context = %q, want empty", got)
	}
	if got := GetModel(ctx); got != "" {
		t.Errorf("GetModel on empty context = %q, want empty", got)
	}
}

func TestContextAttrs(t *testing.T) {
	ctx := context.Background()

	if attrs := contextAttrs(ctx); len(attrs) != 0 {
		t.Errorf("expected no attrs for empty context, got %v", attrs)
	}

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSession(ctx, "sess-1")

	attrs := contextAttrs(ctx)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %d: %v", len(attrs), attrs)
	}
	if attrs[0].Key != "request_id" || attrs[0].Value.String() != "req-1" {
		t.Errorf("unexpected first attr: %v", attrs[0])
	}
	if attrs[1].Key != "session" || attrs[1].Value.String() != "sess-1" {
		t.Errorf("unexpected second attr: %v", attrs[1])
	}
}

func TestContextOverwrite(t *testing.T) {
	ctx := WithRequestID(context.Background(), "first")
	ctx = WithRequestID(ctx, "second")

	if got := GetRequestID(ctx); got != "second" {
		t.Errorf("expected overwrite to win, got %q", got)
	}
}

func TestContextHandler_EndToEnd(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newContextHandler(slog.NewJSONHandler(buf, nil))
	logger := slog.New(handler)

	ctx := WithRequestID(context.Background(), "req-ctx-1")
	ctx = WithTeam(ctx, "team-beta")

	logger.InfoContext(ctx, "handled")

	output := buf.String()
	for _, want := range []string{"req-ctx-1", "team-beta", "handled"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output: %s", want, output)
		}
	}
}

func TestContextHandler_NoContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newContextHandler(slog.NewJSONHandler(buf, nil))
	logger := slog.New(handler)

	logger.Info("bare")

	output := buf.String()
	if strings.Contains(output, "request_id") {
		t.Errorf("unexpected context field in output: %s", output)
	}
}
