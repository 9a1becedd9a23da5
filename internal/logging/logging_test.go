package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != slog.Default() {
		t.Fatal("expected default logger for empty context")
	}

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, "user-1")
	ctx = WithRequestID(ctx, "")

	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected request id to survive empty overwrite, got %q", got)
	}
	if got := UserIDFromContext(ctx); got != "user-1" {
		t.Fatalf("expected user id, got %q", got)
	}
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty user id, got %q", got)
	}
}

func TestStartSpanLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "debug"))

	ctx, parent := StartSpan(ctx, "parent")
	_, child := StartSpan(ctx, "toggle-like", slog.String("entity_id", "42"))
	child.EndWithOutcome("failure", errors.New("boom"))
	parent.End()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two log lines, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "WARN" || entry["outcome"] != "failure" || entry["error"] != "boom" {
		t.Fatalf("unexpected child entry: %v", entry)
	}
	if entry["entity_id"] != "42" || entry["span_name"] != "toggle-like" {
		t.Fatalf("expected span attributes on child entry: %v", entry)
	}
	if entry["parent_span_id"] == nil || entry["trace_id"] == nil {
		t.Fatalf("expected trace metadata on child entry: %v", entry)
	}
}
