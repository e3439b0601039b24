package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestContextHandler_AddsScopeAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json").With("component", "test")

	ctx, s := OpenScope(context.Background(), "req-7", slog.String(KeyUserID, "u1"))
	logger.InfoContext(ctx, "inside")
	s.Close()
	logger.InfoContext(ctx, "after")
	logger.Info("no context")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	var inside, after map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &inside); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &after); err != nil {
		t.Fatal(err)
	}

	if inside[KeyRequestID] != "req-7" || inside[KeyUserID] != "u1" {
		t.Errorf("scope attrs missing: %v", inside)
	}
	if inside["component"] != "test" {
		t.Errorf("WithAttrs lost: %v", inside)
	}
	if _, ok := after[KeyRequestID]; ok {
		t.Errorf("closed scope leaked: %v", after)
	}
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "text")

	ctx, s := OpenScope(context.Background(), "req-9")
	defer s.Close()
	logger.WarnContext(ctx, "hello")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-9") || !strings.Contains(out, "level=WARN") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")

	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger")
	}
	if FromContext(WithLogger(context.Background(), logger)) != logger {
		t.Error("expected logger from context")
	}
}

func TestContextHandler_ScopeAttrsStayTopLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json").
		With("component", "api").
		WithGroup("http").
		With("method", "GET")

	ctx, s := OpenScope(context.Background(), "req-g", slog.String(KeyUserID, "u7"))
	defer s.Close()
	logger.InfoContext(ctx, "grouped", "status", 200)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("bad log line %q: %v", buf.String(), err)
	}

	if rec[KeyRequestID] != "req-g" || rec[KeyUserID] != "u7" {
		t.Errorf("scope attrs must be top-level: %v", rec)
	}
	if rec["component"] != "api" {
		t.Errorf("attrs before group lost: %v", rec)
	}

	group, ok := rec["http"].(map[string]any)
	if !ok {
		t.Fatalf("group missing: %v", rec)
	}
	if group["method"] != "GET" || group["status"] != float64(200) {
		t.Errorf("unexpected group contents: %v", group)
	}
	if _, nested := group[KeyRequestID]; nested {
		t.Errorf("request_id nested inside group: %v", group)
	}
}
