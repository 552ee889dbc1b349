package logging

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
		name     string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestNewLogger_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info", "prod")

	logger.Info("note created", "id", 7)
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["msg"] != "note created" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["service"] != "notescopilot" {
		t.Errorf("service = %v", entry["service"])
	}
}

func TestNewLogger_DevWritesText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug", "dev")

	logger.Debug("ranking candidates", "count", 3)

	out := buf.String()
	if !strings.Contains(out, "msg=\"ranking candidates\"") {
		t.Errorf("expected text handler output, got %q", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("expected attribute in output, got %q", out)
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("FromContext without logger should return slog.Default()")
	}

	var buf bytes.Buffer
	logger := NewLogger(&buf, "info", "prod").With("request_id", "abc")
	ctx := ToContext(context.Background(), logger)

	FromContext(ctx).Info("handled")
	if !strings.Contains(buf.String(), `"request_id":"abc"`) {
		t.Errorf("expected request-scoped attribute, got %q", buf.String())
	}
}
