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
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			if got := ParseLevel(tc.in); got != tc.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewWithOptions_JSONCarriesServiceAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithOptions(&buf, Options{Level: "info", Version: "v1.2.3"})

	log.Debug("hidden")
	log.Info("hello", slog.String("k", "v"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	for key, want := range map[string]string{"msg": "hello", "service": ServiceName, "version": "v1.2.3", "k": "v"} {
		if rec[key] != want {
			t.Errorf("%s = %v, want %q", key, rec[key], want)
		}
	}
}

func TestNewWithOptions_Text(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewWithOptions(&buf, Options{Format: "TEXT"}).Warn("careful")

	out := buf.String()
	if strings.HasPrefix(out, "{") || !strings.Contains(out, "msg=careful") || !strings.Contains(out, "service=alertrag") {
		t.Errorf("unexpected text output: %q", out)
	}
	if strings.Contains(out, "version=") {
		t.Errorf("empty version must be omitted: %q", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	if FromContext(context.Background()) != slog.Default() {
		t.Error("empty context must yield slog.Default")
	}
	l := Discard()
	if got := FromContext(WithLogger(context.Background(), l)); got != l {
		t.Error("logger not recovered from context")
	}
	if FromContext(WithLogger(context.Background(), nil)) != slog.Default() {
		t.Error("nil logger must fall back to slog.Default")
	}
}
