package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"", zerolog.InfoLevel},
		{"  nonsense ", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: "json", Service: "riskgrid", Writer: &buf})

	l.Debug().Msg("hidden")
	l.Info().Str("district", "CENTRO").Msg("grid cycle completed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line (debug filtered), got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["service"] != "riskgrid" || entry["district"] != "CENTRO" {
		t.Errorf("unexpected fields: %v", entry)
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", Format: "console", Writer: &buf})
	l.Debug().Msg("artifact loaded")

	if !strings.Contains(buf.String(), "artifact loaded") {
		t.Errorf("console output missing message: %q", buf.String())
	}
}
