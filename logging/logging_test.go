package logging

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSetup_CreatesLogDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := Setup("info", file); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	slog.Info("test entry")
}

func TestSetup_NoFile(t *testing.T) {
	if err := Setup("debug", ""); err != nil {
		t.Fatalf("Setup: %v", err)
	}
}
