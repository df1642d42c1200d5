package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := parseLevel(tt.level); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestNewLoggerNotNil(t *testing.T) {
	logger := NewLogger("info")
	if logger == nil {
		t.Fatal("NewLogger() returned nil")
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := NewLogger("debug")
	ctx := NewContext(context.Background(), logger)

	got := FromContext(ctx)
	if got != logger {
		t.Error("FromContext() did not return the logger stored by NewContext()")
	}
}

func TestFromContextDefaultsWhenMissing(t *testing.T) {
	got := FromContext(context.Background())
	if got == nil {
		t.Fatal("FromContext() returned nil for empty context")
	}
}
