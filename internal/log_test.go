package internal

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestNewDefaultLogger_LevelFromEnv(t *testing.T) {
	tests := []struct {
		env   string
		level LogLevel
	}{
		{"ERROR", LogLevelError},
		{"WARN", LogLevelWarn},
		{"DEBUG", LogLevelDebug},
		{"debug", LogLevelDebug},
		{"", LogLevelInfo},
		{"bogus", LogLevelInfo},
	}
	for _, tt := range tests {
		t.Setenv("LOG_LEVEL", tt.env)
		if got := NewDefaultLogger().GetLevel(); got != tt.level {
			t.Errorf("LOG_LEVEL=%q resolved level %d, want %d", tt.env, got, tt.level)
		}
	}
}

func TestLogger_SuppressesBelowLevel(t *testing.T) {
	original := log.Writer()
	defer log.SetOutput(original)

	var buf bytes.Buffer
	log.SetOutput(&buf)

	logger := NewLogger(LogLevelWarn)
	logger.Debug("hidden detail")
	logger.Info("hidden info")
	logger.Warn("visible warning")
	logger.Error("visible error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Messages below the configured level must be suppressed, got %q", out)
	}
	if !strings.Contains(out, "visible warning") || !strings.Contains(out, "visible error") {
		t.Errorf("Messages at or above the configured level must be emitted, got %q", out)
	}
}
