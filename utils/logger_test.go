package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"unknown", LevelInfo},
		{"", LevelInfo},
		{"  debug  ", LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo(&out, &errOut, LevelWarn)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	assert.Empty(t, out.String())

	l.Warn("warn %d", 3)
	assert.Contains(t, out.String(), "WARN")
	assert.Contains(t, out.String(), "warn 3")

	l.Error("boom %s", "x")
	assert.Contains(t, errOut.String(), "boom x")
}

func TestLoggerSetLevel(t *testing.T) {
	var out bytes.Buffer
	l := NewLoggerTo(&out, &out, LevelInfo)

	l.Debug("hidden")
	assert.Empty(t, out.String())

	l.SetLevel(LevelDebug)
	l.Debug("shown")
	assert.Contains(t, out.String(), "shown")
}
