package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"  ERROR ", LevelError},
		{"", LevelInfo},
		{"loud", LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "error", LevelError.String())
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNewLoggerNilWriterDefaultsToStderr(t *testing.T) {
	require.NotNil(t, NewLogger(nil, LevelInfo))
}

func TestWriterSplitsLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelInfo)
	w := NewWriter(logger, "compose")

	n, err := w.Write([]byte("first line\nsecond line\n\n"))

	require.NoError(t, err)
	assert.Equal(t, 24, n)
	out := buf.String()
	assert.Contains(t, out, "first line")
	assert.Contains(t, out, "second line")
	assert.Contains(t, out, "compose")
}
