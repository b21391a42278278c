package logging

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestNewLoggerFromConfigNilUsesDefaults(t *testing.T) {
	logger := NewLoggerFromConfig(nil)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNewLoggerFromConfigLevel(t *testing.T) {
	logger := NewLoggerFromConfig(&Config{Level: "warn", Format: "json", Output: "discard"})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestAutoFormatFallsBackToJSONWhenStderrIsNotTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close() //nolint:errcheck
		w.Close() //nolint:errcheck
	})

	orig := os.Stderr
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = orig })

	assert.False(t, isatty(), "a pipe is not a terminal")

	out := getWriter(&Config{Output: "stderr", Format: "auto"})
	_, isConsole := out.(zerolog.ConsoleWriter)
	assert.False(t, isConsole, "non-terminal stderr gets the plain JSON writer")
}
