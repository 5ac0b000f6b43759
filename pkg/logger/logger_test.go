package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_WritesToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Output: &buf})

	logger.Info().Str("component", "test").Msg("solver finished")

	assert.Contains(t, buf.String(), "solver finished")
	assert.Contains(t, buf.String(), `"component":"test"`)
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"info", "info", zerolog.InfoLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"error", "error", zerolog.ErrorLevel},
		{"empty defaults to info", "", zerolog.InfoLevel},
		{"unknown defaults to info", "verbose", zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.level))
		})
	}
}

func TestNew_SetsGlobalLevel(t *testing.T) {
	var buf bytes.Buffer
	_ = New(Config{Level: "warn", Output: &buf})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	_ = New(Config{Level: "info", Output: &buf})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNew_PrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Pretty: true, Output: &buf})

	logger.Info().Msg("pretty message")

	assert.Contains(t, buf.String(), "pretty message")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNew_TimestampFormat(t *testing.T) {
	_ = New(Config{Level: "info", Output: &bytes.Buffer{}})
	assert.Equal(t, "2006-01-02T15:04:05Z07:00", zerolog.TimeFieldFormat)
}
