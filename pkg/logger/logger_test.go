package logger

import (
	"bytes"
	"testing"

	charm "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(newCharmLogger(buf))
}

func TestTraceLevel_RelativeToDebug(t *testing.T) {
	assert.Equal(t, charm.DebugLevel-1, TraceLevel)
	assert.Less(t, int(TraceLevel), int(charm.DebugLevel))
}

func TestLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	t.Run("visible at trace level", func(t *testing.T) {
		buf.Reset()
		l.SetLevel(TraceLevel)
		l.Trace("acquiring shared lock", "key", "default")

		assert.Contains(t, buf.String(), "acquiring shared lock")
		assert.Contains(t, buf.String(), "default")
	})

	t.Run("hidden at debug level", func(t *testing.T) {
		buf.Reset()
		l.SetLevel(DebugLevel)
		l.Trace("should not appear")

		assert.Empty(t, buf.String())
	})
}

func TestLogger_GetLevelString(t *testing.T) {
	l := New()

	l.SetLevel(TraceLevel)
	assert.Equal(t, "trace", l.GetLevelString())

	l.SetLevel(DebugLevel)
	assert.Equal(t, "debug", l.GetLevelString())

	l.SetLevel(OffLevel)
	assert.Equal(t, "off", l.GetLevelString())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected charm.Level
		hasError bool
	}{
		{"", InfoLevel, false},
		{"trace", TraceLevel, false},
		{"Debug", DebugLevel, false},
		{"info", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"off", OffLevel, false},
		{"loud", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLogLevel(tt.input)
			if tt.hasError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	old := Default()
	defer SetDefault(old)

	var buf bytes.Buffer
	l := newBufferLogger(&buf)
	l.SetLevel(TraceLevel)
	SetDefault(l)

	Trace("package level trace")
	Warn("package level warn")

	assert.Contains(t, buf.String(), "package level trace")
	assert.Contains(t, buf.String(), "package level warn")
}

func TestConfigure(t *testing.T) {
	old := Default()
	defer SetDefault(old)
	SetDefault(New())

	require.NoError(t, Configure("debug"))
	assert.Equal(t, DebugLevel, Default().GetLevel())

	assert.Error(t, Configure("nope"))
}
