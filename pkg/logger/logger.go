package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	charm "github.com/charmbracelet/log"
	"github.com/charmbracelet/lipgloss"
)

// TraceLevel is one step more verbose than debug. charmbracelet/log has no
// native trace level, so it lives just below DebugLevel.
const TraceLevel = charm.DebugLevel - 1

// Re-exported levels so callers don't import charm directly.
const (
	DebugLevel = charm.DebugLevel
	InfoLevel  = charm.InfoLevel
	WarnLevel  = charm.WarnLevel
	ErrorLevel = charm.ErrorLevel
	// OffLevel silences everything below fatal.
	OffLevel = charm.FatalLevel + 1
)

// Logger wraps a charm logger and adds the trace level.
type Logger struct {
	*charm.Logger
}

// NewLogger wraps an existing charm logger.
func NewLogger(l *charm.Logger) *Logger {
	return &Logger{Logger: l}
}

// Trace logs at TraceLevel.
func (l *Logger) Trace(msg interface{}, keyvals ...interface{}) {
	l.Log(TraceLevel, msg, keyvals...)
}

// GetLevelString returns the lowercase name of the current level.
func (l *Logger) GetLevelString() string {
	switch level := l.GetLevel(); {
	case level <= TraceLevel:
		return "trace"
	case level >= OffLevel:
		return "off"
	default:
		return strings.ToLower(level.String())
	}
}

// ParseLogLevel parses the value of RUSTDN_LOG (or --log-level).
// An empty string means info.
func ParseLogLevel(s string) (charm.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return InfoLevel, nil
	case "trace":
		return TraceLevel, nil
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "off", "none":
		return OffLevel, nil
	default:
		return InfoLevel, fmt.Errorf("invalid log level '%s'. Supported log levels are trace, debug, info, warn, error, off", s)
	}
}

// newCharmLogger builds the stderr logger used by the CLI and the proxy.
func newCharmLogger(w io.Writer) *charm.Logger {
	l := charm.NewWithOptions(w, charm.Options{
		ReportTimestamp: false,
		Prefix:          "rustdn",
	})
	l.SetStyles(logStyles())
	return l
}

// logStyles adds a label for the trace level, which charm does not know about.
func logStyles() *charm.Styles {
	styles := charm.DefaultStyles()
	styles.Levels[TraceLevel] = lipgloss.NewStyle().
		SetString("TRCE").
		Bold(true).
		MaxWidth(4).
		Foreground(lipgloss.Color("61"))
	return styles
}

// Configure sets the default logger's level from a level string.
func Configure(level string) error {
	parsed, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	Default().SetLevel(parsed)
	return nil
}

// New creates a new Logger writing to stderr.
func New() *Logger {
	return NewLogger(newCharmLogger(os.Stderr))
}
