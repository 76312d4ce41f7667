package proton

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is a logging verbosity, configured via Config.LogLevel.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// NewLogger builds a tree logger per level, writing console-formatted
// output to out (or os.Stdout if nil). Grounded on the teacher's
// pkg/log.Init.
func NewLogger(level Level, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	var lvl zerolog.Level
	switch level {
	case DebugLevel:
		lvl = zerolog.DebugLevel
	case WarnLevel:
		lvl = zerolog.WarnLevel
	case ErrorLevel:
		lvl = zerolog.ErrorLevel
	default:
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Str("component", "proton").
		Logger()
}
