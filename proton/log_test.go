package proton

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerDefaultsToInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Level("unknown"), &buf)
	require.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNewLoggerHonorsDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(DebugLevel, &buf)
	require.Equal(t, zerolog.DebugLevel, log.GetLevel())

	log.Debug().Msg("hello")
	require.Contains(t, buf.String(), "hello")
}

func TestNewLoggerHonorsWarnAndErrorLevels(t *testing.T) {
	var buf bytes.Buffer
	require.Equal(t, zerolog.WarnLevel, NewLogger(WarnLevel, &buf).GetLevel())
	require.Equal(t, zerolog.ErrorLevel, NewLogger(ErrorLevel, &buf).GetLevel())
}
