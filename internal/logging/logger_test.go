package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-sud/internal/wire"
)

func forceColor(v bool) *Config {
	c := DefaultConfig()
	c.Color = &v
	return c
}

func TestNewLoggerDefaultsToInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := forceColor(false)
	cfg.Output = &buf
	cfg.Level = LevelInfo

	logger := NewLogger(cfg)
	require.NotNil(t, logger)

	logger.Debug("should not appear")
	require.Empty(t, buf.String())

	logger.Info("should appear")
	require.Contains(t, buf.String(), "should appear")
}

func TestLoggerJSONHandlerCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	cfg := forceColor(false)
	cfg.Output = &buf
	cfg.Level = LevelDebug

	logger := NewLogger(cfg)
	logger.With("hint", uint64(42)).Info("dispatching request")

	output := buf.String()
	require.Contains(t, output, "dispatching request")
	require.Contains(t, output, "\"hint\":42")
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	cfg := forceColor(false)
	cfg.Output = &buf
	cfg.Level = LevelDebug

	SetDefault(NewLogger(cfg))
	t.Cleanup(func() { SetDefault(nil) })

	Debug("debug message", "key", "value")
	require.Contains(t, buf.String(), "debug message")
	require.Contains(t, buf.String(), "\"key\":\"value\"")

	buf.Reset()
	Warn("warning message")
	require.Contains(t, buf.String(), "warning message")

	buf.Reset()
	Error("error message")
	require.Contains(t, buf.String(), "error message")
}

func TestShouldLog(t *testing.T) {
	var mask uint32
	mask |= 1 << uint32(wire.KindWrite)

	require.True(t, ShouldLog(mask, wire.KindWrite))
	require.False(t, ShouldLog(mask, wire.KindRead))
	require.False(t, ShouldLog(mask, wire.KindFlush))
}
