// Package logging provides structured logging for the storage-unit
// runtime, built on log/slog with a colorized terminal handler and a
// plain JSON handler for non-interactive output.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/ehrlich-b/go-sud/internal/wire"
)

// Logger wraps an slog.Logger. The zero value is not usable; construct
// with NewLogger or use Default().
type Logger struct {
	sl *slog.Logger
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// LogLevel mirrors slog.Level with names matching the rest of the core.
type LogLevel = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Config holds logging configuration.
type Config struct {
	Level  LogLevel
	Output io.Writer
	// Color forces (or forbids) the tint handler when non-nil; when nil
	// it is auto-detected from whether Output is a terminal.
	Color *bool
}

// DefaultConfig returns a sensible default configuration: info level,
// stderr, colorized if stderr is a TTY.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// NewLogger builds a Logger from config, choosing a tint handler for
// terminal output and a JSON handler otherwise.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	color := config.Color
	if color == nil {
		detected := isTerminal(output)
		color = &detected
	}

	var handler slog.Handler
	if *color {
		handler = tint.NewHandler(output, &tint.Options{Level: config.Level})
	} else {
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: config.Level})
	}

	return &Logger{sl: slog.New(handler)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Default returns the default logger, creating it if necessary.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

func (l *Logger) Debug(msg string, args ...any) { l.sl.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.sl.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.sl.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.sl.Error(msg, args...) }

// With returns a Logger that always includes the given key-value pairs.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{sl: l.sl.With(args...)}
}

// Global convenience functions operate on Default().
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }

// ShouldLog reports whether the per-unit debug-log bitmask (spec.md §3:
// "bit i set ⇒ log requests/responses of kind i") enables logging for
// the given request/response Kind.
func ShouldLog(mask uint32, kind wire.Kind) bool {
	return mask&(1<<uint32(kind)) != 0
}
