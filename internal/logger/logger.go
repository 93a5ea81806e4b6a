// Package logger provides the leveled, structured logger used across larder.
//
// Output verbosity follows the CLI flags: the default level only shows
// warnings and errors, --debug adds info messages and --verbose adds debug
// messages.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Level mirrors the CLI verbosity settings.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger is the logging surface handed to components.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

type slogLogger struct {
	l *slog.Logger
}

var (
	mu       sync.RWMutex
	levelVar = new(slog.LevelVar)
	root     = newRoot(os.Stderr, false)
)

func newRoot(w io.Writer, jsonOutput bool) *slogLogger {
	opts := &slog.HandlerOptions{Level: levelVar}
	var h slog.Handler
	if jsonOutput {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &slogLogger{l: slog.New(h)}
}

func init() {
	levelVar.Set(slog.LevelWarn)
}

// Configure replaces the process-wide output and format.
func Configure(w io.Writer, jsonOutput bool) {
	mu.Lock()
	defer mu.Unlock()
	root = newRoot(w, jsonOutput)
}

// SetLevel changes the minimum level emitted by every logger.
func SetLevel(level Level) {
	switch level {
	case LevelDebug:
		levelVar.Set(slog.LevelDebug)
	case LevelInfo:
		levelVar.Set(slog.LevelInfo)
	case LevelWarn:
		levelVar.Set(slog.LevelWarn)
	default:
		levelVar.Set(slog.LevelError)
	}
}

// SetVerbosity maps the CLI flags onto a level.
func SetVerbosity(debug, verbose bool) {
	switch {
	case verbose:
		SetLevel(LevelDebug)
	case debug:
		SetLevel(LevelInfo)
	default:
		SetLevel(LevelWarn)
	}
}

// ParseLevel understands the level names accepted in larder.yaml.
func ParseLevel(name string) (Level, bool) {
	switch name {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelWarn, false
}

func current() *slogLogger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

func (s *slogLogger) Debug(msg string, keyvals ...interface{}) { s.l.Debug(msg, keyvals...) }
func (s *slogLogger) Info(msg string, keyvals ...interface{})  { s.l.Info(msg, keyvals...) }
func (s *slogLogger) Warn(msg string, keyvals ...interface{})  { s.l.Warn(msg, keyvals...) }
func (s *slogLogger) Error(msg string, keyvals ...interface{}) { s.l.Error(msg, keyvals...) }

func (s *slogLogger) WithField(key string, value interface{}) Logger {
	return &slogLogger{l: s.l.With(key, value)}
}

func (s *slogLogger) WithFields(fields map[string]interface{}) Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &slogLogger{l: s.l.With(args...)}
}

// Default returns the process-wide logger.
func Default() Logger { return current() }

func Debug(msg string, keyvals ...interface{}) { current().Debug(msg, keyvals...) }
func Info(msg string, keyvals ...interface{})  { current().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...interface{})  { current().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...interface{}) { current().Error(msg, keyvals...) }

func WithField(key string, value interface{}) Logger {
	return current().WithField(key, value)
}

func WithFields(fields map[string]interface{}) Logger {
	return current().WithFields(fields)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() Logger {
	return &slogLogger{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
