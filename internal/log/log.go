// Package log provides categorized structured logging for bookforge.
//
// Log output goes to a file rather than stdout/stderr because the TUI owns
// the terminal. Until Init is called, all log calls are no-ops.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Category identifies the subsystem emitting a log record.
type Category string

// Log categories, one per subsystem.
const (
	CatAPI      Category = "api"
	CatDB       Category = "db"
	CatUI       Category = "ui"
	CatWorkflow Category = "workflow"
	CatPoll     Category = "poll"
	CatConfig   Category = "config"
)

var (
	mu       sync.RWMutex
	logger   = slog.New(discardHandler{})
	logFile  *os.File
	levelVar = new(slog.LevelVar)
)

// Init configures logging to write to the given file path at the given level.
// The parent directory is created if needed. Calling Init again closes the
// previous log file.
func Init(path string, level slog.Level) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // G304: path comes from trusted config
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	levelVar.Set(level)
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))
	return nil
}

// SetLevel changes the minimum level at runtime, for config hot-reload.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// ParseLevel maps a config string to a slog level. Unknown values fall
// back to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Writer returns the active log file, or nil before Init. Useful for
// routing other subsystems' diagnostics away from the terminal.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	if logFile == nil {
		return nil
	}
	return logFile
}

// InitWriter configures logging to write to an arbitrary writer.
// Used by tests to capture output.
func InitWriter(w io.Writer, level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Close releases the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	logger = slog.New(discardHandler{})
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a debug-level record in the given category.
func Debug(cat Category, msg string, args ...any) {
	current().Debug(msg, append([]any{"cat", string(cat)}, args...)...)
}

// Info logs an info-level record in the given category.
func Info(cat Category, msg string, args ...any) {
	current().Info(msg, append([]any{"cat", string(cat)}, args...)...)
}

// Warn logs a warn-level record in the given category.
func Warn(cat Category, msg string, args ...any) {
	current().Warn(msg, append([]any{"cat", string(cat)}, args...)...)
}

// Error logs an error-level record in the given category.
func Error(cat Category, msg string, args ...any) {
	current().Error(msg, append([]any{"cat", string(cat)}, args...)...)
}

// ErrorErr logs an error-level record with the error attached as an attribute.
func ErrorErr(cat Category, msg string, err error, args ...any) {
	current().Error(msg, append([]any{"cat", string(cat), "error", err}, args...)...)
}

// SafeGo runs fn in a goroutine with panic recovery. A recovered panic is
// logged with the goroutine's name instead of crashing the process.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				Error(CatWorkflow, "Recovered panic in goroutine", "goroutine", name, "panic", r)
			}
		}()
		fn()
	}()
}

// discardHandler drops all records. Active before Init is called.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
