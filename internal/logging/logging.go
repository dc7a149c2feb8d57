// Package logging provides structured logging using Go's slog package.
package logging

import (
	"log/slog"
	"os"
	"time"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	// Initialize with a default logger (text format, Info level)
	InitLogger(LevelInfo, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize timestamp format
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// Helper functions for common logging patterns

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// WorkerStarted logs the start of an encode worker.
func WorkerStarted(worker int, files int, output string, args ...any) {
	allArgs := []any{
		"worker", worker,
		"files", files,
		"output", output,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("worker_started", allArgs...)
}

// WorkerFinished logs the completion of an encode worker.
func WorkerFinished(worker int, snippets uint64, duration time.Duration, args ...any) {
	allArgs := []any{
		"worker", worker,
		"snippets", snippets,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("worker_finished", allArgs...)
}

// WorkerError logs a worker failure. The run continues without the
// worker's contribution.
func WorkerError(worker int, err error, args ...any) {
	allArgs := []any{
		"worker", worker,
		"error", err.Error(),
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Error("worker_error", allArgs...)
}

// PartSkipped logs a missing part file that the merge step skipped.
func PartSkipped(worker int, path string, args ...any) {
	allArgs := []any{
		"worker", worker,
		"path", path,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Warn("part_skipped", allArgs...)
}

// MergeComplete logs the final merge result.
func MergeComplete(output string, rows uint32, entries uint64, digest string, args ...any) {
	allArgs := []any{
		"output", output,
		"rows", rows,
		"entries", entries,
		"digest", digest,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("merge_complete", allArgs...)
}

// VocabularyLoaded logs the fixed vocabulary every worker is seeded with.
func VocabularyLoaded(path string, words int, digest string, args ...any) {
	allArgs := []any{
		"path", path,
		"words", words,
		"digest", digest,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("vocabulary_loaded", allArgs...)
}
