package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
)

// Level represents log severity
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger defines the interface for logging
// Implementations write to a file, to the console, or nowhere
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, msg string, fields Fields)

	// Info logs an info message
	Info(ctx context.Context, msg string, fields Fields)

	// Warn logs a warning message
	Warn(ctx context.Context, msg string, fields Fields)

	// Error logs an error message
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields returns a logger with additional fields
	WithFields(fields Fields) Logger

	// Close flushes and closes the logger
	Close() error
}

// Config selects and configures a logger
type Config struct {
	// File enables file logging when set; otherwise Console decides
	File string
	// Format is the file format (json or text)
	Format Format
	// Level is the minimum level
	Level Level
	// Console logs to ConsoleWriter when no file is configured
	Console bool
	// ConsoleWriter defaults to os.Stderr
	ConsoleWriter io.Writer
	// MaxSize and MaxBackups control file rotation
	MaxSize    int64
	MaxBackups int
}

// New builds the logger described by cfg: a file logger when File is set,
// a console logger when Console is set, and a null logger otherwise
func New(cfg Config) (Logger, error) {
	switch {
	case cfg.File != "":
		l, err := NewFileLogger(FileLoggerConfig{
			Path:       cfg.File,
			Format:     cfg.Format,
			Level:      cfg.Level,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
		})
		if err != nil {
			return nil, err
		}
		return l, nil
	case cfg.Console:
		w := cfg.ConsoleWriter
		if w == nil {
			w = os.Stderr
		}
		return NewConsoleLogger(w, cfg.Level), nil
	default:
		return NewNullLogger(), nil
	}
}

// ParseFormat parses a log format name
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "text", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown log format: %s (use: text, json)", s)
	}
}

// mergeFields returns base overlaid with extra
func mergeFields(base, extra Fields) Fields {
	out := make(Fields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// sortedKeys returns the field names in stable order
func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// levelString returns the string representation of a log level
func levelString(level Level) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return DebugLevel
	case "info", "INFO":
		return InfoLevel
	case "warn", "WARN", "warning", "WARNING":
		return WarnLevel
	case "error", "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// LevelString returns level as string (exported version)
func LevelString(level Level) string {
	return levelString(level)
}
