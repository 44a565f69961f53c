package logging

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// ConsoleLogger writes human-oriented, leveled log lines to a terminal
type ConsoleLogger struct {
	logger *log.Logger
}

// NewConsoleLogger creates a console logger writing to w
func NewConsoleLogger(w io.Writer, level Level) *ConsoleLogger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "modclash",
		ReportTimestamp: level == DebugLevel,
		Level:           toCharmLevel(level),
	})
	return &ConsoleLogger{logger: logger}
}

func toCharmLevel(level Level) log.Level {
	switch level {
	case DebugLevel:
		return log.DebugLevel
	case WarnLevel:
		return log.WarnLevel
	case ErrorLevel:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// keyvals flattens fields into sorted key/value pairs
func keyvals(err error, fields Fields) []interface{} {
	kv := make([]interface{}, 0, 2*len(fields)+2)
	if err != nil {
		kv = append(kv, "err", err)
	}
	for _, k := range sortedKeys(fields) {
		kv = append(kv, k, fields[k])
	}
	return kv
}

// Debug logs a debug message
func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.logger.Debug(msg, keyvals(nil, fields)...)
}

// Info logs an info message
func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.logger.Info(msg, keyvals(nil, fields)...)
}

// Warn logs a warning message
func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.logger.Warn(msg, keyvals(nil, fields)...)
}

// Error logs an error message
func (l *ConsoleLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.logger.Error(msg, keyvals(err, fields)...)
}

// WithFields returns a logger with additional fields
func (l *ConsoleLogger) WithFields(fields Fields) Logger {
	return &ConsoleLogger{logger: l.logger.With(keyvals(nil, fields)...)}
}

// Close does nothing; the writer belongs to the caller
func (l *ConsoleLogger) Close() error {
	return nil
}
