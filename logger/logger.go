// Package logger provides the logging abstraction used across the labware
// packages. Every connection and device controller holds its own Logger
// instance, so log context (device name, transport, port) travels with the
// object instead of living in a shared global.
//
// The default implementation is backed by log/slog, rendering through
// console-slog in development and JSON otherwise. Any other framework can be
// plugged in by implementing the Logger interface.
package logger

// Level indicates the logging severity level.
type Level int8

const (
	// DebugLevel logs are voluminous wire-level traces, usually disabled in production.
	DebugLevel Level = iota - 1
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs flag recoverable anomalies such as discarded device replies.
	WarnLevel
	// ErrorLevel logs are high-priority failures that require attention.
	ErrorLevel
)

// Logger defines a common structured logging interface for the labware packages.
type Logger interface {
	// Debug logs a message at DebugLevel with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)
	// Info logs a message at InfoLevel with optional key-value pairs.
	Info(msg string, keysAndValues ...any)
	// Warn logs a message at WarnLevel with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)
	// Error logs a message at ErrorLevel with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
	// With creates a child logger with additional structured context.
	// Key-values added to the child don't affect the parent, and vice versa.
	With(keysAndValues ...any) Logger
	// Level returns the minimum enabled level for this logger.
	Level() Level
	// SetLevel sets the minimum enabled level for this logger.
	SetLevel(level Level)
}
