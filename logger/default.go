package logger

import "os"

var defLogger = NewSlog(os.Stdout, InfoLevel)

// Default returns the package-level default logger. It is used by objects
// created without an explicit Logger.
func Default() Logger {
	return defLogger
}

// SetLevel sets the minimum enabled level of the default logger.
func SetLevel(level Level) {
	defLogger.SetLevel(level)
}

// With creates a child of the default logger with additional context.
func With(keysAndValues ...any) Logger {
	return defLogger.With(keysAndValues...)
}
