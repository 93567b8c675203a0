package types

// Logger is the structured logger used by geodb components.
//
// Messages carry alternating key/value pairs. *slog.Logger satisfies this
// interface directly:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	executor, _ := geodb.NewExecutor(manager, geodb.WithLogger(logger))
//
// Implementations should be thread-safe as methods may be called concurrently.
type Logger interface {
	// Debug logs a debug message with key/value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an informational message with key/value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning message with key/value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error message with key/value pairs.
	Error(msg string, keysAndValues ...any)
}
