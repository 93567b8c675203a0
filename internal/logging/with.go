package logging

import "github.com/arloliu/geodb/types"

// fieldLogger prepends fixed key/value pairs to every message.
type fieldLogger struct {
	next   types.Logger
	fields []any
}

// With returns a logger that adds keysAndValues to every message.
//
// Parameters:
//   - logger: The logger to wrap
//   - keysAndValues: Alternating keys and values
//
// Returns:
//   - types.Logger: A logger carrying the extra fields
func With(logger types.Logger, keysAndValues ...any) types.Logger {
	if len(keysAndValues) == 0 {
		return logger
	}
	if _, ok := logger.(*NopLogger); ok {
		return logger
	}

	fields := keysAndValues
	if parent, ok := logger.(*fieldLogger); ok {
		fields = append(append([]any(nil), parent.fields...), keysAndValues...)
		logger = parent.next
	}

	return &fieldLogger{next: logger, fields: fields}
}

func (l *fieldLogger) merge(keysAndValues []any) []any {
	out := make([]any, 0, len(l.fields)+len(keysAndValues))
	out = append(out, l.fields...)

	return append(out, keysAndValues...)
}

func (l *fieldLogger) Debug(msg string, keysAndValues ...any) {
	l.next.Debug(msg, l.merge(keysAndValues)...)
}

func (l *fieldLogger) Info(msg string, keysAndValues ...any) {
	l.next.Info(msg, l.merge(keysAndValues)...)
}

func (l *fieldLogger) Warn(msg string, keysAndValues ...any) {
	l.next.Warn(msg, l.merge(keysAndValues)...)
}

func (l *fieldLogger) Error(msg string, keysAndValues ...any) {
	l.next.Error(msg, l.merge(keysAndValues)...)
}
