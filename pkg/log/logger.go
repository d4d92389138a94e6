package log

// Logger receives registry events. Pass nil or NoopLogger to disable
// capture.
type Logger interface {
	// Log records an event. Implementations must be thread-safe and must
	// not block; registry operations call Log inline.
	Log(event Event)
}

// NoopLogger discards all events. Usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// OrNoop returns l, or NoopLogger if l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
