package log

import "github.com/google/uuid"

// FileExtension is the conventional extension of capture files.
const FileExtension = ".ilog"

// Logger receives protocol events.
// Pass nil or NoopLogger to disable capture.
type Logger interface {
	// Log records an event. Implementations must be safe for concurrent
	// use and must not block for long.
	Log(event Event)
}

// NoopLogger discards all events. The zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// NewConnectionID returns a fresh identifier for a connection.
func NewConnectionID() string {
	return uuid.NewString()
}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
