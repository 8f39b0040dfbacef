// Package logger defines the logging interface used throughout the dispatch
// layer and provides its zerolog implementation.
//
// Components depend on the Logger and LogEvent interfaces only, so tests can
// capture output with NewWithWriter or silence it with Nop:
//
//	log := logger.New("info", false)
//	log.Info().
//		Str("endpoint", "greeter").
//		Int("status", 200).
//		Msg("Request completed")
package logger

import "time"

// Logger defines the contract for structured logging throughout the
// application. It provides methods for creating log events at different
// severity levels and for deriving loggers that carry extra fields.
type Logger interface {
	// Info starts an event at info level.
	Info() LogEvent
	// Error starts an event at error level.
	Error() LogEvent
	// Debug starts an event at debug level.
	Debug() LogEvent
	// Warn starts an event at warn level.
	Warn() LogEvent
	// Fatal starts an event that exits the process once sent.
	Fatal() LogEvent
	// WithContext returns the logger attached to ctx, or the receiver when
	// ctx is not a context.Context or carries no logger.
	WithContext(ctx any) Logger
	// WithFields returns a logger that adds fields to every event. Values
	// of sensitive keys are masked.
	WithFields(fields map[string]any) Logger
}

// LogEvent represents a structured log event that is built with fields and
// then sent. Nothing is written until Msg or Msgf is called, and an event
// must not be reused after it has been sent.
type LogEvent interface {
	// Msg sends the event with msg as its message.
	Msg(msg string)
	// Msgf sends the event with a formatted message.
	Msgf(format string, args ...any)
	// Err adds err under the "error" key.
	Err(err error) LogEvent
	// Str adds a string field. Values of sensitive keys are masked.
	Str(key, value string) LogEvent
	// Strs adds a list of strings.
	Strs(key string, values []string) LogEvent
	// Int adds an int field.
	Int(key string, value int) LogEvent
	// Int64 adds an int64 field.
	Int64(key string, value int64) LogEvent
	// Bool adds a bool field.
	Bool(key string, value bool) LogEvent
	// Dur adds a duration field.
	Dur(key string, d time.Duration) LogEvent
	// Interface adds any value, serialized as JSON. Sensitive keys, and
	// sensitive keys inside maps, are masked.
	Interface(key string, i any) LogEvent
}
