package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogEventAdapter adapts a zerolog event to LogEvent. A nil zerolog event
// (level disabled) is safe to use.
type LogEventAdapter struct {
	event  *zerolog.Event
	filter *SensitiveDataFilter
}

func (a *LogEventAdapter) Msg(msg string) { a.event.Msg(msg) }

func (a *LogEventAdapter) Msgf(format string, args ...any) { a.event.Msgf(format, args...) }

func (a *LogEventAdapter) Err(err error) LogEvent {
	a.event = a.event.Err(err)
	return a
}

func (a *LogEventAdapter) Str(key, value string) LogEvent {
	if a.filter != nil {
		value = a.filter.FilterString(key, value)
	}
	a.event = a.event.Str(key, value)
	return a
}

func (a *LogEventAdapter) Strs(key string, values []string) LogEvent {
	a.event = a.event.Strs(key, values)
	return a
}

func (a *LogEventAdapter) Int(key string, value int) LogEvent {
	a.event = a.event.Int(key, value)
	return a
}

func (a *LogEventAdapter) Int64(key string, value int64) LogEvent {
	a.event = a.event.Int64(key, value)
	return a
}

func (a *LogEventAdapter) Bool(key string, value bool) LogEvent {
	a.event = a.event.Bool(key, value)
	return a
}

func (a *LogEventAdapter) Dur(key string, d time.Duration) LogEvent {
	a.event = a.event.Dur(key, d)
	return a
}

func (a *LogEventAdapter) Interface(key string, i any) LogEvent {
	if a.filter != nil {
		i = a.filter.FilterValue(key, i)
	}
	a.event = a.event.Interface(key, i)
	return a
}
