package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	zlog   *zerolog.Logger
	filter *SensitiveDataFilter
}

var _ Logger = (*ZeroLogger)(nil)

var callerMarshalOnce sync.Once

// New creates a logger writing to stdout. Pretty output uses zerolog's
// console writer; otherwise one JSON object is written per line.
func New(level string, pretty bool) *ZeroLogger {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(out, level)
}

// NewWithWriter creates a JSON logger writing to w. Unknown levels fall back
// to info.
func NewWithWriter(w io.Writer, level string) *ZeroLogger {
	callerMarshalOnce.Do(func() {
		zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
			parent := filepath.Base(filepath.Dir(file))
			if parent != "." && parent != "" {
				return parent + "/" + filepath.Base(file) + ":" + strconv.Itoa(line)
			}
			return filepath.Base(file) + ":" + strconv.Itoa(line)
		}
	})

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		zLevel = zerolog.InfoLevel
	}

	l := zerolog.New(w).
		Level(zLevel).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return &ZeroLogger{zlog: &l, filter: NewSensitiveDataFilter(nil)}
}

// Nop returns a logger that discards everything.
func Nop() *ZeroLogger {
	l := zerolog.Nop()
	return &ZeroLogger{zlog: &l}
}

// WithContext returns the logger stored in ctx by zerolog, if any.
func (l *ZeroLogger) WithContext(ctx any) Logger {
	c, ok := ctx.(context.Context)
	if !ok {
		return l
	}
	zl := zerolog.Ctx(c)
	if zl == nil || zl.GetLevel() == zerolog.Disabled {
		return l
	}
	return &ZeroLogger{zlog: zl, filter: l.filter}
}

// WithFields returns a logger that adds fields to every entry. Sensitive
// keys are masked.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.filter != nil {
		fields = l.filter.FilterFields(fields)
	}
	child := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &child, filter: l.filter}
}

func (l *ZeroLogger) Info() LogEvent  { return l.event(l.zlog.Info()) }
func (l *ZeroLogger) Error() LogEvent { return l.event(l.zlog.Error()) }
func (l *ZeroLogger) Debug() LogEvent { return l.event(l.zlog.Debug()) }
func (l *ZeroLogger) Warn() LogEvent  { return l.event(l.zlog.Warn()) }
func (l *ZeroLogger) Fatal() LogEvent { return l.event(l.zlog.Fatal()) }

func (l *ZeroLogger) event(e *zerolog.Event) LogEvent {
	return &LogEventAdapter{event: e, filter: l.filter}
}
