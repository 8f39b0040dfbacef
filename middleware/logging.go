package middleware

import (
	"net/http"
	"time"

	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/logger"
	"github.com/gaborage/go-arcstack/trace"
)

const defaultSlowRequest = time.Second

type logging struct {
	next Handler
	log  logger.Logger
	slow time.Duration
}

// Logging writes one action log per call. Severity escalates to WARN for
// 4xx responses and slow calls, and to ERROR for 5xx responses and errors.
func Logging(next Handler, env Env) Outcome {
	slow := env.API().SlowRequest
	if slow <= 0 {
		slow = defaultSlowRequest
	}
	return Use(&logging{next: next, log: env.Logger, slow: slow})
}

func (m *logging) Handle(req *api.Request) (*api.Response, error) {
	start := time.Now()
	resp, err := m.next(req)
	latency := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.Status
	}

	event := m.eventFor(status, latency, err)
	if ep, ok := EndpointFrom(req.Context()); ok {
		event = event.Str("endpoint", ep.Name())
	}
	if id, ok := trace.IDFromContext(req.Context()); ok {
		event = event.Str("request_id", id)
	}
	if err != nil {
		event = event.Err(err)
	}
	event.
		Str("log.type", "action").
		Str("method", req.Verb.Method()).
		Str("path", req.Path).
		Int("status", status).
		Dur("latency", latency).
		Msg("Request completed")

	return resp, err
}

func (m *logging) eventFor(status int, latency time.Duration, err error) logger.LogEvent {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return m.log.Error()
	case status >= http.StatusBadRequest:
		return m.log.Warn()
	case latency > m.slow:
		return m.log.Warn().Bool("slow", true)
	default:
		return m.log.Info()
	}
}
