package middleware

import (
	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/trace"
)

type requestID struct {
	next Handler
}

// RequestID reuses the incoming X-Request-ID or generates one, stores it as
// the trace ID of the request context and echoes it on the response.
func RequestID(next Handler, _ Env) Outcome {
	return Use(&requestID{next: next})
}

func (m *requestID) Handle(req *api.Request) (*api.Response, error) {
	id := req.Header.Get(trace.HeaderXRequestID)
	if id == "" {
		id = trace.EnsureTraceID(req.Context())
	}
	req = req.WithContext(trace.WithTraceID(req.Context(), id))

	resp, err := m.next(req)
	if resp != nil {
		resp.SetHeader(trace.HeaderXRequestID, id)
	}
	return resp, err
}
