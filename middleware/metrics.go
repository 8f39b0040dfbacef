package middleware

import (
	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/internal/tracking"
)

type metrics struct {
	instruments *tracking.EndpointMetrics
}

// Metrics records call duration and in-flight calls per endpoint and verb.
// It steps aside when the instruments cannot be created.
func Metrics(_ Handler, env Env) Outcome {
	instruments, err := tracking.NewEndpointMetrics(env.MeterProvider)
	if err != nil {
		return NotUsed("instruments unavailable: " + err.Error())
	}
	return Use(&metrics{instruments: instruments})
}

func (m *metrics) WrapEndpoint(ep *api.Endpoint, next Handler) Handler {
	name := ep.Name()
	return func(req *api.Request) (*api.Response, error) {
		done := m.instruments.Start(req.Context(), name, req.Verb.Method())
		resp, err := next(req)

		status := 0
		if resp != nil {
			status = resp.Status
		}
		done(status, err)
		return resp, err
	}
}
