package middleware

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/internal/tracking"
)

type tracing struct {
	tracer trace.Tracer
}

// Tracing opens one span per endpoint call, named after the endpoint.
func Tracing(_ Handler, env Env) Outcome {
	return Use(&tracing{tracer: env.TracerProvider.Tracer(tracking.ScopeName)})
}

func (m *tracing) WrapEndpoint(ep *api.Endpoint, next Handler) Handler {
	name := ep.Name()
	return func(req *api.Request) (*api.Response, error) {
		method := req.Verb.Method()
		ctx, span := m.tracer.Start(req.Context(), name+" "+method,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(tracking.BaseAttributes(name, method)...),
		)
		defer span.End()

		resp, err := next(req.WithContext(ctx))

		status := 0
		if resp != nil {
			status = resp.Status
			span.SetAttributes(attribute.Int(tracking.AttrHTTPResponseStatus, status))
		}
		if errorType := tracking.ClassifyError(status, err); errorType != "" {
			span.SetAttributes(attribute.String(tracking.AttrErrorType, errorType))
		}
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= 500:
			span.SetStatus(codes.Error, "")
		}
		return resp, err
	}
}
