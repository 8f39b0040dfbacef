// Package tracking records per-endpoint OpenTelemetry instruments for the
// dispatch layer.
package tracking

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// ScopeName is the instrumentation scope of every tracer and meter
	// created by the dispatch layer.
	ScopeName = "go-arcstack/api"

	metricEndpointDuration = "api.endpoint.duration"       // Histogram in seconds
	metricEndpointActive   = "api.endpoint.active_requests" // UpDownCounter

	AttrEndpoint           = "api.endpoint"
	AttrHTTPRequestMethod  = "http.request.method"
	AttrHTTPResponseStatus = "http.response.status_code"
	AttrErrorType          = "error.type"
)

var durationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
}

// EndpointMetrics holds the instruments shared by every endpoint.
type EndpointMetrics struct {
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

// NewEndpointMetrics creates the instruments from mp.
func NewEndpointMetrics(mp metric.MeterProvider) (*EndpointMetrics, error) {
	meter := mp.Meter(ScopeName)

	duration, err := meter.Float64Histogram(
		metricEndpointDuration,
		metric.WithDescription("Duration of endpoint calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		metricEndpointActive,
		metric.WithDescription("Number of endpoint calls in progress"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &EndpointMetrics{duration: duration, active: active}, nil
}

// Start counts a call as active and returns the function that completes the
// measurement once the status is known.
func (m *EndpointMetrics) Start(ctx context.Context, endpoint, method string) func(status int, err error) {
	base := BaseAttributes(endpoint, method)
	m.active.Add(ctx, 1, metric.WithAttributes(base...))
	start := time.Now()

	return func(status int, err error) {
		m.active.Add(ctx, -1, metric.WithAttributes(base...))
		m.duration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(ResultAttributes(endpoint, method, status, err)...))
	}
}

// BaseAttributes are known before the endpoint runs.
func BaseAttributes(endpoint, method string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrEndpoint, endpoint),
		attribute.String(AttrHTTPRequestMethod, method),
	}
}

// ResultAttributes add the outcome of a call to BaseAttributes.
func ResultAttributes(endpoint, method string, status int, err error) []attribute.KeyValue {
	attrs := append(BaseAttributes(endpoint, method), attribute.Int(AttrHTTPResponseStatus, status))
	if errorType := ClassifyError(status, err); errorType != "" {
		attrs = append(attrs, attribute.String(AttrErrorType, errorType))
	}
	return attrs
}

// ClassifyError returns the error.type attribute value: the status code for
// 4xx and 5xx responses, "handler_error" when an error escaped without a
// response, and "" otherwise.
func ClassifyError(status int, err error) string {
	if status >= 400 {
		return strconv.Itoa(status)
	}
	if err != nil {
		return "handler_error"
	}
	return ""
}
