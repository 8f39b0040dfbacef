package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// noopProvider is returned when observability is disabled.
type noopProvider struct{}

func (noopProvider) TracerProvider() trace.TracerProvider { return noop.NewTracerProvider() }
func (noopProvider) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }
func (noopProvider) Shutdown(context.Context) error       { return nil }
func (noopProvider) ForceFlush(context.Context) error     { return nil }
