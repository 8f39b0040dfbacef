package apitest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TraceProvider is an SDK tracer provider whose spans land in Exporter.
type TraceProvider struct {
	*sdktrace.TracerProvider
	Exporter *tracetest.InMemoryExporter
}

// NewTraceProvider creates a tracer provider exporting synchronously to
// memory. It is shut down when the test ends.
func NewTraceProvider(t testing.TB) *TraceProvider {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return &TraceProvider{TracerProvider: tp, Exporter: exporter}
}

// Spans returns the finished spans with the given name.
func (p *TraceProvider) Spans(name string) tracetest.SpanStubs {
	var out tracetest.SpanStubs
	for _, s := range p.Exporter.GetSpans() {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// MeterProvider is an SDK meter provider read on demand through Reader.
type MeterProvider struct {
	*sdkmetric.MeterProvider
	Reader *sdkmetric.ManualReader
}

// NewMeterProvider creates a meter provider with a manual reader. It is
// shut down when the test ends.
func NewMeterProvider(t testing.TB) *MeterProvider {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return &MeterProvider{MeterProvider: mp, Reader: reader}
}

// Collect reads every metric recorded so far.
func (p *MeterProvider) Collect(t testing.TB) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, p.Reader.Collect(context.Background(), &rm), "failed to collect metrics")
	return rm
}

// FindMetric returns the metric called name, or nil.
func FindMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// AssertHistogramCount checks the number of recordings of a float64
// histogram across all data points.
func AssertHistogramCount(t testing.TB, rm metricdata.ResourceMetrics, name string, want uint64) {
	t.Helper()
	m := FindMetric(rm, name)
	require.NotNil(t, m, "metric %s not found", name)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "metric %s is %T, not a float64 histogram", name, m.Data)

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, want, count, "metric %s count mismatch", name)
}

// AssertSpanAttribute checks that span carries key with a string value.
func AssertSpanAttribute(t testing.TB, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, kv := range span.Attributes {
		if kv.Key == attribute.Key(key) {
			assert.Equal(t, want, kv.Value.Emit(), "attribute %s value mismatch", key)
			return
		}
	}
	t.Errorf("attribute %s not found in span %s", key, span.Name)
}
