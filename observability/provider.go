// Package observability sets up OpenTelemetry tracing and metrics for the
// application and hands the providers to the middleware chain.
package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials/insecure"
)

// Provider owns the tracer and meter providers of the application.
type Provider interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
	Shutdown(ctx context.Context) error
	ForceFlush(ctx context.Context) error
}

type provider struct {
	config         Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	mu             sync.Mutex
}

// NewProvider builds the providers described by cfg and installs them as the
// global OpenTelemetry providers. A disabled configuration yields no-op
// providers and leaves the globals untouched.
func NewProvider(cfg Config) (Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}
	if !cfg.Enabled {
		return noopProvider{}, nil
	}

	p := &provider{config: cfg}
	res, err := p.createResource()
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.Trace.On() {
		if err := p.initTraceProvider(res); err != nil {
			return nil, fmt.Errorf("failed to initialize trace provider: %w", err)
		}
		otel.SetTracerProvider(p.tracerProvider)
	}
	if cfg.Metrics.On() {
		if err := p.initMeterProvider(res); err != nil {
			_ = p.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
		}
		otel.SetMeterProvider(p.meterProvider)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return p, nil
}

func (p *provider) createResource() (*resource.Resource, error) {
	custom, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(p.config.Service.Name),
			semconv.ServiceVersion(p.config.Service.Version),
			semconv.DeploymentEnvironmentName(p.config.Environment),
		),
	)
	if err != nil {
		return nil, err
	}
	return resource.Merge(resource.Default(), custom)
}

func (p *provider) initTraceProvider(res *resource.Resource) error {
	exporter, err := p.createTraceExporter()
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(p.config.Trace.BatchTimeout),
			sdktrace.WithExportTimeout(p.config.Trace.Timeout),
		),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(*p.config.Trace.SampleRate))),
	)
	return nil
}

func (p *provider) createTraceExporter() (sdktrace.SpanExporter, error) {
	tc := p.config.Trace
	if tc.Endpoint == EndpointStdout {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}

	switch tc.Protocol {
	case ProtocolHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(tc.Endpoint)}
		if tc.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(tc.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(tc.Headers))
		}
		return otlptracehttp.New(context.Background(), opts...)
	case ProtocolGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(tc.Endpoint)}
		if tc.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		if len(tc.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(tc.Headers))
		}
		return otlptracegrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("trace protocol '%s': %w", tc.Protocol, ErrInvalidProtocol)
	}
}

// TracerProvider returns the SDK tracer provider, or a no-op one when traces
// are disabled.
func (p *provider) TracerProvider() trace.TracerProvider {
	if p.tracerProvider == nil {
		return noop.NewTracerProvider()
	}
	return p.tracerProvider
}

// MeterProvider returns the SDK meter provider, or a no-op one when metrics
// are disabled.
func (p *provider) MeterProvider() metric.MeterProvider {
	if p.meterProvider == nil {
		return metricnoop.NewMeterProvider()
	}
	return p.meterProvider
}

// Shutdown flushes pending telemetry and stops both providers.
func (p *provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown trace provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ForceFlush exports pending telemetry without stopping.
func (p *provider) ForceFlush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush trace provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
