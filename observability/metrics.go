package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"google.golang.org/grpc/credentials/insecure"
)

func (p *provider) initMeterProvider(res *resource.Resource) error {
	exporter, err := p.createMetricExporter()
	if err != nil {
		return fmt.Errorf("failed to create metric exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(p.config.Metrics.Interval),
		sdkmetric.WithTimeout(p.config.Metrics.Timeout),
	)
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	return nil
}

func (p *provider) createMetricExporter() (sdkmetric.Exporter, error) {
	mc := p.config.Metrics
	if mc.Endpoint == EndpointStdout {
		return stdoutmetric.New(stdoutmetric.WithPrettyPrint())
	}

	switch mc.Protocol {
	case ProtocolHTTP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(mc.Endpoint)}
		if mc.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if len(mc.Headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(mc.Headers))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case ProtocolGRPC:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(mc.Endpoint)}
		if mc.Insecure {
			opts = append(opts, otlpmetricgrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		if len(mc.Headers) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(mc.Headers))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("metrics protocol '%s': %w", mc.Protocol, ErrInvalidProtocol)
	}
}
