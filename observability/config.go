package observability

import (
	"fmt"
	"time"

	"github.com/gaborage/go-arcstack/config"
)

const (
	// EndpointStdout prints telemetry to stdout instead of exporting it.
	EndpointStdout = "stdout"

	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"

	EnvironmentDevelopment = "development"
)

// Config is the observability section of the application configuration.
type Config struct {
	Enabled     bool          `koanf:"enabled"`
	Service     ServiceConfig `koanf:"service"`
	Environment string        `koanf:"environment"`
	Trace       TraceConfig   `koanf:"trace"`
	Metrics     MetricsConfig `koanf:"metrics"`
}

// ServiceConfig identifies the service in exported resources.
type ServiceConfig struct {
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
}

// ExporterConfig selects where telemetry goes.
type ExporterConfig struct {
	// Enabled defaults to true when observability is enabled.
	Enabled  *bool             `koanf:"enabled"`
	Endpoint string            `koanf:"endpoint"`
	Protocol string            `koanf:"protocol"`
	Insecure bool              `koanf:"insecure"`
	Headers  map[string]string `koanf:"headers"`
	Timeout  time.Duration     `koanf:"timeout"`
}

// TraceConfig configures span export.
type TraceConfig struct {
	ExporterConfig `koanf:",squash"`
	SampleRate     *float64      `koanf:"sample_rate"`
	BatchTimeout   time.Duration `koanf:"batch_timeout"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	ExporterConfig `koanf:",squash"`
	Interval       time.Duration `koanf:"interval"`
}

// FromConfig reads the observability section, falling back to the app
// section for the service identity.
func FromConfig(cfg *config.Config) (Config, error) {
	var out Config
	if cfg.Exists("observability") {
		if err := cfg.Unmarshal("observability", &out); err != nil {
			return Config{}, err
		}
	}
	if out.Service.Name == "" {
		out.Service.Name = cfg.App.Name
	}
	if out.Service.Version == "" {
		out.Service.Version = cfg.App.Version
	}
	if out.Environment == "" {
		out.Environment = cfg.App.Env
	}
	return out, nil
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.Service.Version == "" {
		c.Service.Version = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}

	c.Trace.applyDefaults(c.Enabled, c.Environment)
	if c.Trace.SampleRate == nil {
		rate := 1.0
		c.Trace.SampleRate = &rate
	}
	if c.Trace.BatchTimeout == 0 {
		c.Trace.BatchTimeout = 5 * time.Second
		if c.Trace.Endpoint == EndpointStdout {
			c.Trace.BatchTimeout = 500 * time.Millisecond
		}
	}

	c.Metrics.applyDefaults(c.Enabled, c.Environment)
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 10 * time.Second
	}
}

func (e *ExporterConfig) applyDefaults(enabled bool, env string) {
	if e.Endpoint == "" {
		e.Endpoint = EndpointStdout
	}
	if enabled && e.Enabled == nil {
		on := true
		e.Enabled = &on
	}
	if e.Protocol == "" {
		e.Protocol = ProtocolHTTP
	}
	if e.Timeout == 0 {
		e.Timeout = 60 * time.Second
		if env == EnvironmentDevelopment || e.Endpoint == EndpointStdout {
			e.Timeout = 10 * time.Second
		}
	}
}

// On reports whether the exporter is enabled.
func (e ExporterConfig) On() bool {
	return e.Enabled != nil && *e.Enabled
}

// Validate checks a defaulted configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Service.Name == "" {
		return ErrMissingServiceName
	}
	if rate := c.Trace.SampleRate; rate != nil && (*rate < 0 || *rate > 1) {
		return fmt.Errorf("%w: got %.2f", ErrInvalidSampleRate, *rate)
	}
	for name, e := range map[string]ExporterConfig{"trace": c.Trace.ExporterConfig, "metrics": c.Metrics.ExporterConfig} {
		if e.Endpoint == EndpointStdout {
			continue
		}
		if e.Protocol != ProtocolHTTP && e.Protocol != ProtocolGRPC {
			return fmt.Errorf("%s protocol %q: %w", name, e.Protocol, ErrInvalidProtocol)
		}
	}
	return nil
}
