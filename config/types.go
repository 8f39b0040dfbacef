package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the application configuration. Sections not modelled here stay
// reachable through the accessors and Unmarshal.
type Config struct {
	App    AppConfig    `koanf:"app" json:"app" yaml:"app" mapstructure:"app"`
	Server ServerConfig `koanf:"server" json:"server" yaml:"server" mapstructure:"server"`
	Log    LogConfig    `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
	API    APIConfig    `koanf:"api" json:"api" yaml:"api" mapstructure:"api"`

	k *koanf.Koanf `json:"-" yaml:"-" mapstructure:"-"`
}

// AppConfig holds general application settings. Debug switches error
// handling to developer mode: unexpected errors are returned to the transport
// instead of being turned into generic 500 responses.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name" mapstructure:"name"`
	Version string `koanf:"version" json:"version" yaml:"version" mapstructure:"version"`
	Env     string `koanf:"env" json:"env" yaml:"env" mapstructure:"env"`
	Debug   bool   `koanf:"debug" json:"debug" yaml:"debug" mapstructure:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string        `koanf:"host" json:"host" yaml:"host" mapstructure:"host"`
	Port      int           `koanf:"port" json:"port" yaml:"port" mapstructure:"port"`
	BodyLimit string        `koanf:"bodylimit" json:"bodylimit" yaml:"bodylimit" mapstructure:"bodylimit"`
	Timeout   TimeoutConfig `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	Path      PathConfig    `koanf:"path" json:"path" yaml:"path" mapstructure:"path"`
}

// TimeoutConfig holds server timeouts.
type TimeoutConfig struct {
	Read     time.Duration `koanf:"read" json:"read" yaml:"read" mapstructure:"read"`
	Write    time.Duration `koanf:"write" json:"write" yaml:"write" mapstructure:"write"`
	Idle     time.Duration `koanf:"idle" json:"idle" yaml:"idle" mapstructure:"idle"`
	Shutdown time.Duration `koanf:"shutdown" json:"shutdown" yaml:"shutdown" mapstructure:"shutdown"`
}

// PathConfig holds URL path settings.
type PathConfig struct {
	Base   string `koanf:"base" json:"base" yaml:"base" mapstructure:"base"`
	Health string `koanf:"health" json:"health" yaml:"health" mapstructure:"health"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// APIConfig holds the dispatch layer settings.
type APIConfig struct {
	// LoginRequired is the default for endpoints that do not set the
	// login_required option.
	LoginRequired bool `koanf:"login_required" json:"login_required" yaml:"login_required" mapstructure:"login_required"`
	// CSRFExempt is the default for endpoints that do not set the
	// csrf_exempt option.
	CSRFExempt bool `koanf:"csrf_exempt" json:"csrf_exempt" yaml:"csrf_exempt" mapstructure:"csrf_exempt"`
	// Middleware lists middleware identifiers, outermost first.
	Middleware []string `koanf:"middleware" json:"middleware" yaml:"middleware" mapstructure:"middleware"`
	// ErrorResponseTexts are the messages of framework generated responses,
	// keyed by status code.
	ErrorResponseTexts map[int]string `koanf:"error_response_texts" json:"error_response_texts" yaml:"error_response_texts" mapstructure:"error_response_texts"`

	Rate        RateConfig    `koanf:"rate" json:"rate" yaml:"rate" mapstructure:"rate"`
	SlowRequest time.Duration `koanf:"slow_request" json:"slow_request" yaml:"slow_request" mapstructure:"slow_request"`
}

// RateConfig configures the ratelimit middleware. A limit of zero disables
// it.
type RateConfig struct {
	Limit int `koanf:"limit" json:"limit" yaml:"limit" mapstructure:"limit"`
	Burst int `koanf:"burst" json:"burst" yaml:"burst" mapstructure:"burst"`
}
