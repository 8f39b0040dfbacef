package config

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Validate checks every section and joins the failures.
func Validate(cfg *Config) error {
	return errors.Join(
		validateApp(&cfg.App),
		validateServer(&cfg.Server),
		validateLog(&cfg.Log),
		validateAPI(&cfg.API),
	)
}

func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name")
	}
	if cfg.Version == "" {
		return NewMissingFieldError("app.version")
	}

	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction}
	if !slices.Contains(validEnvs, cfg.Env) {
		return NewInvalidFieldError("app.env", fmt.Sprintf("unknown environment %q", cfg.Env), validEnvs)
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return NewInvalidFieldError("server.port", fmt.Sprintf("port %d out of range 1-65535", cfg.Port), nil)
	}
	if cfg.Timeout.Read < 0 || cfg.Timeout.Write < 0 || cfg.Timeout.Idle < 0 || cfg.Timeout.Shutdown < 0 {
		return NewInvalidFieldError("server.timeout", "timeouts must not be negative", nil)
	}
	if cfg.Path.Base != "" && !strings.HasPrefix(cfg.Path.Base, "/") {
		return NewInvalidFieldError("server.path.base", "must start with /", nil)
	}
	return nil
}

func validateLog(cfg *LogConfig) error {
	if cfg.Level == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(cfg.Level); err != nil {
		return NewInvalidFieldError("log.level", fmt.Sprintf("unknown level %q", cfg.Level),
			[]string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"})
	}
	return nil
}

func validateAPI(cfg *APIConfig) error {
	seen := make(map[string]struct{}, len(cfg.Middleware))
	for i, name := range cfg.Middleware {
		field := "api.middleware[" + strconv.Itoa(i) + "]"
		if strings.TrimSpace(name) == "" {
			return NewInvalidFieldError(field, "empty middleware identifier", nil)
		}
		if _, dup := seen[name]; dup {
			return NewInvalidFieldError(field, fmt.Sprintf("middleware %q listed twice", name), nil)
		}
		seen[name] = struct{}{}
	}

	for status := range cfg.ErrorResponseTexts {
		if http.StatusText(status) == "" {
			return NewInvalidFieldError("api.error_response_texts", fmt.Sprintf("unknown status code %d", status), nil)
		}
	}

	if cfg.Rate.Limit < 0 || cfg.Rate.Burst < 0 {
		return NewInvalidFieldError("api.rate", "limit and burst must not be negative", nil)
	}
	if cfg.SlowRequest < 0 {
		return NewInvalidFieldError("api.slow_request", "must not be negative", nil)
	}
	return nil
}
