package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is the configuration file read by Load.
const DefaultFile = "config.yaml"

// envLevelSeparator separates nesting levels in environment variable names,
// so API__LOGIN_REQUIRED maps to api.login_required.
const envLevelSeparator = "__"

// Load reads configuration with priority, lowest first:
// defaults, config.yaml, config.<app.env>.yaml, environment variables.
// Missing files are skipped.
func Load() (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		return loadFiles(k, DefaultFile, true)
	})
}

// LoadFile is like Load but reads the given file, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		return loadFiles(k, path, false)
	})
}

// LoadBytes reads YAML from data instead of a file. Defaults and environment
// variables still apply.
func LoadBytes(data []byte) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to parse configuration: %w", err)
		}
		return nil
	})
}

func load(sources func(*koanf.Koanf) error) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := sources(k); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(".", env.Opt{TransformFunc: envKey}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadFiles(k *koanf.Koanf, path string, optional bool) error {
	if err := loadYAML(k, path, optional); err != nil {
		return err
	}

	if appEnv := k.String("app.env"); appEnv != "" {
		envFile := filepath.Join(filepath.Dir(path), fmt.Sprintf("config.%s.yaml", appEnv))
		if err := loadYAML(k, envFile, true); err != nil {
			return err
		}
	}
	return nil
}

func loadYAML(k *koanf.Koanf, path string, optional bool) error {
	err := k.Load(file.Provider(path), yaml.Parser())
	if err == nil || optional && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// listKeys are split on commas when read from the environment.
var listKeys = map[string]bool{
	"api.middleware": true,
}

// envKey keeps only variables that name a nested key and lowercases them.
func envKey(key, value string) (string, any) {
	if !strings.Contains(key, envLevelSeparator) {
		return "", nil
	}
	key = strings.ToLower(strings.ReplaceAll(key, envLevelSeparator, "."))
	if listKeys[key] {
		items := []string{}
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return key, items
	}
	return key, value
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "arcstack-service",
		"app.version": "v1.0.0",
		"app.env":     EnvDevelopment,
		"app.debug":   false,

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.bodylimit":        "2M",
		"server.timeout.read":     "15s",
		"server.timeout.write":    "30s",
		"server.timeout.idle":     "60s",
		"server.timeout.shutdown": "10s",
		"server.path.base":        "",
		"server.path.health":      "/health",

		"log.level":  "info",
		"log.pretty": false,

		"api.login_required":           false,
		"api.csrf_exempt":              true,
		"api.middleware":               []string{"common"},
		"api.error_response_texts.401": "Authentication required",
		"api.error_response_texts.405": "Method not allowed",
		"api.error_response_texts.500": "Internal server error",
		"api.rate.limit":               0,
		"api.rate.burst":               0,
		"api.slow_request":             "1s",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
