package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAppName = "demo-service"
	keyAppName  = "app.name"
)

func TestLoadBytesDefaults(t *testing.T) {
	cfg, err := LoadBytes([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "arcstack-service", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.False(t, cfg.App.Debug)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.Timeout.Read)
	assert.Equal(t, "/health", cfg.Server.Path.Health)

	assert.False(t, cfg.API.LoginRequired)
	assert.True(t, cfg.API.CSRFExempt)
	assert.Equal(t, []string{"common"}, cfg.API.Middleware)
	assert.Equal(t, map[int]string{
		401: "Authentication required",
		405: "Method not allowed",
		500: "Internal server error",
	}, cfg.API.ErrorResponseTexts)
	assert.Equal(t, time.Second, cfg.API.SlowRequest)
}

func TestLoadBytesOverrides(t *testing.T) {
	cfg, err := LoadBytes([]byte(`
app:
  name: demo-service
  debug: true
api:
  login_required: true
  middleware: [requestid, common, timing]
  error_response_texts:
    "405": Nope
  rate:
    limit: 50
    burst: 100
custom:
  greeting: hello
  retries: 3
`))
	require.NoError(t, err)

	assert.Equal(t, testAppName, cfg.App.Name)
	assert.True(t, cfg.App.Debug)
	assert.True(t, cfg.API.LoginRequired)
	assert.Equal(t, []string{"requestid", "common", "timing"}, cfg.API.Middleware)
	assert.Equal(t, "Nope", cfg.API.ErrorResponseTexts[405])
	assert.Equal(t, "Internal server error", cfg.API.ErrorResponseTexts[500])
	assert.Equal(t, 50, cfg.API.Rate.Limit)

	assert.Equal(t, "hello", cfg.GetString("custom.greeting"))
	assert.Equal(t, 3, cfg.GetInt("custom.retries"))
	assert.Equal(t, "fallback", cfg.GetString("custom.missing", "fallback"))
	assert.True(t, cfg.GetBool("custom.missing", true))
	assert.Equal(t, time.Second, cfg.GetDuration("api.slow_request"))
	assert.Equal(t, []string{"requestid", "common", "timing"}, cfg.GetStringSlice("api.middleware"))
	assert.Nil(t, cfg.GetStringSlice("custom.missing"))
}

func TestLoadBytesEnvironmentOverrides(t *testing.T) {
	t.Setenv("APP__NAME", testAppName)
	t.Setenv("API__LOGIN_REQUIRED", "true")
	t.Setenv("API__MIDDLEWARE", "common, timing")

	cfg, err := LoadBytes([]byte("app:\n  name: from-yaml\n"))
	require.NoError(t, err)

	assert.Equal(t, testAppName, cfg.App.Name)
	assert.True(t, cfg.API.LoginRequired)
	assert.Equal(t, []string{"common", "timing"}, cfg.API.Middleware)
}

func TestEnvKey(t *testing.T) {
	key, value := envKey("PATH", "/usr/bin")
	assert.Empty(t, key)
	assert.Nil(t, value)

	key, value = envKey("SERVER__PATH__BASE", "/api")
	assert.Equal(t, "server.path.base", key)
	assert.Equal(t, "/api", value)

	key, value = envKey("API__MIDDLEWARE", "")
	assert.Equal(t, "api.middleware", key)
	assert.Equal(t, []string{}, value)
}

func TestLoadBytesValidation(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{name: "unknown env", yaml: "app:\n  env: qa\n", field: "app.env"},
		{name: "bad port", yaml: "server:\n  port: 70000\n", field: "server.port"},
		{name: "bad base path", yaml: "server:\n  path:\n    base: api\n", field: "server.path.base"},
		{name: "bad log level", yaml: "log:\n  level: loud\n", field: "log.level"},
		{name: "empty middleware", yaml: "api:\n  middleware: [common, \"\"]\n", field: "api.middleware[1]"},
		{name: "duplicate middleware", yaml: "api:\n  middleware: [common, common]\n", field: "api.middleware[1]"},
		{name: "unknown status text", yaml: "api:\n  error_response_texts:\n    \"999\": x\n", field: "api.error_response_texts"},
		{name: "negative rate", yaml: "api:\n  rate:\n    limit: -1\n", field: "api.rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.yaml))
			require.Error(t, err)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoadBytesInvalidYAML(t *testing.T) {
	_, err := LoadBytes([]byte("app: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse configuration")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "service.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: demo-service\n  env: staging\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yaml"), []byte("server:\n  port: 9090\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testAppName, cfg.App.Name)
	assert.Equal(t, 9090, cfg.Server.Port)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "arcstack-service", cfg.App.Name)
}

func TestUnmarshalSection(t *testing.T) {
	cfg, err := LoadBytes([]byte("custom:\n  greeting: hi\n  retries: 2\n"))
	require.NoError(t, err)

	var custom struct {
		Greeting string `koanf:"greeting"`
		Retries  int    `koanf:"retries"`
	}
	require.NoError(t, cfg.Unmarshal("custom", &custom))
	assert.Equal(t, "hi", custom.Greeting)
	assert.Equal(t, 2, custom.Retries)

	var empty *Config
	assert.Error(t, empty.Unmarshal("custom", &custom))
	assert.False(t, empty.Exists(keyAppName))
}

func TestConfigErrorMessage(t *testing.T) {
	assert.Equal(t,
		"config_missing: app.name required set APP__NAME env var or add app.name to config.yaml",
		NewMissingFieldError(keyAppName).Error())
	assert.Equal(t,
		"config_invalid: app.env bad valid options: a, b",
		NewInvalidFieldError("app.env", "bad", []string{"a", "b"}).Error())
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: first\n"), 0o600))

	var (
		mu    sync.Mutex
		names []string
	)
	w, err := Watch(path, func(cfg *Config, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		names = append(names, cfg.App.Name)
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: second\n"), 0o600))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(names) > 0 && names[len(names)-1] == "second"
	}, 5*time.Second, 20*time.Millisecond)
}
