package config

import (
	"fmt"
	"time"
)

// Exists reports whether key has a value.
func (c *Config) Exists(key string) bool {
	return c != nil && c.k != nil && c.k.Exists(key)
}

// GetString returns the string at key, or the default when missing.
func (c *Config) GetString(key string, defaultVal ...string) string {
	if !c.Exists(key) {
		return optionalDefault("", defaultVal...)
	}
	return c.k.String(key)
}

// GetInt returns the int at key, or the default when missing.
func (c *Config) GetInt(key string, defaultVal ...int) int {
	if !c.Exists(key) {
		return optionalDefault(0, defaultVal...)
	}
	return c.k.Int(key)
}

// GetBool returns the bool at key, or the default when missing.
func (c *Config) GetBool(key string, defaultVal ...bool) bool {
	if !c.Exists(key) {
		return optionalDefault(false, defaultVal...)
	}
	return c.k.Bool(key)
}

// GetDuration returns the duration at key, or the default when missing.
func (c *Config) GetDuration(key string, defaultVal ...time.Duration) time.Duration {
	if !c.Exists(key) {
		return optionalDefault(time.Duration(0), defaultVal...)
	}
	return c.k.Duration(key)
}

// GetStringSlice returns the list at key.
func (c *Config) GetStringSlice(key string) []string {
	if !c.Exists(key) {
		return nil
	}
	return c.k.Strings(key)
}

// Unmarshal decodes the section at path into out, which uses mapstructure
// or koanf tags.
func (c *Config) Unmarshal(path string, out any) error {
	if c == nil || c.k == nil {
		return fmt.Errorf("configuration not initialized")
	}
	if err := c.k.Unmarshal(path, out); err != nil {
		return fmt.Errorf("failed to unmarshal %q: %w", path, err)
	}
	return nil
}

func optionalDefault[T any](zero T, defaultVal ...T) T {
	if len(defaultVal) > 0 {
		return defaultVal[0]
	}
	return zero
}
