package config

import (
	"fmt"
	"strings"
)

// ConfigError describes an invalid configuration value with guidance on how
// to fix it. Messages are lowercase.
//
//nolint:revive // ConfigError reads better than Error at call sites
type ConfigError struct {
	Category string
	Field    string
	Message  string
	Action   string
}

func (e *ConfigError) Error() string {
	parts := make([]string, 0, 4)
	if e.Category != "" {
		parts = append(parts, fmt.Sprintf("config_%s:", e.Category))
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Action != "" {
		parts = append(parts, e.Action)
	}
	return strings.Join(parts, " ")
}

// NewMissingFieldError reports a required field without a value.
func NewMissingFieldError(field string) *ConfigError {
	envVar := strings.ToUpper(strings.ReplaceAll(field, ".", envLevelSeparator))
	return &ConfigError{
		Category: "missing",
		Field:    field,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or add %s to %s", envVar, field, DefaultFile),
	}
}

// NewInvalidFieldError reports a field with an unusable value.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	err := &ConfigError{
		Category: "invalid",
		Field:    field,
		Message:  message,
	}
	if len(validOptions) > 0 {
		err.Action = "valid options: " + strings.Join(validOptions, ", ")
	}
	return err
}
