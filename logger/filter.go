package logger

import (
	"strings"
)

// DefaultMaskValue replaces sensitive values in log output.
const DefaultMaskValue = "***"

const maxFilterDepth = 8

// FilterConfig lists the field names treated as sensitive. Matching is a
// case-insensitive substring test.
type FilterConfig struct {
	SensitiveFields []string
	MaskValue       string
}

// DefaultFilterConfig masks common credential-like names.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "secret", "token",
			"api_key", "apikey", "authorization", "credential",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks sensitive values before they reach the writer.
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a filter; a nil config uses the defaults.
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString masks value when key is sensitive.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if f.isSensitive(key) {
		return f.config.MaskValue
	}
	return value
}

// FilterValue masks value when key is sensitive and walks nested maps.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	return f.filter(key, value, maxFilterDepth)
}

// FilterFields returns a filtered copy of fields.
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for k, v := range fields {
		filtered[k] = f.FilterValue(k, v)
	}
	return filtered
}

func (f *SensitiveDataFilter) filter(key string, value any, depth int) any {
	if f.isSensitive(key) {
		return f.config.MaskValue
	}
	if depth <= 0 {
		return value
	}

	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = f.filter(k, item, depth-1)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, item := range v {
			out[k] = f.FilterString(k, item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = f.filter(key, item, depth-1)
		}
		return out
	default:
		return value
	}
}

func (f *SensitiveDataFilter) isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, field := range f.config.SensitiveFields {
		if strings.Contains(lower, strings.ToLower(field)) {
			return true
		}
	}
	return false
}
