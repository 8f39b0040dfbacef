package api

import (
	"maps"
	"net/http"

	"github.com/gaborage/go-arcstack/config"
	"github.com/gaborage/go-arcstack/logger"
)

// Settings is the immutable configuration an endpoint is built with.
type Settings struct {
	// Debug returns unexpected errors to the caller instead of answering
	// with a generic 500.
	Debug bool
	// LoginRequired and CSRFExempt are defaults for the options of the same
	// name.
	LoginRequired bool
	CSRFExempt    bool
	// ErrorTexts holds the messages of framework responses by status.
	ErrorTexts map[int]string

	Authenticator Authenticator
	Logger        logger.Logger
}

// DefaultSettings returns production settings with the default texts.
func DefaultSettings() Settings {
	return Settings{
		CSRFExempt: true,
		ErrorTexts: map[int]string{
			http.StatusUnauthorized:        "Authentication required",
			http.StatusMethodNotAllowed:    "Method not allowed",
			http.StatusInternalServerError: "Internal server error",
		},
		Authenticator: ContextAuthenticator,
		Logger:        logger.Nop(),
	}
}

// SettingsFromConfig builds settings from the app and api sections.
func SettingsFromConfig(cfg *config.Config, log logger.Logger) Settings {
	s := DefaultSettings()
	s.Debug = cfg.App.Debug
	s.LoginRequired = cfg.API.LoginRequired
	s.CSRFExempt = cfg.API.CSRFExempt
	maps.Copy(s.ErrorTexts, cfg.API.ErrorResponseTexts)
	if log != nil {
		s.Logger = log
	}
	return s
}

// ErrorText returns the configured text for status, falling back to the
// standard status text.
func (s Settings) ErrorText(status int) string {
	if text, ok := s.ErrorTexts[status]; ok && text != "" {
		return text
	}
	return http.StatusText(status)
}

func (s Settings) normalized() Settings {
	if s.Authenticator == nil {
		s.Authenticator = ContextAuthenticator
	}
	if s.Logger == nil {
		s.Logger = logger.Nop()
	}
	s.ErrorTexts = maps.Clone(s.ErrorTexts)
	return s
}
