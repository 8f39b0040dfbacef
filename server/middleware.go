package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-arcstack/config"
	"github.com/gaborage/go-arcstack/logger"
)

// SetupMiddlewares registers the transport level middleware. Everything
// that concerns dispatch runs in the configurable chain instead.
func SetupMiddlewares(e *echo.Echo, log logger.Logger, cfg *config.Config, tp trace.TracerProvider) {
	// Request ID
	e.Use(middleware.RequestID())

	// Server spans
	var otelOpts []otelecho.Option
	if tp != nil {
		otelOpts = append(otelOpts, otelecho.WithTracerProvider(tp))
	}
	e.Use(otelecho.Middleware(serviceName(cfg), otelOpts...))

	// Recovery
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("stack", string(stack)).
				Msg("Panic recovered")
			return err
		},
	}))

	// Security headers
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		HSTSMaxAge:            3600,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// Body limit
	limit := cfg.Server.BodyLimit
	if limit == "" {
		limit = DefaultBodyLimit
	}
	e.Use(middleware.BodyLimit(limit))
}

// CSRF protects unsafe methods of a non-exempt endpoint. Safe methods
// receive the token cookie; unsafe ones must echo it in X-CSRF-Token.
func CSRF() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + HeaderXCSRFToken,
		CookieName:     CSRFCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteStrictMode,
		ErrorHandler: func(_ error, _ echo.Context) error {
			return echo.NewHTTPError(http.StatusForbidden, "CSRF verification failed")
		},
	})
}

func serviceName(cfg *config.Config) string {
	if cfg.App.Name != "" {
		return cfg.App.Name
	}
	return "go-arcstack"
}
