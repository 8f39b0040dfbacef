// Package server publishes endpoints over HTTP with Echo. It routes
// requests, turns them into api.Request values, runs them through the
// middleware stack and writes the resulting responses.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/config"
	"github.com/gaborage/go-arcstack/logger"
	"github.com/gaborage/go-arcstack/middleware"
)

// Server is the Echo-backed HTTP transport.
type Server struct {
	echo     *echo.Echo
	cfg      *config.Config
	logger   logger.Logger
	stack    *middleware.Stack
	basePath string
}

func normalizeBasePath(basePath string) string {
	if basePath == "" {
		return ""
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if len(basePath) > 1 {
		basePath = strings.TrimRight(basePath, "/")
	}
	return basePath
}

func normalizeRoutePath(route, defaultRoute string) string {
	if route == "" {
		route = defaultRoute
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return route
}

func (s *Server) buildFullPath(route string) string {
	if s.basePath == "" || s.basePath == "/" {
		return route
	}
	if route == "/" {
		return s.basePath
	}
	return s.basePath + route
}

// New creates a server that dispatches through stack. tp is used for server
// spans; nil selects the global tracer provider.
func New(cfg *config.Config, log logger.Logger, stack *middleware.Stack, tp trace.TracerProvider) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		customErrorHandler(err, c, cfg, log)
	}

	SetupMiddlewares(e, log, cfg, tp)

	s := &Server{
		echo:     e,
		cfg:      cfg,
		logger:   log,
		stack:    stack,
		basePath: normalizeBasePath(cfg.Server.Path.Base),
	}

	healthPath := s.buildFullPath(normalizeRoutePath(cfg.Server.Path.Health, "/health"))
	e.GET(healthPath, s.healthCheck)

	log.Debug().
		Str("base_path", s.basePath).
		Str("health_path", healthPath).
		Msg("Server paths configured")

	return s
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Register publishes ep at path for every HTTP method. Path captures use
// Echo syntax, for example "/users/:id". Endpoints that are not CSRF exempt
// get token verification on unsafe methods.
func (s *Server) Register(path string, ep *api.Endpoint) {
	fullPath := s.buildFullPath(normalizeRoutePath(path, "/"))

	var mws []echo.MiddlewareFunc
	if !ep.Descriptor().CSRFExempt {
		mws = append(mws, CSRF())
	}
	s.echo.Any(fullPath, Handler(s.stack, ep), mws...)

	desc := ep.Descriptor()
	s.logger.Info().
		Str("path", fullPath).
		Str("endpoint", desc.Name).
		Strs("verbs", verbMethods(desc.Verbs)).
		Bool("login_required", desc.LoginRequired).
		Bool("csrf_exempt", desc.CSRFExempt).
		Msg("Endpoint registered")
}

// Start serves until the server is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("version", s.cfg.App.Version).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Msg("Starting server...")

	srv := s.echo.Server
	srv.ReadTimeout = orDefault(s.cfg.Server.Timeout.Read, DefaultReadTimeout)
	srv.WriteTimeout = orDefault(s.cfg.Server.Timeout.Write, DefaultWriteTimeout)
	srv.IdleTimeout = orDefault(s.cfg.Server.Timeout.Idle, DefaultIdleTimeout)
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func verbMethods(verbs []api.Verb) []string {
	out := make([]string, len(verbs))
	for i, v := range verbs {
		out[i] = v.Method()
	}
	return out
}
