// Package app wires configuration, logging, observability, the middleware
// stack and the HTTP server into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/config"
	"github.com/gaborage/go-arcstack/logger"
	"github.com/gaborage/go-arcstack/middleware"
	"github.com/gaborage/go-arcstack/observability"
	"github.com/gaborage/go-arcstack/server"
)

// App is a configured application.
type App struct {
	cfg        *config.Config
	configPath string
	logger     logger.Logger
	settings   api.Settings
	obs        observability.Provider
	stack      *middleware.Stack
	server     *server.Server
}

// Option customizes New.
type Option func(*options)

type options struct {
	cfg           *config.Config
	configPath    string
	logger        logger.Logger
	registry      *middleware.Registry
	authenticator api.Authenticator
}

// WithConfig uses cfg instead of loading configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigFile loads configuration from path and reloads the middleware
// stack whenever the file changes.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithLogger replaces the logger built from the log section.
func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithRegistry makes additional middleware available to api.middleware.
func WithRegistry(r *middleware.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithAuthenticator replaces the default identity check.
func WithAuthenticator(a api.Authenticator) Option {
	return func(o *options) { o.authenticator = a }
}

// New builds the application. Without WithConfig or WithConfigFile the
// configuration comes from config.yaml, config.<env>.yaml and the
// environment.
func New(opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := o.logger
	if log == nil {
		log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	}

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Env).
		Str("version", cfg.App.Version).
		Bool("debug", cfg.App.Debug).
		Msg("Starting application")

	obsCfg, err := observability.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	obs, err := observability.NewProvider(obsCfg)
	if err != nil {
		return nil, err
	}

	settings := api.SettingsFromConfig(cfg, log)
	if o.authenticator != nil {
		settings.Authenticator = o.authenticator
	}

	stack, err := middleware.NewStack(middleware.Builder{
		Registry: o.registry,
		Env: middleware.Env{
			Settings:       settings,
			Config:         cfg,
			Logger:         log,
			TracerProvider: obs.TracerProvider(),
			MeterProvider:  obs.MeterProvider(),
		},
	}, cfg.API.Middleware)
	if err != nil {
		_ = observability.Shutdown(obs, 0)
		return nil, fmt.Errorf("failed to build middleware stack: %w", err)
	}

	return &App{
		cfg:        cfg,
		configPath: o.configPath,
		logger:     log,
		settings:   settings,
		obs:        obs,
		stack:      stack,
		server:     server.New(cfg, log, stack, obs.TracerProvider()),
	}, nil
}

func loadConfig(o options) (*config.Config, error) {
	switch {
	case o.cfg != nil:
		return o.cfg, nil
	case o.configPath != "":
		return config.LoadFile(o.configPath)
	default:
		return config.Load()
	}
}

// Config returns the configuration the application started with.
func (a *App) Config() *config.Config { return a.cfg }

// Settings returns the endpoint settings derived from the configuration.
func (a *App) Settings() api.Settings { return a.settings }

// Stack returns the middleware stack.
func (a *App) Stack() *middleware.Stack { return a.stack }

// Server returns the HTTP server.
func (a *App) Server() *server.Server { return a.server }

// Register publishes ep at path.
func (a *App) Register(path string, ep *api.Endpoint) {
	a.server.Register(path, ep)
}

// Register builds an endpoint for H with the application settings and
// publishes it at path.
func Register[H any](a *App, path string, opts api.Options) error {
	ep, err := api.NewEndpoint[H](a.settings, opts)
	if err != nil {
		return err
	}
	a.Register(path, ep)
	return nil
}

// Run serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.configPath != "" {
		watcher, err := config.Watch(a.configPath, a.reload)
		if err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("Shutting down application")

		timeout := a.cfg.Server.Timeout.Shutdown
		if timeout <= 0 {
			timeout = server.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Shutdown stops the server and flushes telemetry.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown server: %w", err))
	}
	if err := a.obs.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.Error().Err(err).Msg("Application shutdown incomplete")
		return err
	}
	a.logger.Info().Msg("Application shutdown complete")
	return nil
}

func (a *App) reload(cfg *config.Config, err error) {
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to reload config")
		return
	}
	if err := a.stack.Reload(cfg); err != nil {
		a.logger.Error().Err(err).Msg("Failed to rebuild middleware stack, keeping current one")
		return
	}
	a.logger.Info().
		Strs("middleware", cfg.API.Middleware).
		Msg("Middleware stack reloaded")
}
