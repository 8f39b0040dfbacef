// Package middleware builds and runs the ordered chain of interceptors that
// sits between the transport and the endpoints.
//
// Each configured identifier is looked up in a Registry and its Constructor
// is called once per chain build with the next handler. The constructor
// answers with an explicit Outcome: Use(m) to join the chain, or
// NotUsed(reason) to step aside. A middleware joins the chain through the
// hooks it implements:
//
//   - RequestHandler: the layer itself, calling the next handler it was
//     constructed with;
//   - EndpointWrapper: wraps the endpoint call, once per endpoint per chain;
//   - ResponseTransformer: rewrites the response on the way out;
//   - ExceptionTransformer: turns an error escaping the endpoint into a
//     response.
//
// The first configured middleware is the outermost one.
package middleware

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/config"
	"github.com/gaborage/go-arcstack/logger"
)

// Handler produces the response for a request.
type Handler func(req *api.Request) (*api.Response, error)

// RequestHandler is implemented by middleware that handle the request
// themselves and decide when to call the next handler.
type RequestHandler interface {
	Handle(req *api.Request) (*api.Response, error)
}

// EndpointWrapper is implemented by middleware that wrap the endpoint call.
type EndpointWrapper interface {
	WrapEndpoint(ep *api.Endpoint, next Handler) Handler
}

// ResponseTransformer is implemented by middleware that rewrite responses.
type ResponseTransformer interface {
	TransformResponse(req *api.Request, resp *api.Response) (*api.Response, error)
}

// ExceptionTransformer is implemented by middleware that turn errors into
// responses. Returning a nil response passes the error on.
type ExceptionTransformer interface {
	TransformException(req *api.Request, err error) (*api.Response, error)
}

const (
	HookHandle             = "handle"
	HookWrapEndpoint       = "wrap_endpoint"
	HookTransformResponse  = "transform_response"
	HookTransformException = "transform_exception"
)

// Env is what a constructor may read while building its middleware.
type Env struct {
	Settings       api.Settings
	Config         *config.Config
	Logger         logger.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Debug reports whether the chain runs in debug mode.
func (e Env) Debug() bool { return e.Settings.Debug }

// API returns the api configuration section, or its zero value when no
// configuration is attached.
func (e Env) API() config.APIConfig {
	if e.Config == nil {
		return config.APIConfig{}
	}
	return e.Config.API
}

func (e Env) normalized() Env {
	if e.Logger == nil {
		e.Logger = e.Settings.Logger
	}
	if e.Logger == nil {
		e.Logger = logger.Nop()
	}
	if e.TracerProvider == nil {
		e.TracerProvider = otel.GetTracerProvider()
	}
	if e.MeterProvider == nil {
		e.MeterProvider = otel.GetMeterProvider()
	}
	return e
}

// Outcome is the answer of a Constructor.
type Outcome struct {
	middleware any
	reason     string
	declined   bool
}

// Use adds m to the chain. m must implement at least one hook.
func Use(m any) Outcome {
	return Outcome{middleware: m}
}

// NotUsed leaves the middleware out of the chain.
func NotUsed(reason string) Outcome {
	return Outcome{reason: reason, declined: true}
}

// Constructor builds a middleware around next.
type Constructor func(next Handler, env Env) Outcome

// Descriptor describes a middleware that joined a chain.
type Descriptor struct {
	Name  string
	Index int
	Hooks []string
}

// ImproperlyConfiguredError reports a middleware that cannot be built.
type ImproperlyConfiguredError struct {
	Name   string
	Reason string
}

func (e *ImproperlyConfiguredError) Error() string {
	return fmt.Sprintf("middleware %q is improperly configured: %s", e.Name, e.Reason)
}

var (
	// ErrNoEndpoint means a request reached the end of the chain without an
	// endpoint attached to its context.
	ErrNoEndpoint = errors.New("middleware: no endpoint for request")
	// ErrNoResponse means a handler returned neither a response nor an error.
	ErrNoResponse = errors.New("middleware: handler returned no response")
)

type endpointKey struct{}

// WithEndpoint attaches the endpoint that serves a request.
func WithEndpoint(ctx context.Context, ep *api.Endpoint) context.Context {
	return context.WithValue(ctx, endpointKey{}, ep)
}

// EndpointFrom returns the endpoint attached by WithEndpoint.
func EndpointFrom(ctx context.Context) (*api.Endpoint, bool) {
	ep, ok := ctx.Value(endpointKey{}).(*api.Endpoint)
	return ep, ok && ep != nil
}

func hooksOf(m any) []string {
	var hooks []string
	if _, ok := m.(RequestHandler); ok {
		hooks = append(hooks, HookHandle)
	}
	if _, ok := m.(EndpointWrapper); ok {
		hooks = append(hooks, HookWrapEndpoint)
	}
	if _, ok := m.(ResponseTransformer); ok {
		hooks = append(hooks, HookTransformResponse)
	}
	if _, ok := m.(ExceptionTransformer); ok {
		hooks = append(hooks, HookTransformException)
	}
	return hooks
}
