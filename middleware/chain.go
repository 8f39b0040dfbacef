package middleware

import (
	"net/http"
	"sync"

	"github.com/gaborage/go-arcstack/api"
)

// Builder instantiates chains from middleware identifiers.
type Builder struct {
	Registry *Registry
	Env      Env
}

// Chain is an immutable, built middleware chain.
type Chain struct {
	env        Env
	handler    Handler
	wrappers   []EndpointWrapper
	exceptions []ExceptionTransformer
	middleware []Descriptor
	published  sync.Map // *api.Endpoint -> *publication
}

type publication struct {
	once    sync.Once
	handler Handler
}

// Build instantiates names in reverse order so that names[0] ends up
// outermost. Unknown identifiers and middleware without any hook are
// reported as *ImproperlyConfiguredError.
func (b Builder) Build(names []string) (*Chain, error) {
	registry := b.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}

	c := &Chain{env: b.Env.normalized()}
	handler := Handler(c.getResponse)

	type joined struct {
		name  string
		index int
		m     any
	}
	var used []joined

	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		ctor, ok := registry.Lookup(name)
		if !ok {
			return nil, &ImproperlyConfiguredError{Name: name, Reason: "not registered"}
		}

		outcome := ctor(handler, c.env)
		if outcome.declined {
			if c.env.Debug() {
				c.env.Logger.Debug().
					Str("middleware", name).
					Str("reason", outcome.reason).
					Msg("Middleware not used")
			}
			continue
		}
		if outcome.middleware == nil {
			return nil, &ImproperlyConfiguredError{Name: name, Reason: "constructor returned neither a middleware nor a decline"}
		}

		m := outcome.middleware
		if len(hooksOf(m)) == 0 {
			return nil, &ImproperlyConfiguredError{Name: name, Reason: "middleware implements no hook"}
		}

		if h, ok := m.(RequestHandler); ok {
			handler = h.Handle
		}
		if t, ok := m.(ResponseTransformer); ok {
			handler = transforming(handler, t)
		}
		used = append(used, joined{name: name, index: i, m: m})
	}

	// used is innermost first; hooks are kept in configured order.
	for j := len(used) - 1; j >= 0; j-- {
		u := used[j]
		if w, ok := u.m.(EndpointWrapper); ok {
			c.wrappers = append(c.wrappers, w)
		}
		if t, ok := u.m.(ExceptionTransformer); ok {
			c.exceptions = append(c.exceptions, t)
		}
		c.middleware = append(c.middleware, Descriptor{Name: u.name, Index: u.index, Hooks: hooksOf(u.m)})
	}

	c.handler = handler
	return c, nil
}

func transforming(next Handler, t ResponseTransformer) Handler {
	return func(req *api.Request) (*api.Response, error) {
		resp, err := next(req)
		if err != nil || resp == nil {
			return resp, err
		}
		return t.TransformResponse(req, resp)
	}
}

// Middleware describes the middleware in the chain, outermost first.
func (c *Chain) Middleware() []Descriptor {
	out := make([]Descriptor, len(c.middleware))
	copy(out, c.middleware)
	return out
}

// Serve runs req through the chain to ep. An error escaping the chain is
// returned in debug mode and becomes a generic 500 otherwise.
func (c *Chain) Serve(ep *api.Endpoint, req *api.Request) (*api.Response, error) {
	req = req.WithContext(WithEndpoint(req.Context(), ep))

	resp, err := c.handler(req)
	if err == nil && resp == nil {
		err = ErrNoResponse
	}
	if err == nil {
		return resp, nil
	}

	if c.env.Debug() {
		return nil, err
	}
	c.env.Logger.Error().
		Err(err).
		Str("verb", string(req.Verb)).
		Str("path", req.Path).
		Msg("Unhandled error in middleware chain")
	return api.JSON(http.StatusInternalServerError, map[string]any{
		"error": c.env.Settings.ErrorText(http.StatusInternalServerError),
	})
}

// Publish returns the handler that calls ep wrapped by every endpoint
// wrapper of the chain. Wrappers run once per endpoint.
func (c *Chain) Publish(ep *api.Endpoint) Handler {
	entry, _ := c.published.LoadOrStore(ep, &publication{})
	p := entry.(*publication)
	p.once.Do(func() {
		handler := Handler(ep.Serve)
		for i := len(c.wrappers) - 1; i >= 0; i-- {
			handler = c.wrappers[i].WrapEndpoint(ep, handler)
		}
		p.handler = handler
	})
	return p.handler
}

func (c *Chain) getResponse(req *api.Request) (*api.Response, error) {
	ep, ok := EndpointFrom(req.Context())
	if !ok {
		return nil, ErrNoEndpoint
	}

	resp, err := c.Publish(ep)(req)
	if err == nil {
		return resp, nil
	}
	return c.transformException(req, err)
}

func (c *Chain) transformException(req *api.Request, err error) (*api.Response, error) {
	for _, t := range c.exceptions {
		resp, hookErr := t.TransformException(req, err)
		if hookErr != nil {
			err = hookErr
			continue
		}
		if resp != nil {
			return resp, nil
		}
	}
	return nil, err
}
