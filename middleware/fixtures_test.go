package middleware

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/logger"
)

var errBroken = errors.New("broken")

type greeter struct {
	Fail bool `option:"fail"`
}

func (greeter) Methods(m *api.Methods[greeter]) {
	m.Get((*greeter).get)
	m.Head((*greeter).head)
}

func (h *greeter) get(_ *api.Call) (any, error) {
	if h.Fail {
		return nil, errBroken
	}
	return map[string]any{"message": "hi"}, nil
}

func (*greeter) head(_ *api.Call) (any, error) { return nil, nil }

// debugEndpoint returns an endpoint whose unexpected errors escape to the
// chain.
func debugEndpoint(t *testing.T, opts api.Options) *api.Endpoint {
	t.Helper()
	s := api.DefaultSettings()
	s.Debug = true
	ep, err := api.NewEndpoint[greeter](s, opts)
	require.NoError(t, err)
	return ep
}

func testEnv(debug bool) Env {
	s := api.DefaultSettings()
	s.Debug = debug
	return Env{Settings: s, Logger: logger.Nop()}
}

func bufferedEnv(debug bool) (Env, *bytes.Buffer) {
	var buf bytes.Buffer
	env := testEnv(debug)
	env.Logger = logger.NewWithWriter(&buf, "debug")
	return env, &buf
}

func build(t *testing.T, r *Registry, env Env, names ...string) *Chain {
	t.Helper()
	c, err := Builder{Registry: r, Env: env}.Build(names)
	require.NoError(t, err)
	return c
}

func get(path string) *api.Request {
	return api.NewRequest(context.Background(), "GET", path)
}

// tracer records the order in which layers see the request and response.
type tracer struct {
	name  string
	next  Handler
	trail *[]string
}

func (m *tracer) Handle(req *api.Request) (*api.Response, error) {
	*m.trail = append(*m.trail, m.name+":in")
	resp, err := m.next(req)
	*m.trail = append(*m.trail, m.name+":out")
	return resp, err
}

func tracerCtor(name string, trail *[]string) Constructor {
	return func(next Handler, _ Env) Outcome {
		return Use(&tracer{name: name, next: next, trail: trail})
	}
}

// stamper appends its name to the X-Trail response header.
type stamper struct{ name string }

func (s stamper) TransformResponse(_ *api.Request, resp *api.Response) (*api.Response, error) {
	resp.Header.Add("X-Trail", s.name)
	return resp, nil
}

func stamperCtor(name string) Constructor {
	return func(_ Handler, _ Env) Outcome { return Use(stamper{name: name}) }
}

// rescuer answers errors with a fixed status, or passes when status is 0.
type rescuer struct {
	status int
	err    error
	calls  *[]string
	name   string
}

func (r rescuer) TransformException(_ *api.Request, err error) (*api.Response, error) {
	*r.calls = append(*r.calls, r.name+":"+err.Error())
	if r.err != nil {
		return nil, r.err
	}
	if r.status == 0 {
		return nil, nil
	}
	return api.JSON(r.status, map[string]any{"rescued_by": r.name})
}

func rescuerCtor(r rescuer) Constructor {
	return func(_ Handler, _ Env) Outcome { return Use(r) }
}

// wrapper counts how often it wraps endpoints and tags calls.
type wrapper struct {
	name  string
	wraps *int
	trail *[]string
}

func (w wrapper) WrapEndpoint(_ *api.Endpoint, next Handler) Handler {
	*w.wraps++
	return func(req *api.Request) (*api.Response, error) {
		*w.trail = append(*w.trail, w.name)
		return next(req)
	}
}

func wrapperCtor(w wrapper) Constructor {
	return func(_ Handler, _ Env) Outcome { return Use(w) }
}
