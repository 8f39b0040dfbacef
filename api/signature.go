package api

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/gaborage/go-arcstack/internal/reflection"
	"github.com/gaborage/go-arcstack/schema"
)

// Call is what a handler method receives: the request and its validated
// arguments.
type Call struct {
	Request *Request
	Args    Args
}

// Context returns the request context.
func (c *Call) Context() context.Context {
	return c.Request.Context()
}

// Args maps parameter names to validated values.
type Args map[string]any

// Arg returns the validated argument name as T, or the zero T when it is
// missing (for example a nullable body that was empty).
func Arg[T any](c *Call, name string) T {
	v, _ := LookupArg[T](c, name)
	return v
}

// LookupArg is like Arg and also reports whether a value of type T was
// present.
func LookupArg[T any](c *Call, name string) (T, bool) {
	v, ok := c.Args[name].(T)
	return v, ok
}

// HandlerFunc is a handler method expression such as (*Greeter).Get.
type HandlerFunc[H any] func(h *H, c *Call) (any, error)

// Resource is implemented by handler types. Methods is called once per type
// and declares the verbs the type serves.
type Resource[H any] interface {
	Methods(m *Methods[H])
}

// SetupHook lets a handler prepare per-call state before the verb check.
// A returned error is handled like a handler error.
type SetupHook interface {
	Setup(c *Call) error
}

// Defaulter lets a handler type fill its fields before options are applied.
type Defaulter interface {
	SetDefaults()
}

// MethodSignature is the resolved declaration of one verb.
type MethodSignature struct {
	Verb     Verb
	Handler  string
	Params   []ParameterSpec
	Response schema.Schema
}

// MethodOption declares a parameter or the response schema of a verb.
type MethodOption func(*MethodSignature)

// Param binds the argument name to a source and a schema.
func Param(name string, source Source, s schema.Schema) MethodOption {
	return func(sig *MethodSignature) {
		sig.Params = append(sig.Params, ParameterSpec{Name: name, Source: source, Schema: s})
	}
}

// Query binds name to the query string.
func Query(name string, s schema.Schema) MethodOption { return Param(name, SourceQuery, s) }

// Path binds name to the captured path segments.
func Path(name string, s schema.Schema) MethodOption { return Param(name, SourcePath, s) }

// Body binds name to the parsed request body.
func Body(name string, s schema.Schema) MethodOption { return Param(name, SourceBody, s) }

// Returns declares the schema the handler result must satisfy.
func Returns(s schema.Schema) MethodOption {
	return func(sig *MethodSignature) { sig.Response = s }
}

// Methods collects verb declarations for the handler type H.
type Methods[H any] struct {
	typeName string
	sigs     map[Verb]*MethodSignature
	funcs    map[Verb]HandlerFunc[H]
	errs     []error
}

// Get declares the GET handler.
func (m *Methods[H]) Get(fn HandlerFunc[H], opts ...MethodOption) { m.Handle(GET, fn, opts...) }

// Post declares the POST handler.
func (m *Methods[H]) Post(fn HandlerFunc[H], opts ...MethodOption) { m.Handle(POST, fn, opts...) }

// Put declares the PUT handler.
func (m *Methods[H]) Put(fn HandlerFunc[H], opts ...MethodOption) { m.Handle(PUT, fn, opts...) }

// Patch declares the PATCH handler.
func (m *Methods[H]) Patch(fn HandlerFunc[H], opts ...MethodOption) { m.Handle(PATCH, fn, opts...) }

// Delete declares the DELETE handler.
func (m *Methods[H]) Delete(fn HandlerFunc[H], opts ...MethodOption) { m.Handle(DELETE, fn, opts...) }

// Head declares the HEAD handler. It must not return a body.
func (m *Methods[H]) Head(fn HandlerFunc[H], opts ...MethodOption) { m.Handle(HEAD, fn, opts...) }

// Options declares the OPTIONS handler.
func (m *Methods[H]) Options(fn HandlerFunc[H], opts ...MethodOption) {
	m.Handle(OPTIONS, fn, opts...)
}

// Trace declares the TRACE handler. It must not return a body.
func (m *Methods[H]) Trace(fn HandlerFunc[H], opts ...MethodOption) { m.Handle(TRACE, fn, opts...) }

// Handle declares the handler for verb. Invalid declarations are collected
// and reported when the endpoint is built.
func (m *Methods[H]) Handle(verb Verb, fn HandlerFunc[H], opts ...MethodOption) {
	fail := func(param, reason string) {
		m.errs = append(m.errs, &SignatureError{Type: m.typeName, Verb: verb, Param: param, Reason: reason})
	}

	if !verb.Allowed() {
		fail("", "verb is not allowed")
		return
	}
	if fn == nil {
		fail("", "handler is nil")
		return
	}
	if _, dup := m.sigs[verb]; dup {
		fail("", "verb declared twice")
		return
	}

	sig := &MethodSignature{Verb: verb, Handler: reflection.FuncName(fn)}
	for _, opt := range opts {
		opt(sig)
	}

	valid := true
	seen := make(map[string]struct{}, len(sig.Params))
	for _, p := range sig.Params {
		switch {
		case p.Name == "":
			fail(p.Name, "parameter name is empty")
		case !p.Source.valid():
			fail(p.Name, "parameter has no valid source")
		case isNilSchema(p.Schema):
			fail(p.Name, "parameter has no schema")
		default:
			if _, dup := seen[p.Name]; dup {
				fail(p.Name, "parameter declared twice")
			} else {
				seen[p.Name] = struct{}{}
				continue
			}
		}
		valid = false
	}
	if !valid {
		return
	}

	m.sigs[verb] = sig
	m.funcs[verb] = fn
}

func isNilSchema(s schema.Schema) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// resolved holds the cached declarations of one handler type.
type resolved[H any] struct {
	sigs  map[Verb]*MethodSignature
	funcs map[Verb]HandlerFunc[H]
	verbs []Verb
}

type cacheEntry struct {
	once  sync.Once
	value any
	err   error
}

// signatureCache maps a handler type to its *cacheEntry. Entries live for
// the process lifetime.
var signatureCache sync.Map

// resolve returns the declarations of H, calling H's Methods only the first
// time.
func resolve[H any]() (*resolved[H], error) {
	t := reflect.TypeFor[H]()
	e, _ := signatureCache.LoadOrStore(t, &cacheEntry{})
	entry := e.(*cacheEntry)
	entry.once.Do(func() {
		entry.value, entry.err = describe[H](t)
	})
	if entry.err != nil {
		return nil, entry.err
	}
	return entry.value.(*resolved[H]), nil
}

func describe[H any](t reflect.Type) (*resolved[H], error) {
	name := reflection.TypeName(t)

	var zero H
	res, ok := any(&zero).(Resource[H])
	if !ok {
		return nil, &SignatureError{Type: name, Reason: "type does not declare Methods(*api.Methods[" + name + "])"}
	}

	m := &Methods[H]{
		typeName: name,
		sigs:     make(map[Verb]*MethodSignature),
		funcs:    make(map[Verb]HandlerFunc[H]),
	}
	res.Methods(m)
	if len(m.errs) > 0 {
		return nil, errors.Join(m.errs...)
	}

	r := &resolved[H]{sigs: m.sigs, funcs: m.funcs}
	for _, verb := range allowedVerbs {
		if _, ok := m.sigs[verb]; ok {
			r.verbs = append(r.verbs, verb)
		}
	}
	return r, nil
}
