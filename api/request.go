package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request is the per-call view of an HTTP request. The transport builds a
// new Request for every call; it is never shared between calls.
type Request struct {
	Verb       Verb
	Path       string
	PathParams map[string]string
	Query      url.Values
	Header     http.Header
	Body       []byte
	// RemoteIP is the client address as resolved by the transport.
	RemoteIP string

	ctx context.Context
}

// NewRequest creates a request for the given HTTP method with empty
// parameter maps.
func NewRequest(ctx context.Context, method, path string) *Request {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Request{
		Verb:       ParseVerb(method),
		Path:       path,
		PathParams: map[string]string{},
		Query:      url.Values{},
		Header:     http.Header{},
		ctx:        ctx,
	}
}

// Context returns the request context. It is never nil.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r using ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("api: nil context")
	}
	clone := *r
	clone.ctx = ctx
	return &clone
}

// ContentType returns the Content-Type header.
func (r *Request) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Response is what an endpoint or middleware hands back to the transport.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// MIMEApplicationJSON is the content type of every JSON response.
const MIMEApplicationJSON = "application/json"

// JSON encodes v as the body of a response with the given status.
func JSON(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": {MIMEApplicationJSON}},
		Body:   body,
	}, nil
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// SetHeader sets a header, allocating the header map when needed.
func (r *Response) SetHeader(key, value string) {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	r.Header.Set(key, value)
}

type identityKey struct{}

// WithIdentity marks the context as belonging to an authenticated caller.
func WithIdentity(ctx context.Context, identity any) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (any, bool) {
	identity := ctx.Value(identityKey{})
	return identity, identity != nil
}

// Authenticator decides whether a request comes from an authenticated
// caller.
type Authenticator interface {
	IsAuthenticated(req *Request) bool
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(req *Request) bool

// IsAuthenticated calls f(req).
func (f AuthenticatorFunc) IsAuthenticated(req *Request) bool {
	return f(req)
}

// ContextAuthenticator treats requests carrying an identity as
// authenticated.
var ContextAuthenticator Authenticator = AuthenticatorFunc(func(req *Request) bool {
	_, ok := IdentityFrom(req.Context())
	return ok
})
