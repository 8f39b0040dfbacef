// Package apitest provides request builders, response decoders and
// in-memory telemetry providers for endpoint tests.
package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/middleware"
)

// RequestBuilder assembles an api.Request step by step.
type RequestBuilder struct {
	req *api.Request
	err error
}

// NewRequest starts a request for method and path.
func NewRequest(method, path string) *RequestBuilder {
	return &RequestBuilder{req: api.NewRequest(context.Background(), method, path)}
}

// Get starts a GET request.
func Get(path string) *RequestBuilder { return NewRequest(http.MethodGet, path) }

// Post starts a POST request.
func Post(path string) *RequestBuilder { return NewRequest(http.MethodPost, path) }

// Query adds a query value.
func (b *RequestBuilder) Query(key, value string) *RequestBuilder {
	b.req.Query.Add(key, value)
	return b
}

// PathParam sets a path capture.
func (b *RequestBuilder) PathParam(key, value string) *RequestBuilder {
	b.req.PathParams[key] = value
	return b
}

// Header sets a header.
func (b *RequestBuilder) Header(key, value string) *RequestBuilder {
	b.req.Header.Set(key, value)
	return b
}

// JSON encodes v as the body and sets the content type.
func (b *RequestBuilder) JSON(v any) *RequestBuilder {
	body, err := json.Marshal(v)
	if err != nil {
		b.err = err
		return b
	}
	return b.RawBody(api.MIMEApplicationJSON, body)
}

// RawBody sets the body as is.
func (b *RequestBuilder) RawBody(contentType string, body []byte) *RequestBuilder {
	b.req.Header.Set("Content-Type", contentType)
	b.req.Body = body
	return b
}

// Identity marks the request as coming from an authenticated caller.
func (b *RequestBuilder) Identity(identity any) *RequestBuilder {
	b.req = b.req.WithContext(api.WithIdentity(b.req.Context(), identity))
	return b
}

// RemoteIP sets the client address.
func (b *RequestBuilder) RemoteIP(ip string) *RequestBuilder {
	b.req.RemoteIP = ip
	return b
}

// Context replaces the request context.
func (b *RequestBuilder) Context(ctx context.Context) *RequestBuilder {
	b.req = b.req.WithContext(ctx)
	return b
}

// Build returns the request. It panics if encoding a JSON body failed.
func (b *RequestBuilder) Build() *api.Request {
	if b.err != nil {
		panic("apitest: " + b.err.Error())
	}
	return b.req
}

// Serve calls ep directly and fails the test when it returns an error.
func Serve(t testing.TB, ep *api.Endpoint, req *api.Request) *api.Response {
	t.Helper()
	resp, err := ep.Serve(req)
	require.NoError(t, err, "endpoint %s returned an error", ep.Name())
	require.NotNil(t, resp)
	return resp
}

// ServeChain runs req through chain into ep and fails the test when the
// chain returns an error.
func ServeChain(t testing.TB, chain *middleware.Chain, ep *api.Endpoint, req *api.Request) *api.Response {
	t.Helper()
	resp, err := chain.Serve(ep, req)
	require.NoError(t, err, "chain returned an error for %s", ep.Name())
	require.NotNil(t, resp)
	return resp
}

// DecodeJSON decodes a JSON response body into a map.
func DecodeJSON(t testing.TB, resp *api.Response) map[string]any {
	t.Helper()
	require.Equal(t, api.MIMEApplicationJSON, resp.ContentType(), "response is not JSON")
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &out))
	return out
}

// DecodeInto decodes a JSON response body into v.
func DecodeInto(t testing.TB, resp *api.Response, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Body, v))
}

// ErrorBody decodes a response rendered for an api.HTTPError and checks
// its status.
func ErrorBody(t testing.TB, resp *api.Response, status int) any {
	t.Helper()
	require.Equal(t, status, resp.Status)
	body := DecodeJSON(t, resp)
	require.Contains(t, body, "error")
	return body["error"]
}
