package api

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-arcstack/schema"
)

const (
	helloWorld  = "Hello, world!"
	interrupted = "Interrupted"
	bodyParam   = "body"
)

type message struct {
	Message string `json:"message" validate:"required"`
}

type shortFoo struct {
	Foo string `json:"foo" validate:"required,max=3"`
}

type pageQuery struct {
	Page int `json:"page" validate:"gte=1"`
	Size int `json:"size"`
}

type whoPath struct {
	Who string `json:"who" validate:"required"`
}

// simpleHandler mirrors a typical resource with a raising switch.
type simpleHandler struct {
	ShouldRaise bool   `option:"should_raise"`
	Greeting    string `option:"greeting"`
	Retries     int
	Internal    string `option:"-"`
}

func (simpleHandler) Methods(m *Methods[simpleHandler]) {
	m.Get((*simpleHandler).get)
	m.Post((*simpleHandler).post,
		Body(bodyParam, schema.Object[message]()),
		Returns(schema.Object[message]()))
}

func (h *simpleHandler) get(_ *Call) (any, error) {
	if h.ShouldRaise {
		return nil, NewError(interrupted)
	}
	if h.Greeting != "" {
		return map[string]any{"message": h.Greeting}, nil
	}
	return map[string]any{"message": helloWorld}, nil
}

func (h *simpleHandler) post(c *Call) (any, error) {
	return Arg[message](c, bodyParam), nil
}

func testSettings(debug bool) Settings {
	s := DefaultSettings()
	s.Debug = debug
	return s
}

func newTestRequest(method, path, body string) *Request {
	req := NewRequest(context.Background(), method, path)
	if body != "" {
		req.Body = []byte(body)
		req.Header.Set("Content-Type", MIMEApplicationJSON)
	}
	return req
}

func decodeBody(t *testing.T, resp *Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &out))
	return out
}

func mustServe(t *testing.T, e *Endpoint, req *Request) *Response {
	t.Helper()
	resp, err := e.Serve(req)
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}
