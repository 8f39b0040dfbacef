package api

import (
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-arcstack/schema"
)

var errDatabaseDown = errors.New("database down")

// misbehavingHandler covers the server-side failure paths.
type misbehavingHandler struct {
	calls int
}

func (misbehavingHandler) Methods(m *Methods[misbehavingHandler]) {
	m.Get((*misbehavingHandler).count)
	m.Post((*misbehavingHandler).fail)
	m.Put((*misbehavingHandler).panics)
	m.Patch((*misbehavingHandler).wrongShape, Returns(schema.Object[shortFoo]()))
	m.Delete((*misbehavingHandler).text)
	m.Head((*misbehavingHandler).headBody)
	m.Options((*misbehavingHandler).forbidden)
}

func (h *misbehavingHandler) count(_ *Call) (any, error) {
	h.calls++
	return map[string]any{"calls": h.calls}, nil
}

func (*misbehavingHandler) fail(_ *Call) (any, error) { return nil, errDatabaseDown }

func (*misbehavingHandler) panics(_ *Call) (any, error) { panic("boom") }

func (*misbehavingHandler) wrongShape(_ *Call) (any, error) {
	return map[string]any{"foo": 1}, nil
}

func (*misbehavingHandler) text(_ *Call) (any, error) { return "plain text", nil }

func (*misbehavingHandler) headBody(_ *Call) (any, error) {
	return map[string]any{"a": 1}, nil
}

func (*misbehavingHandler) forbidden(_ *Call) (any, error) {
	return nil, NewForbiddenError("").WithCause(errDatabaseDown)
}

// setupHandler rejects callers during setup and records state for verbs.
type setupHandler struct {
	tenant string
}

func (setupHandler) Methods(m *Methods[setupHandler]) {
	m.Get((*setupHandler).get)
}

func (h *setupHandler) Setup(c *Call) error {
	h.tenant = c.Request.Header.Get("X-Tenant")
	if h.tenant == "" {
		return NewError("tenant header missing").WithStatus(http.StatusPreconditionFailed)
	}
	return nil
}

func (h *setupHandler) get(_ *Call) (any, error) {
	return map[string]any{"tenant": h.tenant}, nil
}

type pagedHandler struct{}

func (pagedHandler) Methods(m *Methods[pagedHandler]) {
	m.Post((*pagedHandler).post,
		Query("page", schema.Object[pageQuery]()),
		Body(bodyParam, schema.Object[shortFoo]()))
}

func (*pagedHandler) post(c *Call) (any, error) {
	return map[string]any{"page": Arg[pageQuery](c, "page").Page, "foo": Arg[shortFoo](c, bodyParam).Foo}, nil
}

func TestServeSimple(t *testing.T) {
	e := MustEndpoint[simpleHandler](testSettings(false), nil)

	resp := mustServe(t, e, newTestRequest("GET", "/simple", ""))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, MIMEApplicationJSON, resp.ContentType())
	assert.Equal(t, map[string]any{"message": helloWorld}, decodeBody(t, resp))
}

func TestServeEchoesBody(t *testing.T) {
	e := MustEndpoint[simpleHandler](testSettings(false), nil)

	resp := mustServe(t, e, newTestRequest("POST", "/with-body", `{"message":"Hello, world!"}`))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, map[string]any{"message": helloWorld}, decodeBody(t, resp))
}

func TestServeDomainError(t *testing.T) {
	e := MustEndpoint[simpleHandler](testSettings(false), Options{"should_raise": true})

	resp := mustServe(t, e, newTestRequest("GET", "/with-api-error", ""))
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.JSONEq(t, `{"error":"Interrupted","status":400}`, string(resp.Body))
}

func TestServeDomainErrorWithCustomStatus(t *testing.T) {
	for _, debug := range []bool{false, true} {
		e := MustEndpoint[misbehavingHandler](testSettings(debug), nil)

		resp := mustServe(t, e, newTestRequest("OPTIONS", "/", ""))
		assert.Equal(t, http.StatusForbidden, resp.Status)
		assert.JSONEq(t, `{"error":"Access denied","status":403}`, string(resp.Body))
	}
}

func TestServeMethodNotAllowed(t *testing.T) {
	e := MustEndpoint[simpleHandler](testSettings(false), nil)

	resp := mustServe(t, e, newTestRequest("DELETE", "/simple", ""))
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, string(resp.Body))
	assert.Equal(t, "GET, POST", resp.Header.Get("Allow"))
}

func TestServeLoginRequired(t *testing.T) {
	e := MustEndpoint[simpleHandler](testSettings(false), Options{OptionLoginRequired: true})

	resp := mustServe(t, e, newTestRequest("GET", "/with-login-required", ""))
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.JSONEq(t, `{"error":"Authentication required"}`, string(resp.Body))

	req := newTestRequest("GET", "/with-login-required", "")
	req = req.WithContext(WithIdentity(req.Context(), "user-1"))
	resp = mustServe(t, e, req)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestServeLoginCheckPrecedesVerbCheck(t *testing.T) {
	e := MustEndpoint[simpleHandler](testSettings(false), Options{OptionLoginRequired: true})

	resp := mustServe(t, e, newTestRequest("DELETE", "/", ""))
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestServeCustomAuthenticatorAndTexts(t *testing.T) {
	s := testSettings(false)
	s.Authenticator = AuthenticatorFunc(func(req *Request) bool {
		return req.Header.Get("Authorization") == "Bearer ok"
	})
	s.ErrorTexts[http.StatusUnauthorized] = "Log in first"

	e := MustEndpoint[simpleHandler](s, Options{OptionLoginRequired: true})

	resp := mustServe(t, e, newTestRequest("GET", "/", ""))
	assert.JSONEq(t, `{"error":"Log in first"}`, string(resp.Body))

	req := newTestRequest("GET", "/", "")
	req.Header.Set("Authorization", "Bearer ok")
	assert.Equal(t, http.StatusOK, mustServe(t, e, req).Status)
}

func TestServeValidationErrors(t *testing.T) {
	e := MustEndpoint[pagedHandler](testSettings(false), nil)

	req := newTestRequest("POST", "/paged", `{"foo":"something_long"}`)
	req.Query.Set("page", "0")

	resp := mustServe(t, e, req)
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	body := decodeBody(t, resp)
	assert.InDelta(t, 400, body["status"], 0)
	errs, ok := body["error"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 2)
	assert.Equal(t, "page.page", errs[0].(map[string]any)["field"])
	assert.Equal(t, "body.foo", errs[1].(map[string]any)["field"])
}

func TestServeValidArguments(t *testing.T) {
	e := MustEndpoint[pagedHandler](testSettings(false), nil)

	req := newTestRequest("POST", "/paged", `{"foo":"abc"}`)
	req.Query.Set("page", "2")

	resp := mustServe(t, e, req)
	assert.JSONEq(t, `{"page":2,"foo":"abc"}`, string(resp.Body))
}

func TestServeUnexpectedErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "returned error",
			method: "POST",
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, errDatabaseDown) },
		},
		{
			name:   "panic",
			method: "PUT",
			check: func(t *testing.T, err error) {
				var perr *PanicError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, "boom", perr.Value)
				assert.NotEmpty(t, perr.Stack)
			},
		},
		{
			name:   "return schema mismatch",
			method: "PATCH",
			check: func(t *testing.T, err error) {
				var rerr *ReturnValidationError
				assert.ErrorAs(t, err, &rerr)
			},
		},
		{
			name:   "unsupported result type",
			method: "DELETE",
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidResult) },
		},
		{
			name:   "head with body",
			method: "HEAD",
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidResult) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+" in production", func(t *testing.T) {
			e := MustEndpoint[misbehavingHandler](testSettings(false), nil)

			resp := mustServe(t, e, newTestRequest(tt.method, "/", ""))
			assert.Equal(t, http.StatusInternalServerError, resp.Status)
			assert.JSONEq(t, `{"error":"Internal server error"}`, string(resp.Body))
		})

		t.Run(tt.name+" in debug", func(t *testing.T) {
			e := MustEndpoint[misbehavingHandler](testSettings(true), nil)

			resp, err := e.Serve(newTestRequest(tt.method, "/", ""))
			assert.Nil(t, resp)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestServeFreshInstancePerCall(t *testing.T) {
	e := MustEndpoint[misbehavingHandler](testSettings(false), nil)

	for range 3 {
		resp := mustServe(t, e, newTestRequest("GET", "/", ""))
		assert.JSONEq(t, `{"calls":1}`, string(resp.Body))
	}
}

// tallyHandler allocates its state in SetDefaults and mutates it per call.
type tallyHandler struct {
	Seen  map[string]int
	Extra []string `option:"extra"`
}

func (h *tallyHandler) SetDefaults() {
	h.Seen = map[string]int{}
}

func (tallyHandler) Methods(m *Methods[tallyHandler]) {
	m.Get((*tallyHandler).get)
}

func (h *tallyHandler) get(_ *Call) (any, error) {
	h.Seen["calls"]++
	h.Extra = append(h.Extra, "call")
	return map[string]any{"calls": h.Seen["calls"], "extra": len(h.Extra)}, nil
}

func TestServeDefaultsRunPerCall(t *testing.T) {
	e := MustEndpoint[tallyHandler](testSettings(false), Options{"extra": []string{"configured"}})

	for range 3 {
		resp := mustServe(t, e, newTestRequest("GET", "/", ""))
		assert.JSONEq(t, `{"calls":1,"extra":2}`, string(resp.Body))
	}
}

func TestServeConcurrentCallsShareNoState(t *testing.T) {
	e := MustEndpoint[tallyHandler](testSettings(false), nil)

	var wg sync.WaitGroup
	bodies := make([]string, 32)
	for i := range bodies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := e.Serve(newTestRequest("GET", "/", ""))
			if err == nil && resp != nil {
				bodies[i] = string(resp.Body)
			}
		}()
	}
	wg.Wait()

	for _, body := range bodies {
		assert.JSONEq(t, `{"calls":1,"extra":1}`, body)
	}
}

func TestServeSetupHook(t *testing.T) {
	e := MustEndpoint[setupHandler](testSettings(false), nil)

	resp := mustServe(t, e, newTestRequest("GET", "/", ""))
	assert.Equal(t, http.StatusPreconditionFailed, resp.Status)
	assert.JSONEq(t, `{"error":"tenant header missing","status":412}`, string(resp.Body))

	req := newTestRequest("GET", "/", "")
	req.Header.Set("X-Tenant", "acme")
	resp = mustServe(t, e, req)
	assert.JSONEq(t, `{"tenant":"acme"}`, string(resp.Body))
}

func TestServeHeadWithoutBody(t *testing.T) {
	e := MustEndpoint[headHandler](testSettings(false), nil)

	resp := mustServe(t, e, newTestRequest("HEAD", "/", ""))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, resp.Body)
}

type headHandler struct{}

func (headHandler) Methods(m *Methods[headHandler]) {
	m.Head(func(_ *headHandler, _ *Call) (any, error) { return nil, nil })
}

func TestErrorResponse(t *testing.T) {
	resp, err := ErrorResponse(&ValidationError{Errors: []schema.FieldError{{Field: "f", Message: "m"}}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.JSONEq(t, `{"error":[{"field":"f","message":"m"}],"status":400}`, string(resp.Body))
}
