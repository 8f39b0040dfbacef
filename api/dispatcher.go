package api

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
)

// serve runs one call: login check, setup, verb check, binding, invocation,
// result processing and serialization. Client errors become responses;
// anything else is returned in debug mode and becomes a 500 otherwise.
func serve[H any](e *Endpoint, res *resolved[H], h *H, req *Request) (*Response, error) {
	if e.desc.LoginRequired && !e.settings.Authenticator.IsAuthenticated(req) {
		return e.frameworkError(http.StatusUnauthorized)
	}

	call := &Call{Request: req}
	if hook, ok := any(h).(SetupHook); ok {
		if err := protect(func() error { return hook.Setup(call) }); err != nil {
			return e.fail(req, err)
		}
	}

	sig, ok := res.sigs[req.Verb]
	if !ok {
		return e.frameworkError(http.StatusMethodNotAllowed)
	}

	args, err := sig.Bind(req, e.settings.Debug)
	if err != nil {
		return e.fail(req, err)
	}
	call.Args = args

	var value any
	err = protect(func() error {
		var invokeErr error
		value, invokeErr = res.funcs[req.Verb](h, call)
		return invokeErr
	})
	if err != nil {
		return e.fail(req, err)
	}

	result, err := processResult(e.desc.Name, req.Verb, value, sig.Response)
	if err != nil {
		return e.fail(req, err)
	}

	if result == nil && req.Verb.bodyless() {
		return &Response{Status: http.StatusOK, Header: http.Header{}}, nil
	}
	resp, err := JSON(http.StatusOK, result)
	if err != nil {
		return e.fail(req, err)
	}
	return resp, nil
}

// protect runs fn and turns a panic into a *PanicError.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// fail maps an error raised during a call to a response.
func (e *Endpoint) fail(req *Request, err error) (*Response, error) {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return ErrorResponse(httpErr)
	}

	if e.settings.Debug {
		return nil, err
	}

	e.log.Error().
		Err(err).
		Str("verb", string(req.Verb)).
		Str("path", req.Path).
		Msg("Unhandled error while serving request")
	return e.frameworkError(http.StatusInternalServerError)
}

// frameworkError answers with {"error": text} using the configured text.
func (e *Endpoint) frameworkError(status int) (*Response, error) {
	resp, err := JSON(status, map[string]any{"error": e.settings.ErrorText(status)})
	if err != nil {
		return nil, err
	}
	if status == http.StatusMethodNotAllowed {
		methods := make([]string, len(e.desc.Verbs))
		for i, v := range e.desc.Verbs {
			methods[i] = v.Method()
		}
		resp.SetHeader("Allow", strings.Join(methods, ", "))
	}
	return resp, nil
}

// ErrorResponse renders err as {"error": payload, "status": code}.
func ErrorResponse(err HTTPError) (*Response, error) {
	return JSON(err.HTTPStatus(), map[string]any{
		"error":  err.Payload(),
		"status": err.HTTPStatus(),
	})
}
