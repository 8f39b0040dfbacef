package middleware

import (
	"errors"

	"github.com/gaborage/go-arcstack/api"
)

type common struct{}

// Common renders API errors escaping the endpoint as
// {"error": payload, "status": code}, sets a default content type and drops
// bodies of bodyless verbs.
func Common(_ Handler, _ Env) Outcome {
	return Use(common{})
}

func (common) TransformException(_ *api.Request, err error) (*api.Response, error) {
	var httpErr api.HTTPError
	if !errors.As(err, &httpErr) {
		return nil, nil
	}
	return api.ErrorResponse(httpErr)
}

func (common) TransformResponse(req *api.Request, resp *api.Response) (*api.Response, error) {
	if len(resp.Body) > 0 && resp.ContentType() == "" {
		resp.SetHeader("Content-Type", api.MIMEApplicationJSON)
	}
	if req.Verb == api.HEAD {
		resp.Body = nil
	}
	return resp, nil
}
