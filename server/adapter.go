package server

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/middleware"
)

// Handler adapts ep to Echo. Each call gets a fresh api.Request; an error
// returned by the stack (debug mode only) is left to the Echo error handler.
func Handler(stack *middleware.Stack, ep *api.Endpoint) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := NewRequest(c)
		if err != nil {
			return err
		}

		resp, err := stack.Serve(ep, req)
		if err != nil {
			return err
		}
		return writeResponse(c, resp)
	}
}

// NewRequest converts the Echo request into an api.Request. A value stored
// under UserContextKey marks the request as authenticated.
func NewRequest(c echo.Context) (*api.Request, error) {
	httpReq := c.Request()

	ctx := httpReq.Context()
	if user := c.Get(UserContextKey); user != nil {
		ctx = api.WithIdentity(ctx, user)
	}

	req := api.NewRequest(ctx, httpReq.Method, httpReq.URL.Path)
	for i, name := range c.ParamNames() {
		if i < len(c.ParamValues()) {
			req.PathParams[name] = c.ParamValues()[i]
		}
	}
	req.Query = c.QueryParams()
	req.Header = httpReq.Header.Clone()
	req.RemoteIP = c.RealIP()

	if httpReq.Body != nil {
		body, err := io.ReadAll(httpReq.Body)
		if err != nil {
			return nil, err
		}
		req.Body = body
	}
	return req, nil
}

func writeResponse(c echo.Context, resp *api.Response) error {
	header := c.Response().Header()
	for key, values := range resp.Header {
		header.Del(key)
		for _, v := range values {
			header.Add(key, v)
		}
	}

	if len(resp.Body) == 0 || c.Request().Method == http.MethodHead {
		return c.NoContent(resp.Status)
	}
	contentType := resp.ContentType()
	if contentType == "" {
		contentType = api.MIMEApplicationJSON
	}
	return c.Blob(resp.Status, contentType, resp.Body)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
