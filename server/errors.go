package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/config"
	"github.com/gaborage/go-arcstack/logger"
)

// customErrorHandler renders errors that reach Echo. Transport errors keep
// their status; errors returned by the chain in debug mode are shown with
// their message, and any other error becomes the configured 500 text.
func customErrorHandler(err error, c echo.Context, cfg *config.Config, log logger.Logger) {
	if c.Response().Committed {
		return
	}

	var httpErr api.HTTPError
	if errors.As(err, &httpErr) {
		resp, renderErr := api.ErrorResponse(httpErr)
		if renderErr == nil {
			_ = writeResponse(c, resp)
			return
		}
		err = renderErr
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		}
		_ = c.JSON(he.Code, map[string]any{"error": msg})
		return
	}

	log.Error().
		Err(err).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("Unhandled error")

	body := map[string]any{"error": errorText(cfg, http.StatusInternalServerError)}
	if cfg.App.Debug {
		body["error"] = err.Error()
		var panicErr *api.PanicError
		if errors.As(err, &panicErr) {
			body["stack"] = string(panicErr.Stack)
		}
	}
	_ = c.JSON(http.StatusInternalServerError, body)
}

func errorText(cfg *config.Config, status int) string {
	if text := cfg.API.ErrorResponseTexts[status]; text != "" {
		return text
	}
	return http.StatusText(status)
}
