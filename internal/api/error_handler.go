package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/api/middleware"
	"github.com/printproxy/console/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error    string              `json:"error"`
	Kind     domain.ErrorKind    `json:"kind,omitempty"`
	Fields   map[string][]string `json:"fields,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders classified errors with their operator-facing message and kind.
//   - Points 401s back at the login page, except a rejected login.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var de *domain.Error
	if errors.As(err, &de) {
		code := de.HTTPStatus()
		body := errorResponse{Error: de.Message, Kind: de.Kind, Fields: de.Fields}
		if de.Kind == domain.KindAuthentication && !errors.Is(err, domain.ErrInvalidCredentials) {
			body.Redirect = middleware.LoginPath
		}
		if code >= http.StatusInternalServerError {
			log.Warn().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("kind", string(de.Kind)).
				Msg("upstream failure")
		}
		return code, body
	}

	if errors.Is(err, domain.ErrUnauthenticated) {
		return http.StatusUnauthorized, errorResponse{
			Error:    domain.MsgAuthentication,
			Kind:     domain.KindAuthentication,
			Redirect: middleware.LoginPath,
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
