package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

// Audit journals every mutating request with its outcome.
func Audit(rec ports.AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return next(c)
			}

			err := next(c)

			entry := domain.AuditEntry{
				Action:    req.Method + " " + c.Path(),
				Method:    req.Method,
				Path:      req.URL.Path,
				Status:    c.Response().Status,
				RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
			}
			if s := SessionFrom(c); s != nil {
				entry.SessionID = s.ID
				entry.Username = s.User.Username
			}
			if err != nil {
				entry.Status, entry.ErrorKind, entry.Message = outcome(err)
			}
			rec.Record(entry)
			return err
		}
	}
}

func outcome(err error) (int, domain.ErrorKind, string) {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.HTTPStatus(), de.Kind, de.Message
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, domain.KindUnknown, http.StatusText(he.Code)
	}
	return http.StatusInternalServerError, domain.KindUnknown, "internal server error"
}
