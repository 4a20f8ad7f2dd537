package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/core/domain"
)

const (
	// SessionCookie carries the signed session id.
	SessionCookie = "console_session"
	sessionKey    = "session"
)

// SessionResolver turns a signed cookie value into a stored session.
type SessionResolver interface {
	Resolve(ctx context.Context, cookie string) (*domain.Session, error)
}

// Session loads the operator session from the cookie or, for API clients, a
// Bearer header carrying the same signed value. A missing or stale session is
// not an error here; guards decide what needs one.
func Session(resolver SessionResolver, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := sessionToken(c)
			if token == "" {
				return next(c)
			}

			req := c.Request()
			s, err := resolver.Resolve(req.Context(), token)
			switch {
			case err == nil:
				SetSession(c, s)
			case !errors.Is(err, domain.ErrUnauthenticated):
				log.Warn().Err(err).Str("path", req.URL.Path).Msg("session lookup failed")
			}
			return next(c)
		}
	}
}

// SetSession attaches s to both the echo context and the request context, so
// upstream calls made with c.Request().Context() authenticate as s.
func SetSession(c echo.Context, s *domain.Session) {
	c.Set(sessionKey, s)
	req := c.Request()
	c.SetRequest(req.WithContext(domain.WithSession(req.Context(), s)))
}

// SessionFrom returns the session loaded by Session, or nil.
func SessionFrom(c echo.Context) *domain.Session {
	s, _ := c.Get(sessionKey).(*domain.Session)
	return s
}

func sessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
