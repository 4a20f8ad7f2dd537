package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/core/domain"
)

// RequirePermission lets the request through when the session holds any of
// perms. Unauthenticated sessions get 401, authenticated ones lacking every
// permission get 403.
func RequirePermission(perms ...domain.Permission) echo.MiddlewareFunc {
	return guard(func(s *domain.Session) bool { return s.HasAnyPermission(perms...) })
}

// RequireAllPermissions demands every one of perms. Called with none it only
// requires a login.
func RequireAllPermissions(perms ...domain.Permission) echo.MiddlewareFunc {
	return guard(func(s *domain.Session) bool { return s.HasAllPermissions(perms...) })
}

func guard(allowed func(*domain.Session) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := SessionFrom(c)
			if !s.Authenticated() {
				return domain.AuthenticationError()
			}
			if !allowed(s) {
				return domain.Classify(http.StatusForbidden, "")
			}
			return next(c)
		}
	}
}
