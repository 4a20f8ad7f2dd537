package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/core/domain"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// RequireAuth rejects requests without an authenticated session. API calls
// get a 401; page requests are redirected to the login page with the
// original location in ?redirect=.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if SessionFrom(c).Authenticated() {
				return next(c)
			}
			if isAPI(c) {
				return domain.AuthenticationError()
			}
			return c.Redirect(http.StatusFound, LoginRedirect(c.Request().URL.RequestURI()))
		}
	}
}

// GuestOnly sends an already logged-in operator away from the login page.
func GuestOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if SessionFrom(c).Authenticated() {
				return c.Redirect(http.StatusFound, DashboardPath)
			}
			return next(c)
		}
	}
}

// LoginRedirect builds /login?redirect=<target>.
func LoginRedirect(target string) string {
	return LoginPath + "?" + url.Values{"redirect": {target}}.Encode()
}

// SafeRedirect accepts only local absolute paths, falling back to the
// dashboard.
func SafeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return DashboardPath
	}
	if target == LoginPath || strings.HasPrefix(target, LoginPath+"?") {
		return DashboardPath
	}
	return target
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}
