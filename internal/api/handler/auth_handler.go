package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/api/middleware"
	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

// CookieConfig controls the session cookie the console hands out.
type CookieConfig struct {
	Secure      bool
	RememberTTL time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	workspaces  WorkspaceSource
	cookies     CookieConfig
}

func NewAuthHandler(authService ports.AuthService, workspaces WorkspaceSource, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, workspaces: workspaces, cookies: cookies}
}

// Login authenticates against the backend and starts a console session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body      body      loginRequest  true   "Login credentials"
// @Param        redirect  query     string        false  "Where to go after login"
// @Success      200       {object}  sessionResponse
// @Failure      401       {object}  errorResponse
// @Failure      422       {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	s, cookie, err := h.authService.Login(c.Request().Context(), ports.LoginCredentials{
		Username: req.Username,
		Password: req.Password,
		Remember: req.Remember,
	})
	if err != nil {
		return err
	}

	h.setCookie(c, cookie, s.Remember)
	middleware.SetSession(c, s)

	resp := newSessionResponse(s)
	resp.Redirect = middleware.SafeRedirect(c.QueryParam("redirect"))
	return c.JSON(http.StatusOK, resp)
}

// Logout ends the current session. It never fails for an anonymous caller.
// The cookie is cleared even when the stores fail to forget the session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.clearCookie(c)
	if s := middleware.SessionFrom(c); s != nil {
		if err := h.authService.Logout(c.Request().Context(), s.ID); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"redirect": middleware.LoginPath})
}

// Refresh renews the backend token and re-issues the cookie.
//
// @Summary      Refresh the session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}

	next, err := h.authService.Refresh(c.Request().Context(), s)
	if err != nil {
		return err
	}
	cookie, err := h.authService.IssueCookie(next)
	if err != nil {
		return err
	}

	h.setCookie(c, cookie, next.Remember)
	middleware.SetSession(c, next)
	if h.workspaces != nil {
		h.workspaces.Get(next)
	}
	return c.JSON(http.StatusOK, newSessionResponse(next))
}

// Me reloads the operator profile from the backend.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	user, err := h.authService.CurrentUser(c.Request().Context(), s)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Permissions reports the caller's effective grants. Anonymous callers get
// an empty list rather than an error.
//
// @Summary      Effective permissions
// @Tags         auth
// @Produce      json
// @Success      200  {object}  permissionsResponse
// @Router       /api/auth/permissions [get]
func (h *AuthHandler) Permissions(c echo.Context) error {
	s := middleware.SessionFrom(c)
	perms := s.Permissions()
	if perms == nil {
		perms = []domain.Permission{}
	}
	return c.JSON(http.StatusOK, permissionsResponse{
		Authenticated: s.Authenticated(),
		Role:          s.Role(),
		Permissions:   perms,
	})
}

// Check answers whether the caller holds one permission, with a reason when not.
//
// @Summary      Check a permission
// @Tags         auth
// @Produce      json
// @Param        permission  query     string  true  "Permission, e.g. printer:manage"
// @Success      200         {object}  domain.PermissionCheck
// @Failure      422         {object}  errorResponse
// @Router       /api/auth/check [get]
func (h *AuthHandler) Check(c echo.Context) error {
	p := c.QueryParam("permission")
	if p == "" {
		return domain.ValidationError("permission is required", map[string][]string{"permission": {"required"}})
	}
	return c.JSON(http.StatusOK, middleware.SessionFrom(c).CheckPermission(domain.Permission(p)))
}

func (h *AuthHandler) setCookie(c echo.Context, value string, remember bool) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	// Without remember the cookie lives as long as the browser session.
	if remember && h.cookies.RememberTTL > 0 {
		cookie.MaxAge = int(h.cookies.RememberTTL.Seconds())
	}
	c.SetCookie(cookie)
}

func (h *AuthHandler) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func newSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		User:        s.User,
		Role:        s.Role(),
		Permissions: s.Permissions(),
		Remember:    s.Remember,
	}
}
