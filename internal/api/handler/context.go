package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/api/middleware"
	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/service"
)

// WorkspaceSource hands out the workspace of a session.
type WorkspaceSource interface {
	Get(s *domain.Session) *service.Workspace
}

// ctxSession returns the authenticated session loaded by the Session
// middleware. Guards normally reject anonymous requests first; this is the
// fast-fail for routes mounted without them.
func ctxSession(c echo.Context) (*domain.Session, error) {
	s := middleware.SessionFrom(c)
	if !s.Authenticated() {
		return nil, domain.AuthenticationError()
	}
	return s, nil
}

func ctxWorkspace(c echo.Context, src WorkspaceSource) (*service.Workspace, error) {
	s, err := ctxSession(c)
	if err != nil {
		return nil, err
	}
	return src.Get(s), nil
}

// pathID parses a numeric route parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError(name+" must be a positive integer", map[string][]string{name: {"must be a positive integer"}})
	}
	return id, nil
}

// bindValid binds and validates req in one step.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.ValidationError("invalid payload", nil)
	}
	return c.Validate(req)
}

func sendBlob(c echo.Context, b *domain.Blob, disposition string) error {
	ct := b.ContentType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	if b.FileName != "" {
		c.Response().Header().Set(echo.HeaderContentDisposition, disposition+`; filename="`+b.FileName+`"`)
	}
	return c.Blob(200, ct, b.Data)
}
