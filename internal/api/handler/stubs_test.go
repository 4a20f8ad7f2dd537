package handler

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/api/middleware"
	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
	"github.com/printproxy/console/internal/core/service"
	"github.com/printproxy/console/internal/retry"
)

type stubPrinterAPI struct {
	ports.PrinterAPI
	listFn   func(ctx context.Context, q domain.PrinterQuery) (*domain.Page[domain.Printer], error)
	createFn func(ctx context.Context, in domain.PrinterInput) (*domain.Printer, error)
}

func (s *stubPrinterAPI) List(ctx context.Context, q domain.PrinterQuery) (*domain.Page[domain.Printer], error) {
	return s.listFn(ctx, q)
}

func (s *stubPrinterAPI) Create(ctx context.Context, in domain.PrinterInput) (*domain.Printer, error) {
	return s.createFn(ctx, in)
}

type stubJobAPI struct {
	ports.JobAPI
	listFn    func(ctx context.Context, q domain.JobQuery) (*domain.Page[domain.PrintJob], error)
	submitFn  func(ctx context.Context, sub domain.JobSubmission) (*domain.PrintJob, error)
	batchFn   func(ctx context.Context, ids []int64) error
	previewFn func(ctx context.Context, id int64) (*domain.Blob, error)
}

func (s *stubJobAPI) List(ctx context.Context, q domain.JobQuery) (*domain.Page[domain.PrintJob], error) {
	return s.listFn(ctx, q)
}

func (s *stubJobAPI) Submit(ctx context.Context, sub domain.JobSubmission) (*domain.PrintJob, error) {
	return s.submitFn(ctx, sub)
}

func (s *stubJobAPI) BatchCancel(ctx context.Context, ids []int64) error { return s.batchFn(ctx, ids) }

func (s *stubJobAPI) Preview(ctx context.Context, id int64) (*domain.Blob, error) {
	return s.previewFn(ctx, id)
}

type stubLogAPI struct {
	ports.LogAPI
	listFn   func(ctx context.Context, q domain.LogQuery) (*domain.Page[domain.LogEntry], error)
	statsFn  func(ctx context.Context, q domain.LogQuery) (*domain.LogStats, error)
	exportFn func(ctx context.Context, q domain.LogQuery, format string) (*domain.Blob, error)
}

func (s *stubLogAPI) List(ctx context.Context, q domain.LogQuery) (*domain.Page[domain.LogEntry], error) {
	return s.listFn(ctx, q)
}

func (s *stubLogAPI) Stats(ctx context.Context, q domain.LogQuery) (*domain.LogStats, error) {
	return s.statsFn(ctx, q)
}

func (s *stubLogAPI) Export(ctx context.Context, q domain.LogQuery, format string) (*domain.Blob, error) {
	return s.exportFn(ctx, q, format)
}

type stubAuthService struct {
	ports.AuthService
	loginFn   func(ctx context.Context, creds ports.LoginCredentials) (*domain.Session, string, error)
	logoutFn  func(ctx context.Context, sessionID string) error
	refreshFn func(ctx context.Context, s *domain.Session) (*domain.Session, error)
}

func (s *stubAuthService) Login(ctx context.Context, creds ports.LoginCredentials) (*domain.Session, string, error) {
	return s.loginFn(ctx, creds)
}

func (s *stubAuthService) Logout(ctx context.Context, sessionID string) error {
	return s.logoutFn(ctx, sessionID)
}

func (s *stubAuthService) Refresh(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	return s.refreshFn(ctx, sess)
}

func (s *stubAuthService) IssueCookie(sess *domain.Session) (string, error) {
	return "cookie-" + sess.Token, nil
}

func newWorkspaces(t *testing.T, apis service.APIs) *service.Workspaces {
	t.Helper()
	reader := service.NewReader(retry.Options{
		MaxAttempts: 1,
		Jitter:      -1,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}, zerolog.Nop())
	ws := service.NewWorkspaces(apis, reader, service.LogStoreConfig{}, zerolog.Nop())
	t.Cleanup(ws.Close)
	return ws
}

func testSession(role string) *domain.Session {
	return &domain.Session{ID: "sess-" + role, Token: "tok-" + role, User: domain.User{ID: 1, Username: "alice", Role: role}}
}

// newContext builds an echo context with the validator installed and, when s
// is non-nil, the session attached the way the Session middleware does.
func newContext(method, target string, body io.Reader, s *domain.Session) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if s != nil {
		middleware.SetSession(c, s)
	}
	return c, rec
}

func jsonBody(s string) io.Reader { return strings.NewReader(s) }

func errorsAs(err error, target **domain.Error) bool {
	return errors.As(err, target)
}

func apisForTest() service.APIs {
	return service.APIs{Printers: &stubPrinterAPI{}, Jobs: &stubJobAPI{}, Logs: &stubLogAPI{}}
}
