package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/api/handler"
	"github.com/printproxy/console/internal/api/middleware"
	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
	"github.com/printproxy/console/internal/core/service"
	"github.com/printproxy/console/internal/retry"
)

// cookieAuth resolves "<role>-cookie" to a session of that role.
type cookieAuth struct {
	ports.AuthService
}

func (cookieAuth) Resolve(ctx context.Context, cookie string) (*domain.Session, error) {
	role, ok := strings.CutSuffix(cookie, "-cookie")
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return &domain.Session{ID: "sess-" + role, Token: "tok-" + role, User: domain.User{ID: 1, Username: "alice", Role: role}}, nil
}

// The prometheus middleware registers its collectors globally, so the router
// is built once per test binary.
var testRouter = sync.OnceValue(func() *echo.Echo {
	reader := service.NewReader(retry.Options{MaxAttempts: 1}, zerolog.Nop())
	workspaces := service.NewWorkspaces(service.APIs{}, reader, service.LogStoreConfig{}, zerolog.Nop())
	return NewRouter(Deps{
		Log:        zerolog.Nop(),
		Auth:       cookieAuth{},
		Workspaces: workspaces,
		Cookies:    handler.CookieConfig{},
	})
})

func serve(method, target, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if role != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: role + "-cookie"})
	}
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)
	return rec
}

func TestRouter_Probes(t *testing.T) {
	if rec := serve(http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
	rec := serve(http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"disabled"`) {
		t.Fatalf("readiness with no stores: %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "console_requests_total") {
		t.Fatalf("metrics: %d", rec.Code)
	}
}

func TestRouter_PageGuards(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		role     string
		code     int
		location string
	}{
		{"anonymous to guarded page", "/printers?status=online", "", http.StatusFound, "/login?redirect=%2Fprinters%3Fstatus%3Donline"},
		{"anonymous home", "/", "", http.StatusOK, ""},
		{"anonymous login", "/login", "", http.StatusOK, ""},
		{"signed in visits login", "/login", "user", http.StatusFound, "/dashboard"},
		{"user sees printers", "/printers", "user", http.StatusOK, ""},
		{"unknown page", "/nowhere", "user", http.StatusNotFound, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(http.MethodGet, tc.target, tc.role)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			if tc.location != "" && rec.Header().Get(echo.HeaderLocation) != tc.location {
				t.Fatalf("expected location %q, got %q", tc.location, rec.Header().Get(echo.HeaderLocation))
			}
		})
	}
}

func TestRouter_PageTitle(t *testing.T) {
	rec := serve(http.MethodGet, "/jobs", "guest")
	var body struct {
		Name          string `json:"name"`
		DocumentTitle string `json:"document_title"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Name != PageJobs || body.DocumentTitle != "Print Jobs - Print Proxy Console" {
		t.Fatalf("unexpected page: %+v", body)
	}

	rec = serve(http.MethodGet, "/nowhere", "")
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Name != PageNotFound {
		t.Fatalf("expected not-found page, got %+v", body)
	}
}

func TestRouter_APIGuards(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		role   string
		code   int
		kind   domain.ErrorKind
	}{
		{"anonymous api", http.MethodGet, "/api/printers", "", http.StatusUnauthorized, domain.KindAuthentication},
		{"user cannot manage printers", http.MethodPost, "/api/printers", "user", http.StatusForbidden, domain.KindAuthorization},
		{"guest cannot submit jobs", http.MethodPost, "/api/jobs", "guest", http.StatusForbidden, domain.KindAuthorization},
		{"user cannot clear logs", http.MethodPost, "/api/logs/clear", "user", http.StatusForbidden, domain.KindAuthorization},
		{"unknown api path", http.MethodGet, "/api/nowhere", "admin", http.StatusNotFound, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(tc.method, tc.target, tc.role)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			var body errorResponse
			json.Unmarshal(rec.Body.Bytes(), &body)
			if body.Kind != tc.kind {
				t.Fatalf("expected kind %q, got %+v", tc.kind, body)
			}
		})
	}
}

func TestRouter_PublicAuthEndpoints(t *testing.T) {
	rec := serve(http.MethodGet, "/api/auth/permissions", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"authenticated":false`) {
		t.Fatalf("anonymous permissions: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(http.MethodGet, "/api/menu", "admin")
	var menu []handler.Page
	json.Unmarshal(rec.Body.Bytes(), &menu)
	if len(menu) != 6 {
		t.Fatalf("admin menu should list every visible page, got %d", len(menu))
	}
}
