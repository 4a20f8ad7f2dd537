package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
	"github.com/printproxy/console/internal/upstream"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     int
		kind     domain.ErrorKind
		redirect string
	}{
		{"validation", domain.ValidationError("name is required", map[string][]string{"name": {"name is required"}}), http.StatusUnprocessableEntity, domain.KindValidation, ""},
		{"authentication", domain.AuthenticationError(), http.StatusUnauthorized, domain.KindAuthentication, "/login"},
		{"authorization", domain.Classify(http.StatusForbidden, ""), http.StatusForbidden, domain.KindAuthorization, ""},
		{"upstream unavailable", domain.Classify(http.StatusServiceUnavailable, ""), http.StatusServiceUnavailable, domain.KindServer, ""},
		{"wrapped sentinel", errors.Join(errors.New("store"), domain.ErrUnauthenticated), http.StatusUnauthorized, domain.KindAuthentication, "/login"},
		{"echo error", echo.ErrNotFound, http.StatusNotFound, "", ""},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "", ""},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/printers", nil), rec)

			h(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Kind != tc.kind || body.Redirect != tc.redirect || body.Error == "" {
				t.Fatalf("unexpected body: %+v", body)
			}
			if tc.code == http.StatusInternalServerError && body.Error != "internal server error" {
				t.Fatalf("unexpected errors must not leak: %q", body.Error)
			}
		})
	}
}

func TestHTTPErrorHandler_ValidationFields(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/jobs", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ValidationError("bad", map[string][]string{"copies": {"copies must be at most 999"}}), c)

	var body errorResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Fields["copies"]) != 1 {
		t.Fatalf("expected field errors, got %+v", body.Fields)
	}
}

func TestHTTPErrorHandler_Head(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodHead, "/api/printers", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(domain.AuthenticationError(), c)

	if rec.Code != http.StatusUnauthorized || rec.Body.Len() != 0 {
		t.Fatalf("HEAD must get a bare status, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHTTPErrorHandler_RejectedLogin(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Incorrect username or password"}`))
	}))
	defer backend.Close()

	client := upstream.New(backend.URL, time.Second)
	_, err := upstream.NewAuthAPI(client).Login(context.Background(), ports.LoginCredentials{Username: "alice", Password: "wrong"})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), rec)
	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body errorResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "Incorrect username or password" || body.Kind != domain.KindAuthentication || body.Redirect != "" {
		t.Fatalf("a wrong password must not read as an expired session: %+v", body)
	}
}
