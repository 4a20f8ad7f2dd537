package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/printproxy/console/internal/core/domain"
)

var testPages = []Page{
	{Path: "/login", Name: "login", Title: "Login", HideInMenu: true},
	{Path: "/", Name: "home", Title: "Home"},
	{Path: "/dashboard", Name: "dashboard", Title: "Dashboard", RequiresAuth: true},
	{Path: "/printers", Name: "printers", Title: "Printers", RequiresAuth: true, Permission: domain.PermPrinterView},
	{Path: "/admin", Name: "admin", Title: "Admin", RequiresAuth: true, Permission: domain.PermSystemManage},
	{Path: "/*", Name: "not-found", Title: "Page Not Found", HideInMenu: true},
}

func menuNames(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Name
	}
	return out
}

func TestPage_DocumentTitle(t *testing.T) {
	if got := (Page{Title: "Printers"}).DocumentTitle(); got != "Printers - Print Proxy Console" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := (Page{}).DocumentTitle(); got != AppName {
		t.Fatalf("untitled pages use the app name, got %q", got)
	}
}

func TestPageHandler_Menu(t *testing.T) {
	tests := []struct {
		name    string
		session *domain.Session
		want    []string
	}{
		{"anonymous", nil, []string{"home"}},
		{"user", testSession("user"), []string{"home", "dashboard", "printers"}},
		{"admin", testSession("admin"), []string{"home", "dashboard", "printers", "admin"}},
	}

	h := NewPageHandler(testPages)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/api/menu", nil, tc.session)
			if err := h.Menu(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			var pages []Page
			json.Unmarshal(rec.Body.Bytes(), &pages)
			got := menuNames(pages)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestPageHandler_Show(t *testing.T) {
	h := NewPageHandler(testPages)
	c, rec := newContext(http.MethodGet, "/printers", nil, testSession("user"))

	if err := h.Show(testPages[3])(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp struct {
		Name          string       `json:"name"`
		DocumentTitle string       `json:"document_title"`
		User          *domain.User `json:"user"`
		Menu          []Page       `json:"menu"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Name != "printers" || resp.DocumentTitle != "Printers - Print Proxy Console" {
		t.Fatalf("unexpected page: %+v", resp)
	}
	if resp.User == nil || resp.User.Username != "alice" || len(resp.Menu) != 3 {
		t.Fatalf("expected user and menu: %+v", resp)
	}
}

func TestPageHandler_NotFound(t *testing.T) {
	h := NewPageHandler(testPages)
	notFound := h.NotFound(testPages[5])

	c, rec := newContext(http.MethodGet, "/nowhere", nil, nil)
	if err := notFound(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 page, got %d", rec.Code)
	}

	c, _ = newContext(http.MethodGet, "/api/nowhere", nil, nil)
	if err := notFound(c); err == nil {
		t.Fatalf("unknown API paths must return an error")
	}
}
