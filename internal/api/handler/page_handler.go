package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/api/middleware"
	"github.com/printproxy/console/internal/core/domain"
)

// AppName is appended to every page title.
const AppName = "Print Proxy Console"

// Page is one entry of the console's route table.
type Page struct {
	Path         string            `json:"path"`
	Name         string            `json:"name"`
	Title        string            `json:"title"`
	Icon         string            `json:"icon,omitempty"`
	RequiresAuth bool              `json:"requires_auth"`
	Permission   domain.Permission `json:"permission,omitempty"`
	HideInMenu   bool              `json:"-"`
}

// DocumentTitle is the browser title for the page.
func (p Page) DocumentTitle() string {
	if p.Title == "" {
		return AppName
	}
	return p.Title + " - " + AppName
}

// Visible reports whether s may see the page in navigation.
func (p Page) Visible(s *domain.Session) bool {
	if p.HideInMenu {
		return false
	}
	if p.RequiresAuth && !s.Authenticated() {
		return false
	}
	return p.Permission == "" || s.HasPermission(p.Permission)
}

type pageResponse struct {
	Page
	DocumentTitle string       `json:"document_title"`
	User          *domain.User `json:"user,omitempty"`
	Menu          []Page       `json:"menu"`
}

// PageHandler answers page routes with a JSON view model and serves the menu.
type PageHandler struct {
	pages []Page
}

func NewPageHandler(pages []Page) *PageHandler {
	return &PageHandler{pages: pages}
}

// Show returns a handler for one page of the table.
func (h *PageHandler) Show(p Page) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, h.view(c, p))
	}
}

// NotFound renders the not-found page for unknown browser paths. Unknown API
// paths keep echo's plain 404.
func (h *PageHandler) NotFound(p Page) echo.HandlerFunc {
	return func(c echo.Context) error {
		if strings.HasPrefix(c.Request().URL.Path, "/api/") {
			return echo.ErrNotFound
		}
		return c.JSON(http.StatusNotFound, h.view(c, p))
	}
}

// Menu lists the pages the caller may navigate to.
//
// @Summary      Navigation menu
// @Tags         console
// @Produce      json
// @Success      200  {array}  Page
// @Router       /api/menu [get]
func (h *PageHandler) Menu(c echo.Context) error {
	return c.JSON(http.StatusOK, h.menu(middleware.SessionFrom(c)))
}

func (h *PageHandler) view(c echo.Context, p Page) pageResponse {
	s := middleware.SessionFrom(c)
	resp := pageResponse{Page: p, DocumentTitle: p.DocumentTitle(), Menu: h.menu(s)}
	if s.Authenticated() {
		u := s.User
		resp.User = &u
	}
	return resp
}

func (h *PageHandler) menu(s *domain.Session) []Page {
	out := make([]Page, 0, len(h.pages))
	for _, p := range h.pages {
		if p.Visible(s) {
			out = append(out, p)
		}
	}
	return out
}
