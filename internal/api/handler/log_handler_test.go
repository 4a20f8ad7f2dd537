package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/core/domain"
)

func TestLogHandler_ListSearch(t *testing.T) {
	var got domain.LogQuery
	apis := apisForTest()
	apis.Logs = &stubLogAPI{
		listFn: func(ctx context.Context, q domain.LogQuery) (*domain.Page[domain.LogEntry], error) {
			got = q
			return &domain.Page[domain.LogEntry]{Items: []domain.LogEntry{{ID: "a", Level: domain.LevelError, Message: "jam"}}}, nil
		},
	}
	h := NewLogHandler(newWorkspaces(t, apis))

	c, rec := newContext(http.MethodGet, "/api/logs?search=jam&level=error&printer_id=4", nil, testSession("user"))
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.Search != "jam" || got.Level != "error" || got.PrinterID != "4" {
		t.Fatalf("filters must travel with the search term: %+v", got)
	}

	var resp listResponse[domain.LogEntry]
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Items) != 1 || resp.Items[0].Message != "jam" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
}

func TestLogHandler_ListRejectsUnknownLevel(t *testing.T) {
	h := NewLogHandler(newWorkspaces(t, apisForTest()))
	c, _ := newContext(http.MethodGet, "/api/logs?level=loud", nil, testSession("user"))

	if err := h.List(c); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogHandler_Export(t *testing.T) {
	var gotFormat string
	apis := apisForTest()
	apis.Logs = &stubLogAPI{
		exportFn: func(ctx context.Context, q domain.LogQuery, format string) (*domain.Blob, error) {
			gotFormat = format
			return &domain.Blob{ContentType: "text/csv", FileName: "logs_2026-10-19.csv", Data: []byte("id,message\n")}, nil
		},
	}
	h := NewLogHandler(newWorkspaces(t, apis))

	c, rec := newContext(http.MethodGet, "/api/logs/export?level=error", nil, testSession("admin"))
	if err := h.Export(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotFormat != "csv" {
		t.Fatalf("export defaults to csv, got %q", gotFormat)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename="logs_2026-10-19.csv"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if rec.Body.String() != "id,message\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestLogHandler_ExportRejectsFormat(t *testing.T) {
	h := NewLogHandler(newWorkspaces(t, apisForTest()))
	c, _ := newContext(http.MethodGet, "/api/logs/export?format=xml", nil, testSession("admin"))

	if err := h.Export(c); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogHandler_Health(t *testing.T) {
	ws := newWorkspaces(t, apisForTest())
	h := NewLogHandler(ws)
	sess := testSession("user")

	now := time.Now()
	w := ws.Get(sess)
	for i := 0; i < 3; i++ {
		w.Logs.Add(domain.LogEntry{ID: string(rune('a' + i)), Level: domain.LevelError, Timestamp: now})
	}
	w.Logs.Add(domain.LogEntry{ID: "w", Level: domain.LevelWarning, Timestamp: now})

	c, rec := newContext(http.MethodGet, "/api/logs/health", nil, sess)
	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp logHealthResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Health != domain.HealthWarning || resp.Errors != 3 || resp.Warnings != 1 || resp.RealTime {
		t.Fatalf("unexpected health: %+v", resp)
	}
}
