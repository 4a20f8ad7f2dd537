package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/service"
)

const dashboardRecent = 5

type printerSummary struct {
	Total    int                          `json:"total"`
	Online   int                          `json:"online"`
	ByStatus map[domain.PrinterStatus]int `json:"by_status"`
	Default  *domain.Printer              `json:"default,omitempty"`
}

type jobSummary struct {
	Total     int               `json:"total"`
	Active    int               `json:"active"`
	Completed int               `json:"completed"`
	Failed    int               `json:"failed"`
	Recent    []domain.PrintJob `json:"recent"`
}

type logSummary struct {
	Stats  *domain.LogStats    `json:"stats,omitempty"`
	Health domain.SystemHealth `json:"health"`
	Recent []domain.LogEntry   `json:"recent"`
}

type dashboardResponse struct {
	Printers *printerSummary   `json:"printers,omitempty"`
	Jobs     *jobSummary       `json:"jobs,omitempty"`
	Logs     *logSummary       `json:"logs,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// DashboardHandler aggregates the three stores into one overview.
type DashboardHandler struct {
	workspaces WorkspaceSource
}

func NewDashboardHandler(workspaces WorkspaceSource) *DashboardHandler {
	return &DashboardHandler{workspaces: workspaces}
}

// Summary loads printers, the first page of jobs and log statistics in
// parallel. Sections the operator may not view are omitted; a failing
// section is reported under errors without failing the others.
//
// @Summary      Dashboard overview
// @Tags         console
// @Produce      json
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/dashboard [get]
func (h *DashboardHandler) Summary(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	ws := h.workspaces.Get(s)
	ctx := c.Request().Context()

	var (
		resp dashboardResponse
		mu   sync.Mutex
		wg   sync.WaitGroup
	)
	section := func(name string, perm domain.Permission, load func(context.Context, *service.Workspace) error) {
		if !s.HasPermission(perm) {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := load(ctx, ws); err != nil {
				mu.Lock()
				if resp.Errors == nil {
					resp.Errors = make(map[string]string)
				}
				resp.Errors[name] = errorText(err)
				mu.Unlock()
			}
		}()
	}

	section("printers", domain.PermPrinterView, func(ctx context.Context, ws *service.Workspace) error {
		printers, err := ws.Printers.Fetch(ctx, domain.PrinterQuery{})
		if err != nil {
			return err
		}
		sum := &printerSummary{Total: len(printers), ByStatus: make(map[domain.PrinterStatus]int), Default: ws.Printers.Default()}
		for _, p := range printers {
			sum.ByStatus[p.Status]++
		}
		sum.Online = sum.ByStatus[domain.PrinterOnline]
		mu.Lock()
		resp.Printers = sum
		mu.Unlock()
		return nil
	})
	section("jobs", domain.PermJobView, func(ctx context.Context, ws *service.Workspace) error {
		jobs, err := ws.Jobs.Fetch(ctx, domain.JobQuery{Page: 1, PageSize: 20})
		if err != nil {
			return err
		}
		sum := &jobSummary{
			Total:     len(jobs),
			Active:    len(ws.Jobs.Active()),
			Completed: len(ws.Jobs.Completed()),
			Failed:    len(ws.Jobs.Failed()),
			Recent:    head(jobs, dashboardRecent),
		}
		if p := ws.Jobs.Snapshot().Pagination; p != nil {
			sum.Total = p.Total
		}
		mu.Lock()
		resp.Jobs = sum
		mu.Unlock()
		return nil
	})
	section("logs", domain.PermLogView, func(ctx context.Context, ws *service.Workspace) error {
		stats, err := ws.Logs.Stats(ctx, domain.LogQuery{})
		if err != nil {
			return err
		}
		sum := &logSummary{Stats: stats, Health: stats.SystemHealth, Recent: head(ws.Logs.Recent(), dashboardRecent)}
		if sum.Health == "" {
			sum.Health = ws.Logs.SystemHealth()
		}
		mu.Lock()
		resp.Logs = sum
		mu.Unlock()
		return nil
	})

	wg.Wait()
	return c.JSON(http.StatusOK, resp)
}

func head[T any](in []T, n int) []T {
	if len(in) > n {
		in = in[:n]
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func errorText(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
