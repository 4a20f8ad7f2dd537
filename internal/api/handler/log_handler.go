package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/core/domain"
)

// LogHandler exposes the session's log store.
type LogHandler struct {
	workspaces WorkspaceSource
}

func NewLogHandler(workspaces WorkspaceSource) *LogHandler {
	return &LogHandler{workspaces: workspaces}
}

// List fetches a page of backend logs. A search parameter is sent as a full
// text search alongside the other filters.
//
// @Summary      List logs
// @Tags         logs
// @Produce      json
// @Param        level       query     string  false  "debug, info, warning, error or critical"
// @Param        type        query     string  false  "system, printer, job, auth or api"
// @Param        source      query     string  false  "Source component"
// @Param        search      query     string  false  "Full text search"
// @Param        start_date  query     string  false  "From"
// @Param        end_date    query     string  false  "To"
// @Param        page        query     int     false  "Page number"
// @Param        page_size   query     int     false  "Page size"
// @Success      200         {object}  listResponse[domain.LogEntry]
// @Router       /api/logs [get]
func (h *LogHandler) List(c echo.Context) error {
	var q logListQuery
	if err := bindValid(c, &q); err != nil {
		return err
	}
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	dq := q.toDomain()
	var logs []domain.LogEntry
	if dq.Search != "" {
		logs, err = ws.Logs.Search(c.Request().Context(), dq.Search, dq)
	} else {
		logs, err = ws.Logs.Fetch(c.Request().Context(), dq)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse[domain.LogEntry]{
		Items:      logs,
		Pagination: ws.Logs.Snapshot().Pagination,
	})
}

// Get returns one log entry.
//
// @Summary      Get a log entry
// @Tags         logs
// @Produce      json
// @Param        id   path      string  true  "Log ID"
// @Success      200  {object}  domain.LogEntry
// @Failure      404  {object}  errorResponse
// @Router       /api/logs/{id} [get]
func (h *LogHandler) Get(c echo.Context) error {
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	entry, err := ws.Logs.FetchOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

// Stats returns the backend's aggregate counts.
//
// @Summary      Log statistics
// @Tags         logs
// @Produce      json
// @Success      200  {object}  domain.LogStats
// @Router       /api/logs/stats [get]
func (h *LogHandler) Stats(c echo.Context) error {
	var q logListQuery
	if err := bindValid(c, &q); err != nil {
		return err
	}
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	stats, err := ws.Logs.Stats(c.Request().Context(), q.toDomain())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Health derives the system health from the cached entries.
//
// @Summary      Log derived health
// @Tags         logs
// @Produce      json
// @Success      200  {object}  logHealthResponse
// @Router       /api/logs/health [get]
func (h *LogHandler) Health(c echo.Context) error {
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logHealthResponse{
		Health:   ws.Logs.SystemHealth(),
		Errors:   len(ws.Logs.Errors()),
		Warnings: len(ws.Logs.Warnings()),
		RealTime: ws.Logs.RealTime(),
	})
}

// Export downloads the filtered logs as a file.
//
// @Summary      Export logs
// @Tags         logs
// @Produce      octet-stream
// @Param        format  query   string  false  "csv, json or txt"
// @Success      200     {file}  binary
// @Router       /api/logs/export [get]
func (h *LogHandler) Export(c echo.Context) error {
	var q logListQuery
	if err := bindValid(c, &q); err != nil {
		return err
	}
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	blob, err := ws.Logs.Export(c.Request().Context(), q.toDomain(), q.Format)
	if err != nil {
		return err
	}
	return sendBlob(c, blob, "attachment")
}

// Clear asks the backend to drop matching entries and returns the refetched
// listing.
//
// @Summary      Clear logs
// @Tags         logs
// @Accept       json
// @Produce      json
// @Param        body  body      logClearRequest  false  "Which entries to drop"
// @Success      200   {object}  listResponse[domain.LogEntry]
// @Failure      403   {object}  errorResponse
// @Router       /api/logs/clear [post]
func (h *LogHandler) Clear(c echo.Context) error {
	var req logClearRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	logs, err := ws.Logs.Clear(c.Request().Context(), domain.LogClearFilter{
		OlderThan: req.OlderThan,
		Level:     req.Level,
		Type:      req.Type,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse[domain.LogEntry]{
		Items:      logs,
		Pagination: ws.Logs.Snapshot().Pagination,
	})
}

// RealTime switches background polling on or off.
//
// @Summary      Toggle real time logs
// @Tags         logs
// @Accept       json
// @Produce      json
// @Param        body  body      realTimeRequest  true  "Desired state"
// @Success      200   {object}  realTimeResponse
// @Router       /api/logs/realtime [post]
func (h *LogHandler) RealTime(c echo.Context) error {
	var req realTimeRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	if req.Enabled {
		ws.Logs.EnableRealTime()
	} else {
		ws.Logs.DisableRealTime()
	}
	return c.JSON(http.StatusOK, realTimeResponse{Enabled: ws.Logs.RealTime()})
}
