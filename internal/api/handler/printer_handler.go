package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/service"
)

// PrinterHandler exposes the session's printer store.
type PrinterHandler struct {
	workspaces WorkspaceSource
}

func NewPrinterHandler(workspaces WorkspaceSource) *PrinterHandler {
	return &PrinterHandler{workspaces: workspaces}
}

// List fetches a page of printers from the backend.
//
// @Summary      List printers
// @Tags         printers
// @Produce      json
// @Param        status     query     string  false  "online, offline, error or busy"
// @Param        search     query     string  false  "Name search"
// @Param        page       query     int     false  "Page number"
// @Param        page_size  query     int     false  "Page size"
// @Success      200        {object}  listResponse[domain.Printer]
// @Failure      401        {object}  errorResponse
// @Failure      502        {object}  errorResponse
// @Router       /api/printers [get]
func (h *PrinterHandler) List(c echo.Context) error {
	var q printerListQuery
	if err := bindValid(c, &q); err != nil {
		return err
	}
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	printers, err := ws.Printers.Fetch(c.Request().Context(), q.toDomain())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse[domain.Printer]{
		Items:      printers,
		Pagination: ws.Printers.Snapshot().Pagination,
	})
}

// Get returns one printer.
//
// @Summary      Get a printer
// @Tags         printers
// @Produce      json
// @Param        id   path      int  true  "Printer ID"
// @Success      200  {object}  domain.Printer
// @Failure      404  {object}  errorResponse
// @Router       /api/printers/{id} [get]
func (h *PrinterHandler) Get(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	p, err := ws.Printers.FetchOne(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Default returns the cached default printer.
//
// @Summary      Default printer
// @Tags         printers
// @Produce      json
// @Success      200  {object}  domain.Printer
// @Failure      404  {object}  errorResponse
// @Router       /api/printers/default [get]
func (h *PrinterHandler) Default(c echo.Context) error {
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	p := ws.Printers.Default()
	if p == nil {
		return domain.Classify(http.StatusNotFound, "no default printer")
	}
	return c.JSON(http.StatusOK, p)
}

// Create registers a printer.
//
// @Summary      Add a printer
// @Tags         printers
// @Accept       json
// @Produce      json
// @Param        body  body      printerRequest  true  "Printer"
// @Success      201   {object}  domain.Printer
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/printers [post]
func (h *PrinterHandler) Create(c echo.Context) error {
	var req printerRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	p, err := ws.Printers.Add(c.Request().Context(), domain.PrinterInput{
		Name:      req.Name,
		Status:    req.Status,
		IsDefault: req.IsDefault,
		Location:  req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// Update changes a printer's settings.
//
// @Summary      Update a printer
// @Tags         printers
// @Accept       json
// @Produce      json
// @Param        id    path      int                   true  "Printer ID"
// @Param        body  body      printerUpdateRequest  true  "Fields to change"
// @Success      200   {object}  domain.Printer
// @Failure      422   {object}  errorResponse
// @Router       /api/printers/{id} [put]
func (h *PrinterHandler) Update(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	var req printerUpdateRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := ws.Printers.Update(c.Request().Context(), id, domain.PrinterInput{
		Name:      req.Name,
		Status:    req.Status,
		IsDefault: req.IsDefault,
		Location:  req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes a printer.
//
// @Summary      Delete a printer
// @Tags         printers
// @Param        id   path  int  true  "Printer ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/printers/{id} [delete]
func (h *PrinterHandler) Delete(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	if err := ws.Printers.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetDefault makes a printer the default.
//
// @Summary      Set the default printer
// @Tags         printers
// @Param        id   path  int  true  "Printer ID"
// @Success      204
// @Router       /api/printers/{id}/set-default [post]
func (h *PrinterHandler) SetDefault(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	if err := ws.Printers.SetDefault(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Test sends a test page.
//
// @Summary      Test a printer
// @Tags         printers
// @Produce      json
// @Param        id   path      int  true  "Printer ID"
// @Success      200  {object}  domain.PrinterTestResult
// @Router       /api/printers/{id}/test [post]
func (h *PrinterHandler) Test(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	res, err := ws.Printers.Test(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Refresh re-reads one printer's state from the device.
//
// @Summary      Refresh a printer
// @Tags         printers
// @Produce      json
// @Param        id   path      int  true  "Printer ID"
// @Success      200  {object}  domain.Printer
// @Router       /api/printers/{id}/refresh [post]
func (h *PrinterHandler) Refresh(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	p, err := ws.Printers.Refresh(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// RefreshAll re-reads every printer and returns the refreshed listing.
//
// @Summary      Refresh all printers
// @Tags         printers
// @Produce      json
// @Success      200  {object}  listResponse[domain.Printer]
// @Router       /api/printers/refresh-all [post]
func (h *PrinterHandler) RefreshAll(c echo.Context) error {
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	printers, err := ws.Printers.RefreshAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse[domain.Printer]{
		Items:      printers,
		Pagination: ws.Printers.Snapshot().Pagination,
	})
}

// Capabilities returns what a printer supports.
//
// @Summary      Printer capabilities
// @Tags         printers
// @Produce      json
// @Param        id   path      int  true  "Printer ID"
// @Success      200  {object}  domain.Capabilities
// @Router       /api/printers/{id}/capabilities [get]
func (h *PrinterHandler) Capabilities(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	caps, err := ws.Printers.Capabilities(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, caps)
}

func (h *PrinterHandler) target(c echo.Context) (int64, *service.Workspace, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return 0, nil, err
	}
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return 0, nil, err
	}
	return id, ws, nil
}
