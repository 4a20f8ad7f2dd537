package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/service"
)

// maxUploadBytes bounds a submitted document.
const maxUploadBytes = 64 << 20

// JobHandler exposes the session's job store.
type JobHandler struct {
	workspaces WorkspaceSource
}

func NewJobHandler(workspaces WorkspaceSource) *JobHandler {
	return &JobHandler{workspaces: workspaces}
}

// List fetches a page of print jobs.
//
// @Summary      List print jobs
// @Tags         jobs
// @Produce      json
// @Param        status      query     string  false  "Job status"
// @Param        printer_id  query     string  false  "Printer ID"
// @Param        user_id     query     string  false  "User ID"
// @Param        search      query     string  false  "Title search"
// @Param        start_date  query     string  false  "Created after"
// @Param        end_date    query     string  false  "Created before"
// @Param        page        query     int     false  "Page number"
// @Param        page_size   query     int     false  "Page size"
// @Success      200         {object}  listResponse[domain.PrintJob]
// @Failure      401         {object}  errorResponse
// @Router       /api/jobs [get]
func (h *JobHandler) List(c echo.Context) error {
	var q jobListQuery
	if err := bindValid(c, &q); err != nil {
		return err
	}
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	jobs, err := ws.Jobs.Fetch(c.Request().Context(), q.toDomain())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse[domain.PrintJob]{
		Items:      jobs,
		Pagination: ws.Jobs.Snapshot().Pagination,
	})
}

// Get returns one job.
//
// @Summary      Get a print job
// @Tags         jobs
// @Produce      json
// @Param        id   path      int  true  "Job ID"
// @Success      200  {object}  domain.PrintJob
// @Failure      404  {object}  errorResponse
// @Router       /api/jobs/{id} [get]
func (h *JobHandler) Get(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	job, err := ws.Jobs.FetchOne(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

// Submit uploads a document to print.
//
// @Summary      Submit a print job
// @Tags         jobs
// @Accept       multipart/form-data
// @Produce      json
// @Param        file        formData  file    true   "Document"
// @Param        printer_id  formData  int     true   "Target printer"
// @Param        copies      formData  int     false  "Copies"
// @Param        priority    formData  int     false  "Priority, 1 to 10"
// @Param        settings    formData  string  false  "JSON encoded job settings"
// @Success      201         {object}  domain.PrintJob
// @Failure      422         {object}  errorResponse
// @Router       /api/jobs [post]
func (h *JobHandler) Submit(c echo.Context) error {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxUploadBytes)

	var form jobSubmitForm
	if err := bindValid(c, &form); err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return domain.ValidationError("file is required", map[string][]string{"file": {"required"}})
	}

	sub := domain.JobSubmission{
		FileName:  fh.Filename,
		PrinterID: form.PrinterID,
		Copies:    form.Copies,
	}
	if form.Priority > 0 {
		sub.Priority = strconv.Itoa(form.Priority)
	}
	if form.Settings != "" {
		var settings domain.JobSettings
		if err := json.Unmarshal([]byte(form.Settings), &settings); err != nil {
			return domain.ValidationError("settings must be a JSON object", map[string][]string{"settings": {"invalid JSON"}})
		}
		sub.Settings = &settings
	}

	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	sub.File = f

	job, err := ws.Jobs.Submit(c.Request().Context(), sub)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, job)
}

// Cancel stops a queued or printing job.
//
// @Summary      Cancel a print job
// @Tags         jobs
// @Param        id   path  int  true  "Job ID"
// @Success      204
// @Failure      422  {object}  errorResponse
// @Router       /api/jobs/{id}/cancel [post]
func (h *JobHandler) Cancel(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	if err := ws.Jobs.Cancel(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Resubmit queues a copy of a finished job.
//
// @Summary      Resubmit a print job
// @Tags         jobs
// @Produce      json
// @Param        id   path      int  true  "Job ID"
// @Success      201  {object}  domain.PrintJob
// @Router       /api/jobs/{id}/resubmit [post]
func (h *JobHandler) Resubmit(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	job, err := ws.Jobs.Resubmit(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, job)
}

// Delete removes a job record.
//
// @Summary      Delete a print job
// @Tags         jobs
// @Param        id   path  int  true  "Job ID"
// @Success      204
// @Router       /api/jobs/{id} [delete]
func (h *JobHandler) Delete(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	if err := ws.Jobs.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// BatchCancel cancels several jobs at once.
//
// @Summary      Cancel several jobs
// @Tags         jobs
// @Accept       json
// @Param        body  body  batchRequest  true  "Job IDs"
// @Success      204
// @Failure      422   {object}  errorResponse
// @Router       /api/jobs/batch-cancel [post]
func (h *JobHandler) BatchCancel(c echo.Context) error {
	return h.batch(c, func(ws *service.Workspace, ids []int64) error {
		return ws.Jobs.BatchCancel(c.Request().Context(), ids)
	})
}

// BatchDelete deletes several jobs at once.
//
// @Summary      Delete several jobs
// @Tags         jobs
// @Accept       json
// @Param        body  body  batchRequest  true  "Job IDs"
// @Success      204
// @Failure      422   {object}  errorResponse
// @Router       /api/jobs/batch-delete [post]
func (h *JobHandler) BatchDelete(c echo.Context) error {
	return h.batch(c, func(ws *service.Workspace, ids []int64) error {
		return ws.Jobs.BatchDelete(c.Request().Context(), ids)
	})
}

// Preview streams the rendered preview of a job.
//
// @Summary      Preview a print job
// @Tags         jobs
// @Produce      octet-stream
// @Param        id   path  int  true  "Job ID"
// @Success      200  {file}  binary
// @Router       /api/jobs/{id}/preview [get]
func (h *JobHandler) Preview(c echo.Context) error {
	id, ws, err := h.target(c)
	if err != nil {
		return err
	}
	blob, err := ws.Jobs.Preview(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return sendBlob(c, blob, "inline")
}

func (h *JobHandler) batch(c echo.Context, fn func(*service.Workspace, []int64) error) error {
	var req batchRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	if err := fn(ws, req.JobIDs); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *JobHandler) target(c echo.Context) (int64, *service.Workspace, error) {
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
