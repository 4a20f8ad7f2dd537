package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

const jobsPath = "/jobs"

// JobAPI talks to /jobs on the backend.
type JobAPI struct {
	c *Client
}

func NewJobAPI(c *Client) *JobAPI { return &JobAPI{c: c} }

var _ ports.JobAPI = (*JobAPI)(nil)

func (j *JobAPI) List(ctx context.Context, q domain.JobQuery) (*domain.Page[domain.PrintJob], error) {
	query := params{}.
		str("status", q.Status).
		str("printer_id", q.PrinterID).
		str("user_id", q.UserID).
		str("search", q.Search).
		str("start_date", q.StartDate).
		str("end_date", q.EndDate).
		num("page", q.Page).
		num("page_size", q.PageSize)
	resp, err := j.c.Do(ctx, Request{Method: http.MethodGet, Path: jobsPath, Query: query.values()})
	if err != nil {
		return nil, err
	}
	return decodePage[domain.PrintJob](resp)
}

func (j *JobAPI) Get(ctx context.Context, id int64) (*domain.PrintJob, error) {
	resp, err := j.c.Do(ctx, Request{Method: http.MethodGet, Path: idPath(jobsPath, id, "")})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.PrintJob](resp)
}

// Submit uploads the document as multipart/form-data. Uploads are never
// de-duplicated: two submissions to the same endpoint are distinct jobs.
func (j *JobAPI) Submit(ctx context.Context, sub domain.JobSubmission) (*domain.PrintJob, error) {
	form := &Multipart{
		Fields: []FormField{{Name: "printer_id", Value: strconv.FormatInt(sub.PrinterID, 10)}},
		Files:  []FormFile{{Field: "file", FileName: sub.FileName, Content: sub.File}},
	}
	if sub.Copies > 0 {
		form.Fields = append(form.Fields, FormField{Name: "copies", Value: strconv.Itoa(sub.Copies)})
	}
	if sub.Priority != "" {
		form.Fields = append(form.Fields, FormField{Name: "priority", Value: sub.Priority})
	}
	if sub.Settings != nil {
		settings, err := json.Marshal(sub.Settings)
		if err != nil {
			return nil, fmt.Errorf("upstream: encode job settings: %w", err)
		}
		form.Fields = append(form.Fields, FormField{Name: "settings", Value: string(settings)})
	}

	resp, err := j.c.Do(ctx, Request{Method: http.MethodPost, Path: jobsPath, Body: form, SkipDedup: true})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.PrintJob](resp)
}

func (j *JobAPI) Cancel(ctx context.Context, id int64) error {
	_, err := j.c.Do(ctx, Request{Method: http.MethodPost, Path: idPath(jobsPath, id, "/cancel")})
	return err
}

func (j *JobAPI) Resubmit(ctx context.Context, id int64) (*domain.PrintJob, error) {
	resp, err := j.c.Do(ctx, Request{Method: http.MethodPost, Path: idPath(jobsPath, id, "/resubmit")})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.PrintJob](resp)
}

func (j *JobAPI) Delete(ctx context.Context, id int64) error {
	_, err := j.c.Do(ctx, Request{Method: http.MethodDelete, Path: idPath(jobsPath, id, "")})
	return err
}

type batchBody struct {
	JobIDs []int64 `json:"job_ids"`
}

func (j *JobAPI) BatchCancel(ctx context.Context, ids []int64) error {
	_, err := j.c.Do(ctx, Request{Method: http.MethodPost, Path: jobsPath + "/batch-cancel", Body: batchBody{JobIDs: ids}, SkipDedup: true})
	return err
}

func (j *JobAPI) BatchDelete(ctx context.Context, ids []int64) error {
	_, err := j.c.Do(ctx, Request{Method: http.MethodPost, Path: jobsPath + "/batch-delete", Body: batchBody{JobIDs: ids}, SkipDedup: true})
	return err
}

func (j *JobAPI) Preview(ctx context.Context, id int64) (*domain.Blob, error) {
	resp, err := j.c.Do(ctx, Request{Method: http.MethodGet, Path: idPath(jobsPath, id, "/preview")})
	if err != nil {
		return nil, err
	}
	return blobFrom(resp, fmt.Sprintf("job_%d_preview", id)), nil
}
