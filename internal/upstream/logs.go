package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

const logsPath = "/logs"

// LogAPI talks to /logs on the backend.
type LogAPI struct {
	c   *Client
	now func() time.Time
}

func NewLogAPI(c *Client) *LogAPI { return &LogAPI{c: c, now: time.Now} }

var _ ports.LogAPI = (*LogAPI)(nil)

func logQuery(q domain.LogQuery) params {
	return params{}.
		str("level", q.Level).
		str("type", q.Type).
		str("source", q.Source).
		str("search", q.Search).
		str("start_date", q.StartDate).
		str("end_date", q.EndDate).
		str("user_id", q.UserID).
		str("printer_id", q.PrinterID).
		str("job_id", q.JobID).
		num("page", q.Page).
		num("page_size", q.PageSize)
}

func (l *LogAPI) List(ctx context.Context, q domain.LogQuery) (*domain.Page[domain.LogEntry], error) {
	resp, err := l.c.Do(ctx, Request{Method: http.MethodGet, Path: logsPath, Query: logQuery(q).values()})
	if err != nil {
		return nil, err
	}
	return decodePage[domain.LogEntry](resp)
}

func (l *LogAPI) Get(ctx context.Context, id string) (*domain.LogEntry, error) {
	resp, err := l.c.Do(ctx, Request{Method: http.MethodGet, Path: logsPath + "/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.LogEntry](resp)
}

func (l *LogAPI) Stats(ctx context.Context, q domain.LogQuery) (*domain.LogStats, error) {
	resp, err := l.c.Do(ctx, Request{Method: http.MethodGet, Path: logsPath + "/stats", Query: logQuery(q).values()})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.LogStats](resp)
}

// Export downloads the filtered log set. The default file name is
// logs_<YYYY-MM-DD>.<format>.
func (l *LogAPI) Export(ctx context.Context, q domain.LogQuery, format string) (*domain.Blob, error) {
	query := logQuery(q).str("format", format)
	resp, err := l.c.Do(ctx, Request{Method: http.MethodGet, Path: logsPath + "/export", Query: query.values()})
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("logs_%s.%s", l.now().Format(time.DateOnly), format)
	return blobFrom(resp, name), nil
}

func (l *LogAPI) Clear(ctx context.Context, f domain.LogClearFilter) error {
	_, err := l.c.Do(ctx, Request{Method: http.MethodPost, Path: logsPath + "/clear", Body: f, SkipDedup: true})
	return err
}
