package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/api/metrics"
	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/retry"
)

// Reader runs idempotent backend reads through the retry loop and counts
// every retry per operation.
type Reader struct {
	opts retry.Options
	log  zerolog.Logger
}

func NewReader(opts retry.Options, log zerolog.Logger) Reader {
	return Reader{opts: opts, log: log}
}

func (r Reader) options(op string) retry.Options {
	o := r.opts
	o.OnRetry = func(err error, attempt int, wait time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues(op).Inc()
		r.log.Debug().Err(err).Str("operation", op).Int("attempt", attempt).Dur("wait", wait).Msg("retrying backend read")
	}
	return o
}

func read[T any](ctx context.Context, r Reader, op string, fn func(context.Context) (T, error)) (T, error) {
	v, err := retry.Do(ctx, fn, r.options(op))
	if err != nil {
		return v, unwrapRetry(err)
	}
	return v, nil
}

// unwrapRetry surfaces the classified failure behind a retry.Error so callers
// see the taxonomy directly.
func unwrapRetry(err error) error {
	var re *retry.Error
	if !errors.As(err, &re) {
		return err
	}
	var de *domain.Error
	if errors.As(re.Last, &de) {
		return de
	}
	return re
}

// errorMessage is the operator-facing text stored as a store's last error.
func errorMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		if de.Detail != "" {
			return de.Detail
		}
		return de.Message
	}
	return err.Error()
}

// state is the bookkeeping every store shares.
type state struct {
	loading   bool
	lastError string
}

func (s *state) begin() {
	s.loading = true
	s.lastError = ""
}

func (s *state) end(err error) {
	s.loading = false
	if err != nil && domain.KindOf(err) != domain.KindCancelled {
		s.lastError = errorMessage(err)
	}
}

func paginationFor(p *domain.Pagination, page, pageSize, n int) *domain.Pagination {
	if p != nil {
		return p
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = n
	}
	pages := 0
	if n > 0 {
		pages = 1
	}
	return &domain.Pagination{Page: page, PageSize: pageSize, Total: n, TotalPages: pages}
}
