package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
	"github.com/printproxy/console/internal/retry"
)

// testReader retries without sleeping.
func testReader() Reader {
	return NewReader(retry.Options{
		MaxAttempts: 3,
		Jitter:      -1,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}, zerolog.Nop())
}

type stubAuthAPI struct {
	loginFn   func(ctx context.Context, creds ports.LoginCredentials) (*ports.LoginResult, error)
	refreshFn func(ctx context.Context) (string, error)
	meFn      func(ctx context.Context) (*domain.User, error)
}

func (s *stubAuthAPI) Login(ctx context.Context, creds ports.LoginCredentials) (*ports.LoginResult, error) {
	return s.loginFn(ctx, creds)
}

func (s *stubAuthAPI) Refresh(ctx context.Context) (string, error) { return s.refreshFn(ctx) }

func (s *stubAuthAPI) Me(ctx context.Context) (*domain.User, error) { return s.meFn(ctx) }

type stubPersistence struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newStubPersistence() *stubPersistence {
	return &stubPersistence{sessions: map[string]domain.Session{}}
}

func (p *stubPersistence) Save(_ context.Context, s *domain.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[s.ID] = *s
	return nil
}

func (p *stubPersistence) Load(_ context.Context, id string) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return &s, nil
}

func (p *stubPersistence) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, id)
	return nil
}

func (p *stubPersistence) TTL(s *domain.Session) time.Duration {
	if s.Remember {
		return 30 * 24 * time.Hour
	}
	return 8 * time.Hour
}

type dropRecorder struct {
	dropped []string
}

func (d *dropRecorder) Drop(id string) { d.dropped = append(d.dropped, id) }

type stubPrinterAPI struct {
	ports.PrinterAPI
	listFn       func(ctx context.Context, q domain.PrinterQuery) (*domain.Page[domain.Printer], error)
	setDefaultFn func(ctx context.Context, id int64) error
	refreshFn    func(ctx context.Context, id int64) (*domain.Printer, error)
	refreshAllFn func(ctx context.Context) error
	createFn     func(ctx context.Context, in domain.PrinterInput) (*domain.Printer, error)
	deleteFn     func(ctx context.Context, id int64) error
}

func (s *stubPrinterAPI) List(ctx context.Context, q domain.PrinterQuery) (*domain.Page[domain.Printer], error) {
	return s.listFn(ctx, q)
}

func (s *stubPrinterAPI) SetDefault(ctx context.Context, id int64) error { return s.setDefaultFn(ctx, id) }

func (s *stubPrinterAPI) Refresh(ctx context.Context, id int64) (*domain.Printer, error) {
	return s.refreshFn(ctx, id)
}

func (s *stubPrinterAPI) RefreshAll(ctx context.Context) error { return s.refreshAllFn(ctx) }

func (s *stubPrinterAPI) Create(ctx context.Context, in domain.PrinterInput) (*domain.Printer, error) {
	return s.createFn(ctx, in)
}

func (s *stubPrinterAPI) Delete(ctx context.Context, id int64) error { return s.deleteFn(ctx, id) }

type stubJobAPI struct {
	ports.JobAPI
	listFn        func(ctx context.Context, q domain.JobQuery) (*domain.Page[domain.PrintJob], error)
	submitFn      func(ctx context.Context, sub domain.JobSubmission) (*domain.PrintJob, error)
	cancelFn      func(ctx context.Context, id int64) error
	resubmitFn    func(ctx context.Context, id int64) (*domain.PrintJob, error)
	batchCancelFn func(ctx context.Context, ids []int64) error
	batchDeleteFn func(ctx context.Context, ids []int64) error
}

func (s *stubJobAPI) List(ctx context.Context, q domain.JobQuery) (*domain.Page[domain.PrintJob], error) {
	return s.listFn(ctx, q)
}

func (s *stubJobAPI) Submit(ctx context.Context, sub domain.JobSubmission) (*domain.PrintJob, error) {
	return s.submitFn(ctx, sub)
}

func (s *stubJobAPI) Cancel(ctx context.Context, id int64) error { return s.cancelFn(ctx, id) }

func (s *stubJobAPI) Resubmit(ctx context.Context, id int64) (*domain.PrintJob, error) {
	return s.resubmitFn(ctx, id)
}

func (s *stubJobAPI) BatchCancel(ctx context.Context, ids []int64) error {
	return s.batchCancelFn(ctx, ids)
}

func (s *stubJobAPI) BatchDelete(ctx context.Context, ids []int64) error {
	return s.batchDeleteFn(ctx, ids)
}

type stubLogAPI struct {
	ports.LogAPI
	listFn  func(ctx context.Context, q domain.LogQuery) (*domain.Page[domain.LogEntry], error)
	clearFn func(ctx context.Context, f domain.LogClearFilter) error
}

func (s *stubLogAPI) List(ctx context.Context, q domain.LogQuery) (*domain.Page[domain.LogEntry], error) {
	return s.listFn(ctx, q)
}

func (s *stubLogAPI) Clear(ctx context.Context, f domain.LogClearFilter) error { return s.clearFn(ctx, f) }

func (s *stubLogAPI) Export(_ context.Context, _ domain.LogQuery, format string) (*domain.Blob, error) {
	return &domain.Blob{FileName: "logs." + format}, nil
}
