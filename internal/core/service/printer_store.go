package service

import (
	"context"
	"sync"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

// PrinterSnapshot is a consistent copy of the printer cache.
type PrinterSnapshot struct {
	Printers   []domain.Printer   `json:"printers"`
	Pagination *domain.Pagination `json:"pagination"`
	Loading    bool               `json:"loading"`
	Error      string             `json:"error,omitempty"`
}

// PrinterStore caches the session's printer listing. Refetch replaces the
// cache; mutations patch it after the backend accepts them.
type PrinterStore struct {
	api    ports.PrinterAPI
	reader Reader

	mu         sync.RWMutex
	st         state
	printers   []domain.Printer
	pagination *domain.Pagination
	lastQuery  domain.PrinterQuery
}

func NewPrinterStore(api ports.PrinterAPI, reader Reader) *PrinterStore {
	return &PrinterStore{api: api, reader: reader}
}

func (s *PrinterStore) Fetch(ctx context.Context, q domain.PrinterQuery) ([]domain.Printer, error) {
	s.mu.Lock()
	s.st.begin()
	s.lastQuery = q
	s.mu.Unlock()

	page, err := read(ctx, s.reader, "printers.list", func(ctx context.Context) (*domain.Page[domain.Printer], error) {
		return s.api.List(ctx, q)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.end(err)
	if err != nil {
		return nil, err
	}
	s.printers = page.Items
	s.pagination = paginationFor(page.Pagination, q.Page, q.PageSize, len(page.Items))
	return clonePrinters(s.printers), nil
}

// FetchOne loads a single printer and refreshes its cached copy.
func (s *PrinterStore) FetchOne(ctx context.Context, id int64) (*domain.Printer, error) {
	p, err := read(ctx, s.reader, "printers.get", func(ctx context.Context) (*domain.Printer, error) {
		return s.api.Get(ctx, id)
	})
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.replace(*p)
	return p, nil
}

func (s *PrinterStore) Add(ctx context.Context, in domain.PrinterInput) (*domain.Printer, error) {
	if in.Name == "" {
		return nil, domain.ValidationError("printer name is required", map[string][]string{"name": {"required"}})
	}
	p, err := s.api.Create(ctx, in)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	s.printers = append(s.printers, *p)
	s.mu.Unlock()
	return p, nil
}

func (s *PrinterStore) Update(ctx context.Context, id int64, in domain.PrinterInput) (*domain.Printer, error) {
	p, err := s.api.Update(ctx, id, in)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.replace(*p)
	return p, nil
}

func (s *PrinterStore) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, id); err != nil {
		s.fail(err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.printers[:0]
	for _, p := range s.printers {
		if p.ID != id {
			out = append(out, p)
		}
	}
	s.printers = out
	return nil
}

// SetDefault makes id the only default printer in the cache.
func (s *PrinterStore) SetDefault(ctx context.Context, id int64) error {
	if err := s.api.SetDefault(ctx, id); err != nil {
		s.fail(err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.printers {
		s.printers[i].IsDefault = s.printers[i].ID == id
	}
	return nil
}

func (s *PrinterStore) Test(ctx context.Context, id int64) (*domain.PrinterTestResult, error) {
	res, err := s.api.Test(ctx, id)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	return res, nil
}

// Refresh asks the backend to re-probe one printer and replaces its entry.
func (s *PrinterStore) Refresh(ctx context.Context, id int64) (*domain.Printer, error) {
	p, err := s.api.Refresh(ctx, id)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.replace(*p)
	return p, nil
}

// RefreshAll re-probes every printer and then refetches the last listing.
func (s *PrinterStore) RefreshAll(ctx context.Context) ([]domain.Printer, error) {
	if err := s.api.RefreshAll(ctx); err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.RLock()
	q := s.lastQuery
	s.mu.RUnlock()
	return s.Fetch(ctx, q)
}

func (s *PrinterStore) Capabilities(ctx context.Context, id int64) (*domain.Capabilities, error) {
	caps, err := read(ctx, s.reader, "printers.capabilities", func(ctx context.Context) (*domain.Capabilities, error) {
		return s.api.Capabilities(ctx, id)
	})
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	for i := range s.printers {
		if s.printers[i].ID == id {
			c := *caps
			s.printers[i].Capabilities = &c
		}
	}
	s.mu.Unlock()
	return caps, nil
}

func (s *PrinterStore) Printers() []domain.Printer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePrinters(s.printers)
}

func (s *PrinterStore) Online() []domain.Printer {
	return s.ByStatus(domain.PrinterOnline)
}

func (s *PrinterStore) ByStatus(status domain.PrinterStatus) []domain.Printer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Printer{}
	for _, p := range s.printers {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// Grouped returns the cache keyed by status.
func (s *PrinterStore) Grouped() map[domain.PrinterStatus][]domain.Printer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.PrinterStatus][]domain.Printer)
	for _, p := range s.printers {
		out[p.Status] = append(out[p.Status], p)
	}
	return out
}

// Default returns the cached default printer, or nil.
func (s *PrinterStore) Default() *domain.Printer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.printers {
		if p.IsDefault {
			return &p
		}
	}
	return nil
}

func (s *PrinterStore) Snapshot() PrinterSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return PrinterSnapshot{
		Printers:   clonePrinters(s.printers),
		Pagination: s.pagination,
		Loading:    s.st.loading,
		Error:      s.st.lastError,
	}
}

func (s *PrinterStore) replace(p domain.Printer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.printers {
		if s.printers[i].ID == p.ID {
			s.printers[i] = p
			return
		}
	}
}

func (s *PrinterStore) fail(err error) {
	s.mu.Lock()
	s.st.end(err)
	s.mu.Unlock()
}

func clonePrinters(in []domain.Printer) []domain.Printer {
	out := make([]domain.Printer, len(in))
	copy(out, in)
	return out
}
