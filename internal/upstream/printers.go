package upstream

import (
	"context"
	"net/http"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

const printersPath = "/printers"

// PrinterAPI talks to /printers on the backend.
type PrinterAPI struct {
	c *Client
}

func NewPrinterAPI(c *Client) *PrinterAPI { return &PrinterAPI{c: c} }

var _ ports.PrinterAPI = (*PrinterAPI)(nil)

func (p *PrinterAPI) List(ctx context.Context, q domain.PrinterQuery) (*domain.Page[domain.Printer], error) {
	query := params{}.
		str("status", q.Status).
		str("search", q.Search).
		num("page", q.Page).
		num("page_size", q.PageSize)
	resp, err := p.c.Do(ctx, Request{Method: http.MethodGet, Path: printersPath, Query: query.values()})
	if err != nil {
		return nil, err
	}
	return decodePage[domain.Printer](resp)
}

func (p *PrinterAPI) Get(ctx context.Context, id int64) (*domain.Printer, error) {
	resp, err := p.c.Do(ctx, Request{Method: http.MethodGet, Path: idPath(printersPath, id, "")})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.Printer](resp)
}

func (p *PrinterAPI) Create(ctx context.Context, in domain.PrinterInput) (*domain.Printer, error) {
	resp, err := p.c.Do(ctx, Request{Method: http.MethodPost, Path: printersPath, Body: in, SkipDedup: true})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.Printer](resp)
}

func (p *PrinterAPI) Update(ctx context.Context, id int64, in domain.PrinterInput) (*domain.Printer, error) {
	resp, err := p.c.Do(ctx, Request{Method: http.MethodPut, Path: idPath(printersPath, id, ""), Body: in})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.Printer](resp)
}

func (p *PrinterAPI) Delete(ctx context.Context, id int64) error {
	_, err := p.c.Do(ctx, Request{Method: http.MethodDelete, Path: idPath(printersPath, id, "")})
	return err
}

func (p *PrinterAPI) SetDefault(ctx context.Context, id int64) error {
	_, err := p.c.Do(ctx, Request{Method: http.MethodPost, Path: idPath(printersPath, id, "/set-default")})
	return err
}

func (p *PrinterAPI) Test(ctx context.Context, id int64) (*domain.PrinterTestResult, error) {
	resp, err := p.c.Do(ctx, Request{Method: http.MethodPost, Path: idPath(printersPath, id, "/test")})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.PrinterTestResult](resp)
}

func (p *PrinterAPI) Refresh(ctx context.Context, id int64) (*domain.Printer, error) {
	resp, err := p.c.Do(ctx, Request{Method: http.MethodPost, Path: idPath(printersPath, id, "/refresh")})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.Printer](resp)
}

func (p *PrinterAPI) RefreshAll(ctx context.Context) error {
	_, err := p.c.Do(ctx, Request{Method: http.MethodPost, Path: printersPath + "/refresh-all"})
	return err
}

func (p *PrinterAPI) Capabilities(ctx context.Context, id int64) (*domain.Capabilities, error) {
	resp, err := p.c.Do(ctx, Request{Method: http.MethodGet, Path: idPath(printersPath, id, "/capabilities")})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.Capabilities](resp)
}
