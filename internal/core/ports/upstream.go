package ports

import (
	"context"

	"github.com/printproxy/console/internal/core/domain"
)

// LoginCredentials are forwarded to the backend. Remember only selects the
// local persistence scope.
type LoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"-"`
}

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type,omitempty"`
	User        domain.User `json:"user"`
}

// AuthAPI is the backend's authentication surface.
type AuthAPI interface {
	Login(ctx context.Context, creds LoginCredentials) (*LoginResult, error)
	Refresh(ctx context.Context) (string, error)
	Me(ctx context.Context) (*domain.User, error)
}

// PrinterAPI is the backend's printer surface.
type PrinterAPI interface {
	List(ctx context.Context, q domain.PrinterQuery) (*domain.Page[domain.Printer], error)
	Get(ctx context.Context, id int64) (*domain.Printer, error)
	Create(ctx context.Context, in domain.PrinterInput) (*domain.Printer, error)
	Update(ctx context.Context, id int64, in domain.PrinterInput) (*domain.Printer, error)
	Delete(ctx context.Context, id int64) error
	SetDefault(ctx context.Context, id int64) error
	Test(ctx context.Context, id int64) (*domain.PrinterTestResult, error)
	Refresh(ctx context.Context, id int64) (*domain.Printer, error)
	RefreshAll(ctx context.Context) error
	Capabilities(ctx context.Context, id int64) (*domain.Capabilities, error)
}

// JobAPI is the backend's print job surface.
type JobAPI interface {
	List(ctx context.Context, q domain.JobQuery) (*domain.Page[domain.PrintJob], error)
	Get(ctx context.Context, id int64) (*domain.PrintJob, error)
	Submit(ctx context.Context, sub domain.JobSubmission) (*domain.PrintJob, error)
	Cancel(ctx context.Context, id int64) error
	Resubmit(ctx context.Context, id int64) (*domain.PrintJob, error)
	Delete(ctx context.Context, id int64) error
	BatchCancel(ctx context.Context, ids []int64) error
	BatchDelete(ctx context.Context, ids []int64) error
	Preview(ctx context.Context, id int64) (*domain.Blob, error)
}

// LogAPI is the backend's log surface.
type LogAPI interface {
	List(ctx context.Context, q domain.LogQuery) (*domain.Page[domain.LogEntry], error)
	Get(ctx context.Context, id string) (*domain.LogEntry, error)
	Stats(ctx context.Context, q domain.LogQuery) (*domain.LogStats, error)
	Export(ctx context.Context, q domain.LogQuery, format string) (*domain.Blob, error)
	Clear(ctx context.Context, f domain.LogClearFilter) error
}
