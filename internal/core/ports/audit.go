package ports

import (
	"context"

	"github.com/printproxy/console/internal/core/domain"
)

// AuditRepository persists audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	// List returns matching entries, newest first.
	List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error)
}

// AuditRecorder accepts entries without blocking the request path.
type AuditRecorder interface {
	Record(entry domain.AuditEntry)
}
