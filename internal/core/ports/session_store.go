package ports

import (
	"context"
	"time"

	"github.com/printproxy/console/internal/core/domain"
)

// SessionStore is one persistence scope. Get returns domain.ErrUnauthenticated
// when the id is unknown or expired.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionPersistence picks the scope for a session and hides the fact that
// there are two.
type SessionPersistence interface {
	Save(ctx context.Context, s *domain.Session) error
	Load(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	TTL(s *domain.Session) time.Duration
}
