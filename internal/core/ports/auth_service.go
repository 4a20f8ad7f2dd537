package ports

import (
	"context"

	"github.com/printproxy/console/internal/core/domain"
)

// AuthService owns the session lifecycle.
type AuthService interface {
	Login(ctx context.Context, creds LoginCredentials) (*domain.Session, string, error)
	Logout(ctx context.Context, sessionID string) error
	Refresh(ctx context.Context, s *domain.Session) (*domain.Session, error)
	CurrentUser(ctx context.Context, s *domain.Session) (*domain.User, error)
	Validate(ctx context.Context, s *domain.Session) bool
	Resolve(ctx context.Context, cookie string) (*domain.Session, error)
	// IssueCookie signs the value the console hands back as its session cookie.
	IssueCookie(s *domain.Session) (string, error)
}
