package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

func newTestAuthService(api *stubAuthAPI) (*AuthService, *stubPersistence, *dropRecorder) {
	store := newStubPersistence()
	drops := &dropRecorder{}
	return NewAuthService(api, store, drops, "secret", zerolog.Nop()), store, drops
}

func okLogin(ctx context.Context, creds ports.LoginCredentials) (*ports.LoginResult, error) {
	return &ports.LoginResult{
		AccessToken: "backend-token",
		User:        domain.User{ID: 1, Username: creds.Username, Role: "admin"},
	}, nil
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, store, _ := newTestAuthService(&stubAuthAPI{loginFn: okLogin})

	sess, cookie, err := svc.Login(context.Background(), ports.LoginCredentials{Username: " carol ", Password: "pw", Remember: true})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if sess.Token != "backend-token" || !sess.Remember || sess.User.Username != "carol" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if _, err := store.Load(context.Background(), sess.ID); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(cookie, claims, func(*jwt.Token) (any, error) { return []byte("secret"), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("cookie invalid: %v", err)
	}
	if claims.ID != sess.ID {
		t.Fatalf("cookie must carry the session id, got %q", claims.ID)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Sub(claims.IssuedAt.Time) != 30*24*time.Hour {
		t.Fatalf("remembered cookie should live 30 days, got %v", claims.ExpiresAt)
	}
}

func TestAuthService_Login_Validation(t *testing.T) {
	called := false
	svc, _, _ := newTestAuthService(&stubAuthAPI{loginFn: func(ctx context.Context, c ports.LoginCredentials) (*ports.LoginResult, error) {
		called = true
		return nil, nil
	}})

	_, _, err := svc.Login(context.Background(), ports.LoginCredentials{Username: "  "})
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(de.Fields["username"]) == 0 || len(de.Fields["password"]) == 0 {
		t.Fatalf("expected both fields flagged, got %v", de.Fields)
	}
	if called {
		t.Fatalf("backend must not be called for invalid input")
	}
}

func TestAuthService_Login_BackendRejects(t *testing.T) {
	svc, store, _ := newTestAuthService(&stubAuthAPI{loginFn: func(ctx context.Context, c ports.LoginCredentials) (*ports.LoginResult, error) {
		return nil, domain.Classify(401, "Incorrect username or password")
	}})

	if _, _, err := svc.Login(context.Background(), ports.LoginCredentials{Username: "a", Password: "b"}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if len(store.sessions) != 0 {
		t.Fatalf("no session should be stored on failure")
	}
}

func TestAuthService_ResolveRoundTrip(t *testing.T) {
	svc, _, _ := newTestAuthService(&stubAuthAPI{loginFn: okLogin})
	ctx := context.Background()

	sess, cookie, err := svc.Login(ctx, ports.LoginCredentials{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	got, err := svc.Resolve(ctx, cookie)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got.ID != sess.ID || got.Token != "backend-token" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestAuthService_ResolveRejectsForgedCookie(t *testing.T) {
	svc, _, _ := newTestAuthService(&stubAuthAPI{loginFn: okLogin})
	ctx := context.Background()
	sess, _, _ := svc.Login(ctx, ports.LoginCredentials{Username: "alice", Password: "pw"})

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ID: sess.ID})
	signed, _ := forged.SignedString([]byte("other-secret"))

	for _, cookie := range []string{"", "garbage", signed} {
		if _, err := svc.Resolve(ctx, cookie); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("cookie %q: expected unauthenticated, got %v", cookie, err)
		}
	}
}

func TestAuthService_ResolveExpiredCookie(t *testing.T) {
	svc, _, _ := newTestAuthService(&stubAuthAPI{loginFn: okLogin})
	ctx := context.Background()
	_, cookie, _ := svc.Login(ctx, ports.LoginCredentials{Username: "alice", Password: "pw"})

	svc.now = func() time.Time { return time.Now().Add(9 * time.Hour) }
	if _, err := svc.Resolve(ctx, cookie); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected expired cookie to be rejected, got %v", err)
	}
}

func TestAuthService_LogoutDropsEverything(t *testing.T) {
	svc, store, drops := newTestAuthService(&stubAuthAPI{loginFn: okLogin})
	ctx := context.Background()
	sess, cookie, _ := svc.Login(ctx, ports.LoginCredentials{Username: "alice", Password: "pw"})

	if err := svc.Logout(ctx, sess.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(store.sessions) != 0 {
		t.Fatalf("session still persisted")
	}
	if len(drops.dropped) != 1 || drops.dropped[0] != sess.ID {
		t.Fatalf("workspace not dropped: %v", drops.dropped)
	}
	if _, err := svc.Resolve(ctx, cookie); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("cookie must stop resolving after logout")
	}
}

func TestAuthService_RefreshKeepsScope(t *testing.T) {
	api := &stubAuthAPI{
		loginFn: okLogin,
		refreshFn: func(ctx context.Context) (string, error) {
			if domain.SessionFrom(ctx).Token != "backend-token" {
				t.Fatalf("refresh must authenticate with the current token")
			}
			return "new-token", nil
		},
	}
	svc, store, _ := newTestAuthService(api)
	ctx := context.Background()
	sess, _, _ := svc.Login(ctx, ports.LoginCredentials{Username: "alice", Password: "pw", Remember: true})

	next, err := svc.Refresh(ctx, sess)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.Token != "new-token" || !next.Remember || next.ID != sess.ID {
		t.Fatalf("unexpected refreshed session: %+v", next)
	}
	if store.sessions[sess.ID].Token != "new-token" {
		t.Fatalf("refreshed token not persisted")
	}
	if sess.Token != "backend-token" {
		t.Fatalf("refresh must not mutate the caller's session")
	}
}

func TestAuthService_ValidateFailureLogsOut(t *testing.T) {
	api := &stubAuthAPI{
		loginFn: okLogin,
		meFn: func(ctx context.Context) (*domain.User, error) {
			return nil, domain.Classify(401, "")
		},
	}
	svc, store, drops := newTestAuthService(api)
	ctx := context.Background()
	sess, _, _ := svc.Login(ctx, ports.LoginCredentials{Username: "alice", Password: "pw"})

	if svc.Validate(ctx, sess) {
		t.Fatalf("expected validation to fail")
	}
	if len(store.sessions) != 0 || len(drops.dropped) != 1 {
		t.Fatalf("failed validation must log out")
	}
	if svc.Validate(ctx, nil) {
		t.Fatalf("nil session is never valid")
	}
}

func TestAuthService_CurrentUserUpdatesStoredProfile(t *testing.T) {
	api := &stubAuthAPI{
		loginFn: okLogin,
		meFn: func(ctx context.Context) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "alice", Email: "alice@example.com", Role: "user"}, nil
		},
	}
	svc, store, _ := newTestAuthService(api)
	ctx := context.Background()
	sess, _, _ := svc.Login(ctx, ports.LoginCredentials{Username: "alice", Password: "pw"})

	user, err := svc.CurrentUser(ctx, sess)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}
	if store.sessions[sess.ID].User.Role != "user" {
		t.Fatalf("stored profile not updated")
	}
}
