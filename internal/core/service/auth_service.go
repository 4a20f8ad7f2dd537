package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/api/metrics"
	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

// sessionDropper is the part of Workspaces the auth service needs.
type sessionDropper interface {
	Drop(sessionID string)
}

// AuthService owns the operator session lifecycle. The backend issues the
// access token; the console keeps it server side and hands the browser an
// HS256-signed cookie carrying only the session id.
type AuthService struct {
	api        ports.AuthAPI
	sessions   ports.SessionPersistence
	workspaces sessionDropper
	secret     []byte
	log        zerolog.Logger
	now        func() time.Time
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(api ports.AuthAPI, sessions ports.SessionPersistence, workspaces sessionDropper, secret string, log zerolog.Logger) *AuthService {
	return &AuthService{
		api:        api,
		sessions:   sessions,
		workspaces: workspaces,
		secret:     []byte(secret),
		log:        log,
		now:        time.Now,
	}
}

// Login authenticates against the backend and persists the new session in
// the scope chosen by creds.Remember.
func (s *AuthService) Login(ctx context.Context, creds ports.LoginCredentials) (*domain.Session, string, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	fields := map[string][]string{}
	if creds.Username == "" {
		fields["username"] = []string{"required"}
	}
	if creds.Password == "" {
		fields["password"] = []string{"required"}
	}
	if len(fields) > 0 {
		return nil, "", domain.ValidationError("username and password are required", fields)
	}

	res, err := s.api.Login(ctx, creds)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.log.Info().Str("username", creds.Username).Str("kind", string(domain.KindOf(err))).Msg("login rejected")
		return nil, "", err
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:          uuid.NewString(),
		Token:       res.AccessToken,
		User:        res.User,
		Remember:    creds.Remember,
		CreatedAt:   now,
		RefreshedAt: now,
	}
	if sess.User.Username == "" {
		sess.User.Username = creds.Username
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, "", fmt.Errorf("persist session: %w", err)
	}

	cookie, err := s.IssueCookie(sess)
	if err != nil {
		return nil, "", err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("username", sess.User.Username).Str("role", string(sess.Role())).Bool("remember", sess.Remember).Msg("operator logged in")
	return sess, cookie, nil
}

// Logout forgets the session in both scopes and drops its workspace.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	s.workspaces.Drop(sessionID)
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Refresh exchanges the backend token for a new one and re-persists the
// session in the same scope.
func (s *AuthService) Refresh(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	if !sess.Authenticated() {
		return nil, domain.AuthenticationError()
	}
	token, err := s.api.Refresh(domain.WithSession(ctx, sess))
	if err != nil {
		return nil, err
	}
	next := *sess
	next.Token = token
	next.RefreshedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, &next); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &next, nil
}

// CurrentUser reloads the profile from the backend and stores it.
func (s *AuthService) CurrentUser(ctx context.Context, sess *domain.Session) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, domain.AuthenticationError()
	}
	user, err := s.api.Me(domain.WithSession(ctx, sess))
	if err != nil {
		return nil, err
	}
	next := *sess
	next.User = *user
	if err := s.sessions.Save(ctx, &next); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return user, nil
}

// Validate checks the session against the backend. Any failure logs out.
func (s *AuthService) Validate(ctx context.Context, sess *domain.Session) bool {
	if !sess.Authenticated() {
		return false
	}
	if _, err := s.CurrentUser(ctx, sess); err != nil {
		s.log.Info().Err(err).Str("session_id", sess.ID).Msg("session validation failed")
		if lerr := s.Logout(ctx, sess.ID); lerr != nil {
			s.log.Warn().Err(lerr).Str("session_id", sess.ID).Msg("logout after failed validation")
		}
		return false
	}
	return true
}

// Resolve verifies the cookie and loads the session it names.
func (s *AuthService) Resolve(ctx context.Context, cookie string) (*domain.Session, error) {
	if cookie == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(cookie, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || claims.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	sess, err := s.sessions.Load(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return nil, err
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func (s *AuthService) IssueCookie(sess *domain.Session) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:       sess.ID,
		Subject:  sess.User.Username,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl := s.sessions.TTL(sess); ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}
