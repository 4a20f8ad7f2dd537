package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

// Persistence routes each session to a scope by its Remember flag:
// persistent for "remember me", ephemeral otherwise. Load consults both so a
// session id never needs to carry its scope.
type Persistence struct {
	persistent   ports.SessionStore
	ephemeral    ports.SessionStore
	rememberTTL  time.Duration
	ephemeralTTL time.Duration
	log          zerolog.Logger
}

// NewPersistence wires the two scopes. When persistent is nil every session
// lands in the ephemeral scope.
func NewPersistence(persistent, ephemeral ports.SessionStore, rememberTTL, ephemeralTTL time.Duration, log zerolog.Logger) *Persistence {
	return &Persistence{
		persistent:   persistent,
		ephemeral:    ephemeral,
		rememberTTL:  rememberTTL,
		ephemeralTTL: ephemeralTTL,
		log:          log,
	}
}

var _ ports.SessionPersistence = (*Persistence)(nil)

func (p *Persistence) scope(s *domain.Session) ports.SessionStore {
	if s.Remember && p.persistent != nil {
		return p.persistent
	}
	return p.ephemeral
}

func (p *Persistence) TTL(s *domain.Session) time.Duration {
	if s.Remember {
		return p.rememberTTL
	}
	return p.ephemeralTTL
}

// Save writes s to its scope and removes any stale copy from the other one,
// so a session lives in exactly one scope.
func (p *Persistence) Save(ctx context.Context, s *domain.Session) error {
	target := p.scope(s)
	if err := target.Save(ctx, s, p.TTL(s)); err != nil {
		return err
	}
	for _, other := range p.scopes() {
		if other == target {
			continue
		}
		if err := other.Delete(ctx, s.ID); err != nil {
			p.log.Warn().Err(err).Str("session_id", s.ID).Msg("failed to drop session from other scope")
		}
	}
	return nil
}

// Load returns the session from whichever scope holds it.
func (p *Persistence) Load(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrUnauthenticated
	}
	var lastErr error
	for _, st := range p.scopes() {
		s, err := st.Get(ctx, id)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, domain.ErrUnauthenticated) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, domain.ErrUnauthenticated
}

// Delete clears the session from both scopes.
func (p *Persistence) Delete(ctx context.Context, id string) error {
	var errs []error
	for _, st := range p.scopes() {
		if err := st.Delete(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Persistence) scopes() []ports.SessionStore {
	if p.persistent == nil {
		return []ports.SessionStore{p.ephemeral}
	}
	return []ports.SessionStore{p.ephemeral, p.persistent}
}
