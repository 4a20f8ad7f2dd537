// Package session holds the in-process session scope and the strategy that
// chooses between it and the persistent one.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

type memoryEntry struct {
	session   domain.Session
	expiresAt time.Time
}

// MemoryStore is the ephemeral scope: sessions vanish when the process exits
// or their TTL elapses. Expired entries are dropped lazily on Get and by Sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

var _ ports.SessionStore = (*MemoryStore)(nil)

// Save stores a copy of s. A non-positive ttl never expires.
func (m *MemoryStore) Save(_ context.Context, s *domain.Session, ttl time.Duration) error {
	e := memoryEntry{session: *s}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[s.ID] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	if m.expired(e) {
		m.mu.Lock()
		if cur, ok := m.entries[id]; ok && m.expired(cur) {
			delete(m.entries, id)
		}
		m.mu.Unlock()
		return nil, domain.ErrUnauthenticated
	}
	s := e.session
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

// Len counts stored entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}
