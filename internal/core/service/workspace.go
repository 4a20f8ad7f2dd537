package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/api/metrics"
	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

// APIs bundles the backend surfaces a workspace's stores talk to.
type APIs struct {
	Printers ports.PrinterAPI
	Jobs     ports.JobAPI
	Logs     ports.LogAPI
}

// Workspace is one operator session's state: its printer, job and log caches.
type Workspace struct {
	Printers *PrinterStore
	Jobs     *JobStore
	Logs     *LogStore

	ctx     context.Context
	cancel  context.CancelFunc
	session atomic.Pointer[domain.Session]
}

// Context carries the current session and ends when the workspace is dropped.
// Background work such as the log poller runs under it.
func (w *Workspace) Context() context.Context {
	return domain.WithSession(w.ctx, w.session.Load())
}

// Session returns the session the workspace currently acts as.
func (w *Workspace) Session() *domain.Session {
	return w.session.Load()
}

func (w *Workspace) close() {
	w.Logs.Close()
	w.cancel()
}

// Workspaces is the per-session registry. Workspaces are created on first
// use and dropped on logout or when the backend rejects the session.
type Workspaces struct {
	apis   APIs
	reader Reader
	logCfg LogStoreConfig
	log    zerolog.Logger

	mu sync.Mutex
	m  map[string]*Workspace
}

func NewWorkspaces(apis APIs, reader Reader, logCfg LogStoreConfig, log zerolog.Logger) *Workspaces {
	return &Workspaces{apis: apis, reader: reader, logCfg: logCfg, log: log, m: make(map[string]*Workspace)}
}

// Get returns the workspace of s, creating it if needed, and records s as
// its current session so refreshed tokens reach background work.
func (ws *Workspaces) Get(s *domain.Session) *Workspace {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if w, ok := ws.m[s.ID]; ok {
		w.session.Store(s)
		return w
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Workspace{ctx: ctx, cancel: cancel}
	w.session.Store(s)
	log := ws.log.With().Str("session_id", s.ID).Str("username", s.User.Username).Logger()
	w.Printers = NewPrinterStore(ws.apis.Printers, ws.reader)
	w.Jobs = NewJobStore(ws.apis.Jobs, ws.reader)
	w.Logs = NewLogStore(ws.apis.Logs, ws.reader, ws.logCfg, w.Context, log)

	ws.m[s.ID] = w
	metrics.ActiveSessions.Set(float64(len(ws.m)))
	log.Debug().Msg("workspace created")
	return w
}

// Lookup returns an existing workspace without creating one.
func (ws *Workspaces) Lookup(sessionID string) (*Workspace, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.m[sessionID]
	return w, ok
}

// Drop stops the workspace's background work and forgets it.
func (ws *Workspaces) Drop(sessionID string) {
	ws.mu.Lock()
	w, ok := ws.m[sessionID]
	delete(ws.m, sessionID)
	metrics.ActiveSessions.Set(float64(len(ws.m)))
	ws.mu.Unlock()
	if ok {
		w.close()
	}
}

// Close drops every workspace.
func (ws *Workspaces) Close() {
	ws.mu.Lock()
	all := ws.m
	ws.m = make(map[string]*Workspace)
	metrics.ActiveSessions.Set(0)
	ws.mu.Unlock()
	for _, w := range all {
		w.close()
	}
}

func (ws *Workspaces) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.m)
}
