package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/core/domain"
)

func TestWorkspaces_LazyCreateAndDrop(t *testing.T) {
	ws := NewWorkspaces(APIs{Printers: &stubPrinterAPI{}, Jobs: &stubJobAPI{}, Logs: &stubLogAPI{}}, testReader(),
		LogStoreConfig{PollInterval: time.Hour}, zerolog.Nop())

	s := &domain.Session{ID: "s1", Token: "t1"}
	w := ws.Get(s)
	if ws.Get(s) != w {
		t.Fatalf("expected the same workspace for the same session")
	}
	if ws.Len() != 1 {
		t.Fatalf("expected one workspace")
	}

	ws.Get(&domain.Session{ID: "s1", Token: "t2"})
	if got := domain.SessionFrom(w.Context()); got == nil || got.Token != "t2" {
		t.Fatalf("workspace context must carry the latest session")
	}

	w.Logs.EnableRealTime()
	ws.Drop("s1")
	if w.Logs.RealTime() {
		t.Fatalf("dropping a workspace must stop its poller")
	}
	if w.Context().Err() != context.Canceled {
		t.Fatalf("workspace context must end on drop")
	}
	if _, ok := ws.Lookup("s1"); ok {
		t.Fatalf("workspace should be gone")
	}
	ws.Drop("s1")
}

func TestWorkspaces_Close(t *testing.T) {
	ws := NewWorkspaces(APIs{}, testReader(), LogStoreConfig{}, zerolog.Nop())
	ws.Get(&domain.Session{ID: "a", Token: "x"})
	ws.Get(&domain.Session{ID: "b", Token: "y"})
	ws.Close()
	if ws.Len() != 0 {
		t.Fatalf("expected all workspaces dropped")
	}
}
