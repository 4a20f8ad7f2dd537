package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/api/middleware"
	"github.com/printproxy/console/internal/core/domain"
)

func TestLogStreamHandler_SnapshotThenEntries(t *testing.T) {
	ws := newWorkspaces(t, apisForTest())
	sess := testSession("user")
	w := ws.Get(sess)
	w.Logs.Add(domain.LogEntry{ID: "old", Level: domain.LevelInfo, Message: "started"})

	e := echo.New()
	withSession := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.SetSession(c, sess)
			return next(c)
		}
	}
	e.GET("/api/logs/stream", NewLogStreamHandler(ws, zerolog.Nop()).Stream, withSession)
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/logs/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snap streamMessage
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.Type != "snapshot" || len(snap.Logs) != 1 || snap.Logs[0].ID != "old" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !w.Logs.RealTime() {
		t.Fatalf("an open stream switches real time polling on")
	}

	w.Logs.Add(domain.LogEntry{ID: "new", Level: domain.LevelError, Message: "paper jam"})

	var msg streamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if msg.Type != "log" || msg.Entry == nil || msg.Entry.ID != "new" {
		t.Fatalf("unexpected frame: %+v", msg)
	}
}

func TestLogStreamHandler_Anonymous(t *testing.T) {
	h := NewLogStreamHandler(newWorkspaces(t, apisForTest()), zerolog.Nop())
	c, _ := newContext("GET", "/api/logs/stream", nil, nil)

	if err := h.Stream(c); domain.KindOf(err) != domain.KindAuthentication {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestLogStreamHandler_PollingOutlivesOneOfTwoSockets(t *testing.T) {
	ws := newWorkspaces(t, apisForTest())
	sess := testSession("user")
	w := ws.Get(sess)

	finished := make(chan struct{}, 2)
	h := NewLogStreamHandler(ws, zerolog.Nop())
	e := echo.New()
	e.GET("/api/logs/stream", func(c echo.Context) error {
		middleware.SetSession(c, sess)
		defer func() { finished <- struct{}{} }()
		return h.Stream(c)
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/logs/stream"
	dial := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var snap streamMessage
		if err := conn.ReadJSON(&snap); err != nil || snap.Type != "snapshot" {
			t.Fatalf("read snapshot: %+v %v", snap, err)
		}
		return conn
	}
	waitFinished := func() {
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			t.Fatalf("stream handler did not return")
		}
	}

	a := dial()
	b := dial()
	defer b.Close()

	a.Close()
	waitFinished()
	if !w.Logs.RealTime() {
		t.Fatalf("closing one socket stopped polling for the other")
	}

	w.Logs.Add(domain.LogEntry{ID: "after", Level: domain.LevelWarning, Message: "toner low"})
	var msg streamMessage
	if err := b.ReadJSON(&msg); err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if msg.Type != "log" || msg.Entry == nil || msg.Entry.ID != "after" {
		t.Fatalf("unexpected frame: %+v", msg)
	}

	b.Close()
	waitFinished()
	if w.Logs.RealTime() {
		t.Fatalf("polling should stop with the last socket")
	}
}
