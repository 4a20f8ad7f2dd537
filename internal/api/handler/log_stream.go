package handler

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/core/domain"
)

const (
	streamWriteWait    = 10 * time.Second
	streamPingInterval = 30 * time.Second
	streamPongWait     = 2 * streamPingInterval
)

// streamMessage is one frame on the live log socket.
type streamMessage struct {
	Type  string            `json:"type"`
	Entry *domain.LogEntry  `json:"entry,omitempty"`
	Logs  []domain.LogEntry `json:"logs,omitempty"`
}

// LogStreamHandler pushes newly polled log entries over a websocket.
type LogStreamHandler struct {
	workspaces WorkspaceSource
	upgrader   websocket.Upgrader
	log        zerolog.Logger
}

func NewLogStreamHandler(workspaces WorkspaceSource, log zerolog.Logger) *LogStreamHandler {
	return &LogStreamHandler{
		workspaces: workspaces,
		upgrader:   websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096},
		log:        log,
	}
}

// Stream opens the live log socket. The first frame is a snapshot of the
// most recent cached entries; every later "log" frame is one new entry.
// The socket holds the session's poller open; polling stops with the last
// socket unless the operator switched real time on.
//
// @Summary      Live log stream
// @Tags         logs
// @Success      101
// @Failure      401  {object}  errorResponse
// @Router       /api/logs/stream [get]
func (h *LogStreamHandler) Stream(c echo.Context) error {
	ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already answered the client.
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}
	defer conn.Close()

	entries, unsubscribe := ws.Logs.Subscribe()
	defer unsubscribe()
	ws.Logs.Acquire()
	defer ws.Logs.Release()

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	if err := h.write(conn, streamMessage{Type: "snapshot", Logs: ws.Logs.Recent()}); err != nil {
		return nil
	}

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return nil
		case <-ws.Context().Done():
			h.close(conn, websocket.CloseNormalClosure, "session ended")
			return nil
		case entry, ok := <-entries:
			if !ok {
				h.close(conn, websocket.CloseGoingAway, "stream closed")
				return nil
			}
			if err := h.write(conn, streamMessage{Type: "log", Entry: &entry}); err != nil {
				return nil
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

// readLoop drains client frames so control messages are processed, and
// signals when the peer goes away.
func (h *LogStreamHandler) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Debug().Err(err).Msg("log stream read error")
			}
			return
		}
	}
}

func (h *LogStreamHandler) write(conn *websocket.Conn, msg streamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Debug().Err(err).Msg("log stream write error")
		return err
	}
	return nil
}

func (h *LogStreamHandler) close(conn *websocket.Conn, code int, reason string) {
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(streamWriteWait))
}
