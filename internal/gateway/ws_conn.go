package gateway

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512 * 1024
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsConn wraps a websocket with a write mutex so transcription callbacks
// and the command loop never interleave frames. It doubles as the
// dictation observer, pushing live events straight to the client.
type wsConn struct {
	ws  *websocket.Conn
	log *slog.Logger

	mu     sync.Mutex
	closed bool
}

func newWSConn(ws *websocket.Conn, log *slog.Logger) *wsConn {
	return &wsConn{ws: ws, log: log}
}

func (c *wsConn) sendEvent(ev ServerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(ev); err != nil {
		c.log.Debug("websocket write failed", "event", ev.Type, "error", err)
	}
}

func (c *wsConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	_ = c.ws.Close()
}

func (c *wsConn) OnTranscriptUpdate(text string, isFinal bool) {
	c.sendEvent(ServerEvent{Type: EventTranscript, Text: text, IsFinal: isFinal})
}

func (c *wsConn) OnUtteranceEnd() {
	c.sendEvent(ServerEvent{Type: EventUtteranceEnd})
}
