package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/pipeline"
)

// WSHub manages websocket subscribers to the pipeline event feed
type WSHub struct {
	upgrader websocket.Upgrader
	conns    map[*websocket.Conn]struct{}
	mu       sync.Mutex
	log      *zap.SugaredLogger
}

// NewWSHub creates a websocket hub
func NewWSHub(log *zap.SugaredLogger) *WSHub {
	return &WSHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API is operator-facing on a trusted network.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
		log:   log,
	}
}

// Handler upgrades the request and keeps the connection subscribed
// until the peer goes away.
func (h *WSHub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warnw("websocket upgrade failed", "error", err)
			return
		}

		h.mu.Lock()
		h.conns[conn] = struct{}{}
		h.mu.Unlock()

		// Drain the read side to notice the close handshake.
		go func() {
			defer h.drop(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// Broadcast sends a pipeline event to every subscriber. Write failures
// drop the connection.
func (h *WSHub) Broadcast(e pipeline.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(e); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *WSHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.Close()
	delete(h.conns, conn)
}
