// internal/ws/hub.go
package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"scribe-api/internal/common/logger"
	"scribe-api/internal/common/metrics"
)

// Hub fans job status updates out to browser connections. Rooms are keyed
// by username; a user may have several tabs open.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*websocket.Conn]*client
	logger logger.Logger
}

// client serializes writes to one connection. Gorilla websocket allows at
// most one concurrent writer per connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// NewHub returns an empty hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*websocket.Conn]*client),
		logger: log.WithFields(map[string]interface{}{"component": "ws"}),
	}
}

// Register adds a connection to a user's room.
func (h *Hub) Register(username string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[username]; !ok {
		h.rooms[username] = make(map[*websocket.Conn]*client)
	}
	h.rooms[username][conn] = &client{conn: conn}

	metrics.WebsocketSessions.WithLabelValues("status").Inc()
	h.logger.Debug("connection registered", map[string]interface{}{
		"username":    username,
		"connections": len(h.rooms[username]),
	})
}

// Unregister removes and closes a connection, dropping the room when it
// empties.
func (h *Hub) Unregister(username string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[username]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
		metrics.WebsocketSessions.WithLabelValues("status").Dec()
	}
	if len(conns) == 0 {
		delete(h.rooms, username)
	}
}

// SendToUser delivers a message to every connection in a user's room.
// The room is snapshotted first so a slow socket never holds the hub
// lock; each connection's own lock serializes concurrent sends.
func (h *Hub) SendToUser(username string, msg []byte) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.rooms[username]))
	for _, c := range h.rooms[username] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(msg); err != nil {
			h.logger.WithError(err).Warn("failed to deliver status update", map[string]interface{}{
				"username": username,
			})
		}
	}
}

// Connections reports how many connections a user currently has.
func (h *Hub) Connections(username string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[username])
}

// Upgrader upgrades HTTP requests to websocket connections. Origin checks
// are left to the CORS layer.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
