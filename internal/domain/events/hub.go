// Package events pushes catalog changes to connected browsers over
// websockets. Delivery is best effort: slow connections drop events.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"foldervault/internal/domain/access"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

const (
	FolderCreated      = "folder_created"
	FolderRenamed      = "folder_renamed"
	FolderDeleted      = "folder_deleted"
	PermissionsUpdated = "permissions_updated"
	FilesUploaded      = "files_uploaded"
	FileDeleted        = "file_deleted"
)

type Event struct {
	Type     string    `json:"type"`
	FolderID string    `json:"folder_id"`
	FileIDs  []string  `json:"file_ids,omitempty"`
	At       time.Time `json:"at"`
}

type connection struct {
	caller access.Caller
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks live connections. A user may hold several at once.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
}

func NewHub() *Hub {
	return &Hub{connections: make(map[*connection]struct{})}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// Publish sends ev to every admin and to the listed users.
func (h *Hub) Publish(ev Event, audience []int64) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	allowed := make(map[int64]bool, len(audience))
	for _, id := range audience {
		allowed[id] = true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		if !c.caller.IsAdmin() && !allowed[c.caller.UserID] {
			continue
		}
		select {
		case c.send <- data:
		default:
			log.Warn().Int64("user_id", c.caller.UserID).Str("event", ev.Type).Msg("events: dropping event for slow connection")
		}
	}
}

// Connected reports how many connections are open.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Serve registers conn for caller and blocks until it disconnects.
func (h *Hub) Serve(conn *websocket.Conn, caller access.Caller) {
	c := &connection{
		caller: caller,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// readPump only services control frames; clients have nothing to say.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
