package notification

import (
	"sync"
	"time"

	"cleanservice/internal/domain"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Event is what the hub writes to a staff member's socket.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	EventNotification = "notification"
	EventUnreadCount  = "unread_count"
	EventPong         = "pong"
)

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Hub keeps one live socket per staff member. A new connection replaces the old one.
type Hub struct {
	connections map[int64]*client
	mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]*client),
	}
}

func (h *Hub) Register(staffID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if old, exists := h.connections[staffID]; exists && old.conn != conn {
		_ = old.conn.Close()
	}
	h.connections[staffID] = &client{conn: conn}
}

// Unregister drops conn if it is still the staff member's current socket.
func (h *Hub) Unregister(staffID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if c, exists := h.connections[staffID]; exists && c.conn == conn {
		_ = c.conn.Close()
		delete(h.connections, staffID)
	}
}

func (h *Hub) SendToStaff(staffID int64, event Event) bool {
	h.mutex.RLock()
	c, exists := h.connections[staffID]
	h.mutex.RUnlock()

	if !exists {
		return false
	}
	if err := c.write(event); err != nil {
		h.Unregister(staffID, c.conn)
		return false
	}
	return true
}

// Push delivers freshly created notifications to whoever is online.
func (h *Hub) Push(notifications []*domain.AssignmentNotification) {
	for _, n := range notifications {
		if n.StaffID == nil {
			continue
		}
		h.SendToStaff(*n.StaffID, Event{Type: EventNotification, Data: n})
	}
}

// Ping sends a ping frame on conn while it is still the staff member's socket.
func (h *Hub) Ping(staffID int64, conn *websocket.Conn) bool {
	h.mutex.RLock()
	c, exists := h.connections[staffID]
	h.mutex.RUnlock()

	if !exists || c.conn != conn {
		return false
	}
	if err := c.ping(); err != nil {
		h.Unregister(staffID, conn)
		return false
	}
	return true
}

func (h *Hub) IsOnline(staffID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.connections[staffID]
	return exists
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for staffID, c := range h.connections {
		_ = c.conn.Close()
		delete(h.connections, staffID)
	}
}
