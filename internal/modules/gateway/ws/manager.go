// Package ws manages client WebSocket connections for the gateway.
package ws

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Razorrag/reddy-anna-sub005/pkg/logger"
)

type CloseReason string

const (
	ReasonWriteError CloseReason = "write_error"
	ReasonPingError  CloseReason = "ping_error"
	ReasonReadError  CloseReason = "read_error"
	ReasonReplaced   CloseReason = "replaced_by_new_connection"
	ReasonShutdown   CloseReason = "server_shutdown"
	ReasonBufferFull CloseReason = "buffer_full"
	ReasonTimeout    CloseReason = "timeout"
)

// Connection represents one client's WebSocket connection. It is ephemeral:
// created on connect, destroyed on disconnect, holding only a read cursor
// (StateVersion) into the broadcast stream.
type Connection struct {
	UserID int64
	Role   string
	Conn   *websocket.Conn
	Send   chan []byte

	stateVersion atomic.Uint64

	manager   *Manager
	closeOnce sync.Once
}

// SetStateVersion records the last state version delivered to this client,
// set to the snapshot's version on (re)connect.
func (c *Connection) SetStateVersion(v uint64) {
	c.stateVersion.Store(v)
}

// StateVersion returns the last delivered state version
func (c *Connection) StateVersion() uint64 {
	return c.stateVersion.Load()
}

// Manager manages all WebSocket connections
type Manager struct {
	clients    map[int64]*Connection
	register   chan *Connection
	unregister chan *Connection
	mu         sync.RWMutex
}

// NewManager creates a new connection manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[int64]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
	}
}

// Register registers a new connection. A reconnecting user replaces their
// old connection; the new one gets a fresh snapshot before any deltas.
func (m *Manager) Register(conn *websocket.Conn, userID int64, role string) *Connection {
	c := &Connection{
		UserID:  userID,
		Role:    role,
		Conn:    conn,
		Send:    make(chan []byte, 1024),
		manager: m,
	}
	m.register <- c
	return c
}

// Run starts the manager loop
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			if old, ok := m.clients[client.UserID]; ok {
				old.CloseWithReason(ReasonReplaced, nil)
			}
			m.clients[client.UserID] = client
			m.mu.Unlock()

		case client := <-m.unregister:
			m.mu.Lock()
			// Only drop the registry entry while it still points at this
			// connection; a replacement may already be in place.
			if cur, ok := m.clients[client.UserID]; ok && cur == client {
				delete(m.clients, client.UserID)
			}
			m.mu.Unlock()
			client.CloseWithReason(ReasonShutdown, nil)
		}
	}
}

// Broadcast sends a message to all connected clients. Per-connection
// delivery is independent and best-effort: a full buffer drops that client
// instead of blocking the rest.
func (m *Manager) Broadcast(message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		select {
		case client.Send <- message:
		default:
			client.CloseWithReason(ReasonBufferFull, nil)
			// Cannot delete under RLock; the unregister path cleans up
		}
	}
}

// SendToRole sends a message to every connection holding the given role
func (m *Manager) SendToRole(role string, message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		if client.Role != role {
			continue
		}
		select {
		case client.Send <- message:
		default:
			client.CloseWithReason(ReasonBufferFull, nil)
		}
	}
}

// SendToUser sends a message to a specific user. It never blocks the
// caller: the session event loop sits behind this call, and one stalled
// client must not hold up delivery to everyone else.
func (m *Manager) SendToUser(userID int64, message []byte) {
	m.mu.RLock()
	client, ok := m.clients[userID]
	m.mu.RUnlock()

	if !ok {
		return
	}
	select {
	case client.Send <- message:
		return
	default:
	}

	// Buffer full. Grace-wait off the caller's goroutine before declaring
	// the client too slow.
	go func() {
		select {
		case client.Send <- message:
		case <-time.After(5 * time.Second):
			client.CloseWithReason(ReasonTimeout, nil)
		}
	}()
}

// Shutdown closes all connections
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		client.CloseWithReason(ReasonShutdown, nil)
	}
}

// CloseWithReason closes the connection with a reason
func (c *Connection) CloseWithReason(r CloseReason, err error) {
	c.closeOnce.Do(func() {
		logger.Info(context.Background()).
			Int64("user_id", c.UserID).
			Str("role", c.Role).
			Str("reason", string(r)).
			Err(err).
			Msg("ws connection closed")
		c.Conn.Close()
	})
}

// WritePump pumps messages from the send buffer to the websocket
func (c *Connection) WritePump() {
	ticker := time.NewTicker(54 * time.Second) // ping period
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.CloseWithReason(ReasonWriteError, err)
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				c.CloseWithReason(ReasonWriteError, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.CloseWithReason(ReasonPingError, err)
				return
			}
		}
	}
}

// ReadPump pumps messages from the websocket to the handler
func (c *Connection) ReadPump(handleMessage func(*Connection, []byte)) {
	var readErr error
	defer func() {
		c.manager.unregister <- c
		c.CloseWithReason(ReasonReadError, readErr)
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second)) // pong wait
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				readErr = err
			}
			break
		}
		handleMessage(c, message)
	}
}
