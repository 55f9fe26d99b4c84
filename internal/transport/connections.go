package transport

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Connections tracks open websocket connections by session id.
type Connections struct {
	mu     sync.RWMutex
	active map[string]*websocket.Conn
}

// NewConnections creates an empty tracker.
func NewConnections() *Connections {
	return &Connections{active: make(map[string]*websocket.Conn)}
}

// get returns the connection for a session, or nil.
func (m *Connections) get(sessionID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[sessionID]
}

// Len reports the number of open connections.
func (m *Connections) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// Register adds a connection.
func (m *Connections) Register(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[sessionID] = conn
	slog.Debug("Connection registered", "session_id", sessionID)
}

// Unregister removes a connection if it is still the registered one.
func (m *Connections) Unregister(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.active[sessionID]; ok && current == conn {
		delete(m.active, sessionID)
		slog.Debug("Connection unregistered", "session_id", sessionID)
	}
}

// CloseAll closes every connection with StatusGoingAway. Hijacked
// connections are not closed by http.Server.Shutdown.
func (m *Connections) CloseAll(reason string) {
	m.mu.Lock()
	conns := m.active
	m.active = make(map[string]*websocket.Conn)
	m.mu.Unlock()

	for sid, conn := range conns {
		if err := conn.Close(websocket.StatusGoingAway, reason); err != nil {
			slog.Debug("Failed to close connection", "session_id", sid, "error", err)
		}
	}
}
