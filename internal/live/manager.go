// Package live serves the WebSocket chat surface.
package live

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Manager tracks the active WebSocket connection of each session.
type Manager struct {
	mu     sync.RWMutex
	active map[string]*websocket.Conn
}

// NewManager creates a new connection manager.
func NewManager() *Manager {
	return &Manager{
		active: make(map[string]*websocket.Conn),
	}
}

// GetActive returns the active connection for a session.
func (m *Manager) GetActive(sessionID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[sessionID]
}

// Register makes conn the session's connection. Any previous connection
// is closed in the background.
func (m *Manager) Register(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	existing, exists := m.active[sessionID]
	m.active[sessionID] = conn
	m.mu.Unlock()

	if exists && existing != conn {
		go closeConn(existing, sessionID, websocket.StatusNormalClosure, "session replaced")
	}
	slog.Info("Live session registered", "session_id", sessionID)
}

// Unregister removes conn if it is still the session's connection.
func (m *Manager) Unregister(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.active[sessionID]; exists && current == conn {
		delete(m.active, sessionID)
		slog.Info("Live session unregistered", "session_id", sessionID)
	}
}

// CloseSession terminates the session's connection, if any. The close
// handshake runs in the background.
func (m *Manager) CloseSession(sessionID string) {
	m.mu.Lock()
	conn, ok := m.active[sessionID]
	delete(m.active, sessionID)
	m.mu.Unlock()

	if ok {
		go closeConn(conn, sessionID, websocket.StatusNormalClosure, "session expired")
	}
}

// Count returns the number of active connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// CloseAll terminates every connection and waits for the close
// handshakes, which run in parallel. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	active := m.active
	m.active = make(map[string]*websocket.Conn)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for sessionID, conn := range active {
		wg.Add(1)
		go func() {
			defer wg.Done()
			closeConn(conn, sessionID, websocket.StatusGoingAway, "server shutting down")
		}()
	}
	wg.Wait()
}

// closeConn may block until the peer answers the close frame or the
// library's handshake timeout passes.
func closeConn(conn *websocket.Conn, sessionID string, code websocket.StatusCode, reason string) {
	if err := conn.Close(code, reason); err != nil {
		slog.Debug("Live session close handshake failed", "error", err, "session_id", sessionID)
	}
	slog.Info("Live session closed", "session_id", sessionID, "reason", reason)
}
