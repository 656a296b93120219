// Package realtime serves the websocket chat channel and tracks open
// connections per client.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Conn is the subset of *websocket.Conn the manager needs.
type Conn interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// SessionManager tracks open websocket connections. A client may hold several
// connections, one per browser tab.
type SessionManager struct {
	mu     sync.RWMutex
	active map[string]map[string]Conn
	onSize func(total int)
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		active: make(map[string]map[string]Conn),
	}
}

// OnSizeChange registers a callback invoked with the total number of open
// connections after every change.
func (m *SessionManager) OnSizeChange(fn func(total int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSize = fn
}

// GetActive returns the connection registered for a client and connection ID.
func (m *SessionManager) GetActive(clientID, connID string) Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if conns, ok := m.active[clientID]; ok {
		return conns[connID]
	}
	return nil
}

// Count returns the total number of open connections.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countLocked()
}

func (m *SessionManager) countLocked() int {
	n := 0
	for _, conns := range m.active {
		n += len(conns)
	}
	return n
}

func (m *SessionManager) notifyLocked() {
	if m.onSize != nil {
		m.onSize(m.countLocked())
	}
}

// Register adds a connection for a client. A connection already registered
// under the same ID is closed and replaced.
func (m *SessionManager) Register(clientID, connID string, conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[clientID]; !exists {
		m.active[clientID] = make(map[string]Conn)
	}

	if existing, exists := m.active[clientID][connID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "connection replaced")
	}

	m.active[clientID][connID] = conn
	m.notifyLocked()
	slog.Info("Chat socket registered", "client_id", clientID, "conn_id", connID)
}

// Unregister removes a connection if it is still the one registered.
func (m *SessionManager) Unregister(clientID, connID string, conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conns, ok := m.active[clientID]; ok {
		if current, exists := conns[connID]; exists && current == conn {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(m.active, clientID)
			}
			m.notifyLocked()
			slog.Info("Chat socket unregistered", "client_id", clientID, "conn_id", connID)
		}
	}
}

// CloseSession closes every connection of a client. Connections are closed
// outside the lock so their handlers can unregister.
func (m *SessionManager) CloseSession(clientID string) {
	m.mu.Lock()
	conns, ok := m.active[clientID]
	if ok {
		delete(m.active, clientID)
		m.notifyLocked()
	}
	m.mu.Unlock()

	for id, conn := range conns {
		_ = conn.Close(websocket.StatusNormalClosure, "session closed")
		slog.Info("Chat socket closed", "client_id", clientID, "conn_id", id)
	}
}

// Broadcast sends v as JSON to every connection of a client. It returns the
// number of connections written to.
func (m *SessionManager) Broadcast(ctx context.Context, clientID string, v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("failed to marshal broadcast", "error", err, "client_id", clientID)
		return 0
	}

	m.mu.RLock()
	conns := make([]Conn, 0, len(m.active[clientID]))
	for _, c := range m.active[clientID] {
		conns = append(conns, c)
	}
	m.mu.RUnlock()

	sent := 0
	for _, c := range conns {
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("Chat socket write failed", "error", err, "client_id", clientID)
			continue
		}
		sent++
	}
	return sent
}
