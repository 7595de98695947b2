package websocket

import (
	"sync"

	"campus-rides/pkg/logger"
)

// Manager tracks the active WebSocket connection per user. Notification
// dispatch uses it to push messages to users who are currently online.
type Manager struct {
	connections map[string]*Connection // user_id -> connection
	mu          sync.RWMutex
	log         logger.Logger
}

// NewManager creates a new WebSocket manager
func NewManager(log logger.Logger) *Manager {
	return &Manager{
		connections: make(map[string]*Connection),
		log:         log,
	}
}

// AddConnection registers a new connection
func (m *Manager) AddConnection(userID string, conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Close existing connection if any
	if existing, ok := m.connections[userID]; ok {
		existing.Close()
		m.log.WithFields(logger.LogFields{
			"user_id": userID,
		}).Info("websocket_replaced", "Replacing existing connection")
	}

	m.connections[userID] = conn
	m.log.WithFields(logger.LogFields{
		"user_id": userID,
		"total":   len(m.connections),
	}).Info("websocket_connected", "New connection added")
}

// RemoveConnection removes a connection
func (m *Manager) RemoveConnection(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, ok := m.connections[userID]; ok {
		conn.Close()
		delete(m.connections, userID)
		m.log.WithFields(logger.LogFields{
			"user_id": userID,
			"total":   len(m.connections),
		}).Info("websocket_disconnected", "Connection removed")
	}
}

// SendToUser sends a message to a specific user. A user without an open
// connection is not an error; the message is simply dropped here (the
// persisted notification remains the source of truth).
func (m *Manager) SendToUser(userID string, message interface{}) error {
	m.mu.RLock()
	conn, ok := m.connections[userID]
	m.mu.RUnlock()

	if !ok {
		return nil
	}

	if err := conn.WriteJSON(message); err != nil {
		m.log.WithFields(logger.LogFields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("websocket_send_failed", err)
		// Remove dead connection
		m.RemoveConnection(userID)
		return err
	}

	return nil
}

// GetConnectionCount returns the number of active connections
func (m *Manager) GetConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// IsUserConnected checks if a user is connected
func (m *Manager) IsUserConnected(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.connections[userID]
	return ok
}
