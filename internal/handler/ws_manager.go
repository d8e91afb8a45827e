package handler

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wsClient is one live progress connection for a user.
type wsClient struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// ConnectionManager tracks live progress connections, one per user. A new
// connection for a user replaces the old one.
type ConnectionManager struct {
	clients    map[string]*wsClient
	register   chan *wsClient
	unregister chan *wsClient
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewConnectionManager creates and starts a ConnectionManager.
func NewConnectionManager(logger *zap.Logger) *ConnectionManager {
	m := &ConnectionManager{
		clients:    make(map[string]*wsClient),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		logger:     logger.Named("ConnectionManager"),
	}
	go m.run()
	return m
}

func (m *ConnectionManager) run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			if old, ok := m.clients[client.userID]; ok {
				m.logger.Debug("Replacing existing connection", zap.String("userID", client.userID))
				close(old.send)
				_ = old.conn.Close()
			} else {
				wsConnectionsActive.Inc()
			}
			m.clients[client.userID] = client
			m.mu.Unlock()
			m.logger.Debug("Client registered", zap.String("userID", client.userID))

		case client := <-m.unregister:
			m.mu.Lock()
			// A reconnect may already have replaced this client; only the
			// current connection gets evicted.
			if current, ok := m.clients[client.userID]; ok && current == client {
				delete(m.clients, client.userID)
				close(client.send)
				wsConnectionsActive.Dec()
				m.logger.Debug("Client unregistered", zap.String("userID", client.userID))
			}
			m.mu.Unlock()
		}
	}
}

func (m *ConnectionManager) registerClient(client *wsClient) {
	m.register <- client
}

func (m *ConnectionManager) unregisterClient(client *wsClient) {
	m.unregister <- client
}

// SendToUser queues a message for the user's live connection. Returns false
// when the user is offline or the send queue is full.
func (m *ConnectionManager) SendToUser(userID string, message []byte) bool {
	m.mu.RLock()
	client, ok := m.clients[userID]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		m.logger.Warn("Send queue full, dropping message", zap.String("userID", userID))
		return false
	}
}
