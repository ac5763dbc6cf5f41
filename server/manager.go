package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
)

// ConnManager tracks the live websocket per user so out-of-band frames
// (session creation, voice transcriptions) can be pushed. One connection
// per user; a newer connection displaces the older one.
type ConnManager struct {
	mu    sync.RWMutex
	conns map[string]*websocket.Conn
}

func NewConnManager() *ConnManager {
	return &ConnManager{conns: make(map[string]*websocket.Conn)}
}

func (m *ConnManager) Register(userID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[userID] = conn
}

// Unregister removes the mapping only if conn is still the registered
// connection, so a reconnect does not evict its successor.
func (m *ConnManager) Unregister(userID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conns[userID] == conn {
		delete(m.conns, userID)
	}
}

func (m *ConnManager) IsConnected(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.conns[userID]
	return ok
}

// Push sends a frame to the user's connection if one is live. A missing
// connection is not an error; push frames are best effort.
func (m *ConnManager) Push(ctx context.Context, userID string, frame any) error {
	m.mu.RLock()
	conn := m.conns[userID]
	m.mu.RUnlock()
	if conn == nil {
		return nil
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
