// Package broadcast fans out match updates to WebSocket and SSE clients.
package broadcast

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub manages broadcasting match updates to WebSocket and SSE clients.
// Payloads are pre-marshaled JSON so every subscriber sees the same bytes.
type Hub struct {
	wsClients  map[string]map[*websocket.Conn]bool
	sseClients map[string]map[chan []byte]bool
	mu         sync.RWMutex
}

// NewHub creates a new broadcast hub.
func NewHub() *Hub {
	return &Hub{
		wsClients:  make(map[string]map[*websocket.Conn]bool),
		sseClients: make(map[string]map[chan []byte]bool),
	}
}

// RegisterWS adds a WebSocket connection for a match.
func (h *Hub) RegisterWS(matchID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.wsClients[matchID] == nil {
		h.wsClients[matchID] = make(map[*websocket.Conn]bool)
	}
	h.wsClients[matchID][conn] = true
}

// UnregisterWS removes a WebSocket connection for a match.
func (h *Hub) UnregisterWS(matchID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.wsClients[matchID], conn)
}

// RegisterSSE adds an SSE channel for a match.
func (h *Hub) RegisterSSE(matchID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sseClients[matchID] == nil {
		h.sseClients[matchID] = make(map[chan []byte]bool)
	}
	h.sseClients[matchID][ch] = true
}

// UnregisterSSE removes an SSE channel for a match and closes it.
func (h *Hub) UnregisterSSE(matchID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sseClients[matchID], ch)
	close(ch)
}

// Broadcast sends a match update to all connected WebSocket and SSE
// clients. Slow SSE subscribers are skipped rather than blocked on.
func (h *Hub) Broadcast(matchID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.wsClients[matchID] {
		conn.WriteMessage(websocket.TextMessage, payload)
	}
	for ch := range h.sseClients[matchID] {
		select {
		case ch <- payload:
		default:
		}
	}
}
