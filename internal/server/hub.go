package server

import (
	"sync"
)

// Hub tracks the open WebSocket connections.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*conn
}

func newHub() *Hub {
	return &Hub{conns: make(map[string]*conn)}
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]*conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	return conns
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// IDs returns the IDs of the open connections.
func (h *Hub) IDs() []string {
	conns := h.snapshot()
	ids := make([]string, len(conns))
	for i, c := range conns {
		ids[i] = c.id
	}
	return ids
}

// Broadcast queues f on every open connection.
func (h *Hub) Broadcast(f Frame) {
	for _, c := range h.snapshot() {
		c.enqueue(f)
	}
}

// CloseAll closes every connection.
func (h *Hub) CloseAll() {
	for _, c := range h.snapshot() {
		c.close("server shutting down")
	}
}
