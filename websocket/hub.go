// Package websocket - websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go-model-viewer/logger"
	"go-model-viewer/models"
)

// EntryLister supplies the model names sent to viewers.
type EntryLister interface {
	ListEntries() ([]models.ModelEntry, error)
}

// Hub tracks live viewer connections and fans broadcasts out to them.
type Hub struct {
	catalog EntryLister
	metrics MetricsPublisher

	mu          sync.Mutex
	connections map[*Connection]bool
	broadcast   chan []byte
}

// NewHub creates a hub. A nil metrics publisher disables metrics.
func NewHub(catalog EntryLister, metrics MetricsPublisher) *Hub {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Hub{
		catalog:     catalog,
		metrics:     metrics,
		connections: make(map[*Connection]bool),
		broadcast:   make(chan []byte, 16),
	}
}

// HandleMessages listens for messages on the broadcast channel and distributes them
// to connections until ctx is done.
func (h *Hub) HandleMessages(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Info.Println("[HandleMessages] Stopping broadcast loop")
			return
		case msg := <-h.broadcast:
			// held across the fan-out so unregister cannot close a send channel mid-send
			h.mu.Lock()
			for c := range h.connections {
				c.enqueue(msg)
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastMessage marshals msg and queues it for every connection.
func (h *Hub) BroadcastMessage(msg models.ServerMessage) {
	out, err := json.Marshal(msg)
	if err != nil {
		logger.Error.Printf("[BroadcastMessage] Error marshalling message: %v", err)
		return
	}
	h.BroadcastRaw(out)
	logger.Info.Printf("[BroadcastMessage] action=%s sent to %d connections", msg.Action, h.Count())
}

// BroadcastRaw queues raw bytes for every connection.
func (h *Hub) BroadcastRaw(msg []byte) {
	h.broadcast <- msg
}

// sendTo queues msg for c alone, skipping connections already unregistered.
func (h *Hub) sendTo(c *Connection, msg []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; !ok {
		logger.Debug.Printf("[sendTo] Connection %v already closed, reply dropped", c.conn.RemoteAddr())
		return false
	}
	return c.enqueue(msg)
}

// CloseAll disconnects every viewer; each write pump sends a close frame on its way out.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.connections))
	for c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		h.unregister(c)
	}
}

// Count is the number of live connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	h.connections[c] = true
	n := len(h.connections)
	h.mu.Unlock()

	logger.Info.Printf("[register] Viewer %v connected (%d live)", c.conn.RemoteAddr(), n)
	h.metrics.PublishViewerConnections(n)
}

// unregister removes c and closes its send channel so the write pump exits.
func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	if _, ok := h.connections[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.connections, c)
	close(c.send)
	n := len(h.connections)
	h.mu.Unlock()

	logger.Info.Printf("[unregister] Viewer %v disconnected (%d live)", c.conn.RemoteAddr(), n)
	h.metrics.PublishViewerConnections(n)
}
