// Package websocket provides the model server's WebSocket endpoint and connection handling.
// file: websocket/connection.go
package websocket

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go-model-viewer/logger"
	"go-model-viewer/models"
)

// WSConn is an interface for the WebSocket connection.
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	ReadMessage() (int, []byte, error)
	Close() error
	RemoteAddr() net.Addr
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
}

// Connection represents a single WebSocket connection for one viewer.
type Connection struct {
	conn WSConn
	send chan []byte
	hub  *Hub
}

// Configuration constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2048
	sendBuffer     = 256
)

// upgrader accepts any origin; viewers are anonymous and read-only.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// IsUpgradeRequest reports whether r asks for a WebSocket upgrade.
func IsUpgradeRequest(r *http.Request) bool {
	return websocket.IsWebSocketUpgrade(r)
}

// ServeWs upgrades the HTTP request to a WebSocket connection and starts the read and write pumps.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	logger.Info.Printf("[ServeWs] Upgrading to WS: remoteAddr=%v", r.RemoteAddr)
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written an HTTP error
		logger.Error.Printf("[ServeWs] WebSocket upgrade error: %v", err)
		return
	}

	c := newConnection(h, wsConn)
	h.register(c)

	go c.readPump()
	go c.writePump()
}

func newConnection(h *Hub, conn WSConn) *Connection {
	return &Connection{conn: conn, send: make(chan []byte, sendBuffer), hub: h}
}

// readPump handles inbound messages from the viewer.
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn.Printf("[readPump] Read error from %v: %v", c.conn.RemoteAddr(), err)
			} else {
				logger.Debug.Printf("[readPump] Connection from %v closed: %v", c.conn.RemoteAddr(), err)
			}
			break
		}
		if messageType != websocket.TextMessage {
			logger.Debug.Printf("[readPump] Ignoring non-text messageType=%d", messageType)
			continue
		}

		var msg models.ServerMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn.Printf("[readPump] Invalid JSON from %v: %v", c.conn.RemoteAddr(), err)
			continue
		}
		c.handleIncoming(msg)
	}
}

// writePump handles outbound messages to the viewer, including periodic pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				logger.Debug.Printf("[writePump] Send channel closed for %v", c.conn.RemoteAddr())
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn.Printf("[writePump] Error writing to %v: %v", c.conn.RemoteAddr(), err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn.Printf("[writePump] Ping error for %v: %v", c.conn.RemoteAddr(), err)
				return
			}
		}
	}
}

// handleIncoming processes an inbound JSON message.
func (c *Connection) handleIncoming(msg models.ServerMessage) {
	logger.Debug.Printf("[handleIncoming] Action=%s from %v", msg.Action, c.conn.RemoteAddr())
	switch msg.Action {
	case models.ActionListModels:
		entries, err := c.hub.catalog.ListEntries()
		if err != nil {
			logger.Error.Printf("[handleIncoming] Listing models failed: %v", err)
			return
		}
		out, err := json.Marshal(models.ServerMessage{Action: models.ActionModels, Models: entries})
		if err != nil {
			logger.Error.Printf("[handleIncoming] Error marshalling models reply: %v", err)
			return
		}
		c.hub.sendTo(c, out)
	default:
		logger.Debug.Printf("[handleIncoming] Unhandled action: %s", msg.Action)
	}
}

// enqueue queues message without blocking; a full buffer drops it.
func (c *Connection) enqueue(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		logger.Warn.Printf("[enqueue] Dropping message for connection %v", c.conn.RemoteAddr())
		return false
	}
}
