package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go-model-viewer/logger"
	"go-model-viewer/models"
)

const (
	writeWait             = 10 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

// WSConn is the part of a WebSocket connection the client uses.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// DialFunc opens a WebSocket connection.
type DialFunc func(ctx context.Context, url string) (WSConn, error)

// DialWebsocket dials with gorilla's default dialer.
func DialWebsocket(ctx context.Context, url string) (WSConn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// MessageHandler routes a parsed server message.
type MessageHandler interface {
	HandleMessage(msg models.ServerMessage) error
}

// MessageHandlerFunc adapts a function to MessageHandler.
type MessageHandlerFunc func(msg models.ServerMessage) error

func (f MessageHandlerFunc) HandleMessage(msg models.ServerMessage) error { return f(msg) }

// UnroutedMessages is the default handler: routing server messages into the scene
// is not implemented.
var UnroutedMessages MessageHandler = MessageHandlerFunc(func(msg models.ServerMessage) error {
	return fmt.Errorf("route %q: %w", msg.Action, ErrNotImplemented)
})

// ConnectionOptions configures a ConnectionManager.
type ConnectionOptions struct {
	URL            string         // ws://host:port/
	Dial           DialFunc       // defaults to DialWebsocket
	Lister         ModelLister    // fetches the model list on open
	ViewModel      *ViewModel     // receives the list
	Handler        MessageHandler // defaults to UnroutedMessages
	RequestTimeout time.Duration  // list request timeout
	Notify         Observer
}

// ConnectionManager owns the single connection to the model server.
type ConnectionManager struct {
	url            string
	dial           DialFunc
	lister         ModelLister
	vm             *ViewModel
	handler        MessageHandler
	requestTimeout time.Duration
	notify         Observer

	mu         sync.Mutex
	state      models.ConnectionState
	conn       WSConn
	generation uint64
	cancel     context.CancelFunc
	closed     bool

	// Add only under mu while !closed, so Close's Wait never races a new connection.
	wg sync.WaitGroup
}

// NewConnectionManager returns a manager with no connection.
func NewConnectionManager(opts ConnectionOptions) *ConnectionManager {
	m := &ConnectionManager{
		url:            opts.URL,
		dial:           opts.Dial,
		lister:         opts.Lister,
		vm:             opts.ViewModel,
		handler:        opts.Handler,
		requestTimeout: opts.RequestTimeout,
		notify:         opts.Notify,
	}
	if m.dial == nil {
		m.dial = DialWebsocket
	}
	if m.handler == nil {
		m.handler = UnroutedMessages
	}
	if m.requestTimeout <= 0 {
		m.requestTimeout = defaultRequestTimeout
	}
	return m
}

// State reports the connection state.
func (m *ConnectionManager) State() models.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Controls reports the button states for the current connection state.
func (m *ConnectionManager) Controls() Controls {
	return controlsFor(m.State())
}

// Connect dials the server. On open it flips the buttons and fetches the model list
// in the background. It fails with ErrAlreadyConnected unless no connection exists.
func (m *ConnectionManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return fmt.Errorf("connect: %w", ErrClosed)
	}
	if m.state != models.StateNone {
		state := m.state
		m.mu.Unlock()
		err := fmt.Errorf("connect: state %s: %w", state, ErrAlreadyConnected)
		m.notify.status(LevelWarn, "Already connected", err)
		return err
	}
	m.state = models.StateConnecting
	m.mu.Unlock()

	logger.Info.Printf("[ConnectionManager.Connect] Dialing %s", m.url)
	conn, err := m.dial(ctx, m.url)
	if err != nil {
		m.mu.Lock()
		m.state = models.StateNone
		m.mu.Unlock()
		logger.Warn.Printf("[ConnectionManager.Connect] Dial %s failed: %v", m.url, err)
		err = fmt.Errorf("connect %s: %w", m.url, err)
		m.notify.status(LevelError, "Connection failed", err)
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.state = models.StateNone
		m.mu.Unlock()
		_ = conn.Close()
		return fmt.Errorf("connect: %w", ErrClosed)
	}
	m.generation++
	gen := m.generation
	m.conn = conn
	m.state = models.StateOpen
	listCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(2)
	m.mu.Unlock()

	logger.Info.Printf("[ConnectionManager.Connect] Connected to %s (generation=%d)", m.url, gen)
	m.notify.emit(ControlsEvent{Controls: controlsFor(models.StateOpen)})
	m.notify.status(LevelInfo, "Connected to "+m.url, nil)

	go m.fetchModels(listCtx, gen)
	go m.readLoop(conn, gen)
	return nil
}

// Disconnect closes the connection. It returns ErrNotConnected when there is none.
// Close handling has run by the time it returns.
func (m *ConnectionManager) Disconnect() error {
	m.mu.Lock()
	conn, gen := m.conn, m.generation
	m.mu.Unlock()

	if conn == nil {
		err := fmt.Errorf("disconnect: %w", ErrNotConnected)
		m.notify.status(LevelWarn, "Nothing to disconnect", err)
		return err
	}

	logger.Info.Printf("[ConnectionManager.Disconnect] Closing connection generation=%d", gen)
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err == nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
			logger.Debug.Printf("[ConnectionManager.Disconnect] Close frame not sent: %v", err)
		}
	}
	m.handleClose(gen, "disconnected by user")
	return nil
}

// Wait blocks until the background goroutines of all past connections have exited.
// It must not overlap a Connect call; Close handles that case.
func (m *ConnectionManager) Wait() {
	m.wg.Wait()
}

// Close disconnects if needed and waits for background work. Connect fails with
// ErrClosed afterwards.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	if m.State() == models.StateOpen {
		_ = m.Disconnect()
	}
	m.Wait()
}

func (m *ConnectionManager) fetchModels(ctx context.Context, gen uint64) {
	defer m.wg.Done()

	reqCtx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	entries, err := m.lister.ListModels(reqCtx)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug.Printf("[ConnectionManager.fetchModels] Connection closed before the list arrived")
			return
		}
		logger.Warn.Printf("[ConnectionManager.fetchModels] %v", err)
		m.notify.status(LevelError, "Could not load model list", fmt.Errorf("%w: %v", ErrListRequest, err))
		return
	}

	m.mu.Lock()
	current := m.generation == gen && m.state == models.StateOpen
	if current {
		m.vm.Replace(entries)
	}
	m.mu.Unlock()

	if !current {
		logger.Debug.Printf("[ConnectionManager.fetchModels] Dropping list for stale generation=%d", gen)
		return
	}
	logger.Info.Printf("[ConnectionManager.fetchModels] Received %d models", len(entries))
	m.vm.Refresh()
}

func (m *ConnectionManager) readLoop(conn WSConn, gen uint64) {
	defer m.wg.Done()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn.Printf("[ConnectionManager.readLoop] Read error: %v", err)
			} else {
				logger.Debug.Printf("[ConnectionManager.readLoop] Connection ended: %v", err)
			}
			break
		}
		if messageType != websocket.TextMessage {
			logger.Debug.Printf("[ConnectionManager.readLoop] Ignoring non-text messageType=%d", messageType)
			continue
		}

		var msg models.ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn.Printf("[ConnectionManager.readLoop] Invalid JSON: %v", err)
			m.notify.status(LevelWarn, "Ignored a malformed server message", fmt.Errorf("%w: %v", ErrMalformedMessage, err))
			continue
		}
		if err := m.handler.HandleMessage(msg); err != nil {
			if errors.Is(err, ErrNotImplemented) {
				logger.Debug.Printf("[ConnectionManager.readLoop] %v", err)
				continue
			}
			logger.Warn.Printf("[ConnectionManager.readLoop] Handler error: %v", err)
			m.notify.status(LevelWarn, "Message handling failed", err)
		}
	}

	m.handleClose(gen, "connection closed")
}

// handleClose runs once per connection: it resets the buttons and clears the list.
func (m *ConnectionManager) handleClose(gen uint64, reason string) {
	m.mu.Lock()
	if m.generation != gen || m.conn == nil {
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.conn = nil
	m.state = models.StateClosed
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()

	_ = conn.Close()

	m.mu.Lock()
	m.vm.Clear()
	m.state = models.StateNone
	m.mu.Unlock()

	logger.Info.Printf("[ConnectionManager.handleClose] %s (generation=%d)", reason, gen)

	m.notify.emit(ControlsEvent{Controls: controlsFor(models.StateNone)})
	m.vm.Refresh()
	m.notify.status(LevelInfo, "Disconnected: "+reason, nil)
}
