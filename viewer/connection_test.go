// file: viewer/connection_test.go
package viewer

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-model-viewer/models"
)

const twoModels = `[{"name":"teapot"},{"name":"cube"}]`

func newTestManager(t *testing.T, fs *fakeServer, rec *recorder, handler MessageHandler) *ConnectionManager {
	t.Helper()
	catalog, err := NewCatalogClient(fs.URL, 2*time.Second)
	require.NoError(t, err)

	m := NewConnectionManager(ConnectionOptions{
		URL:            fs.wsURL(),
		Lister:         catalog,
		ViewModel:      NewViewModel(rec.observe),
		Handler:        handler,
		RequestTimeout: time.Second,
		Notify:         rec.observe,
	})
	t.Cleanup(m.Close)
	return m
}

func TestConnect_OpenTogglesControlsAndLoadsList(t *testing.T) {
	fs := newFakeServer(t, twoModels, http.StatusOK)
	rec := &recorder{}
	m := newTestManager(t, fs, rec, nil)

	assert.Equal(t, Controls{ConnectEnabled: true, DisconnectEnabled: false}, m.Controls())

	require.NoError(t, m.Connect(context.Background()))
	fs.accept(t)

	assert.Equal(t, models.StateOpen, m.State())
	assert.Equal(t, Controls{ConnectEnabled: false, DisconnectEnabled: true}, m.Controls())

	assert.Eventually(t, func() bool {
		names := m.vm.Names()
		return len(names) == 2 && names[0] == "teapot" && names[1] == "cube"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, rec.count(func(e Event) bool {
		me, ok := e.(ModelsEvent)
		return ok && len(me.Models) == 2
	}), "the display is refreshed once with the new list")
}

func TestServerClose_ClearsListAndReenablesConnect(t *testing.T) {
	fs := newFakeServer(t, twoModels, http.StatusOK)
	rec := &recorder{}
	m := newTestManager(t, fs, rec, nil)

	require.NoError(t, m.Connect(context.Background()))
	server := fs.accept(t)
	require.Eventually(t, func() bool { return m.vm.Len() == 2 }, time.Second, 5*time.Millisecond)

	_ = server.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	_ = server.Close()

	require.Eventually(t, func() bool { return m.State() == models.StateNone }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Controls{ConnectEnabled: true, DisconnectEnabled: false}, m.Controls())
	assert.Empty(t, m.vm.Names())
	assert.True(t, rec.count(func(e Event) bool {
		ce, ok := e.(ControlsEvent)
		return ok && ce.Controls.ConnectEnabled
	}) >= 1)
}

func TestDisconnect_ResetsStateBeforeReturning(t *testing.T) {
	fs := newFakeServer(t, twoModels, http.StatusOK)
	rec := &recorder{}
	m := newTestManager(t, fs, rec, nil)

	require.NoError(t, m.Connect(context.Background()))
	fs.accept(t)
	require.Eventually(t, func() bool { return m.vm.Len() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Disconnect())
	assert.Equal(t, models.StateNone, m.State())
	assert.Equal(t, Controls{ConnectEnabled: true, DisconnectEnabled: false}, m.Controls())
	assert.Empty(t, m.vm.Names())

	// the read loop's own close handling must not fire a second time
	m.Wait()
	assert.Equal(t, 1, rec.count(func(e Event) bool {
		ce, ok := e.(ControlsEvent)
		return ok && ce.Controls.ConnectEnabled
	}))
}

func TestReconnect_AfterClose(t *testing.T) {
	fs := newFakeServer(t, twoModels, http.StatusOK)
	rec := &recorder{}
	m := newTestManager(t, fs, rec, nil)

	require.NoError(t, m.Connect(context.Background()))
	fs.accept(t)
	require.NoError(t, m.Disconnect())

	require.NoError(t, m.Connect(context.Background()))
	fs.accept(t)
	assert.Equal(t, models.StateOpen, m.State())
	assert.Eventually(t, func() bool { return m.vm.Len() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDisconnect_WithoutConnection(t *testing.T) {
	fs := newFakeServer(t, twoModels, http.StatusOK)
	rec := &recorder{}
	m := newTestManager(t, fs, rec, nil)

	err := m.Disconnect()
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.True(t, rec.hasStatusErr(ErrNotConnected), "the user is told")
}

func TestConnect_WhileOpen(t *testing.T) {
	fs := newFakeServer(t, twoModels, http.StatusOK)
	rec := &recorder{}
	m := newTestManager(t, fs, rec, nil)

	require.NoError(t, m.Connect(context.Background()))
	fs.accept(t)

	err := m.Connect(context.Background())
	assert.True(t, errors.Is(err, ErrAlreadyConnected))
	assert.Equal(t, models.StateOpen, m.State(), "the live connection is untouched")
}

func TestConnect_DialFailure(t *testing.T) {
	rec := &recorder{}
	m := NewConnectionManager(ConnectionOptions{
		URL:       "ws://127.0.0.1:1/",
		ViewModel: NewViewModel(rec.observe),
		Dial: func(ctx context.Context, url string) (WSConn, error) {
			return nil, errors.New("connection refused")
		},
		Notify: rec.observe,
	})

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.StateNone, m.State())
	assert.Equal(t, Controls{ConnectEnabled: true}, m.Controls())
	statuses := rec.statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, LevelError, statuses[0].Level)
}

func TestListRequestFailure_IsReported(t *testing.T) {
	fs := newFakeServer(t, `{"error":"boom"}`, http.StatusInternalServerError)
	rec := &recorder{}
	m := newTestManager(t, fs, rec, nil)

	require.NoError(t, m.Connect(context.Background()))
	fs.accept(t)

	assert.Eventually(t, func() bool { return rec.hasStatusErr(ErrListRequest) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.StateOpen, m.State(), "a failed list does not drop the connection")
	assert.Empty(t, m.vm.Names())
}

func TestMalformedMessage_IsReportedAndDropped(t *testing.T) {
	fs := newFakeServer(t, twoModels, http.StatusOK)
	rec := &recorder{}
	m := newTestManager(t, fs, rec, nil)

	require.NoError(t, m.Connect(context.Background()))
	server := fs.accept(t)

	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte("{not json")))

	assert.Eventually(t, func() bool { return rec.hasStatusErr(ErrMalformedMessage) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.StateOpen, m.State())
}

func TestMessages_DefaultHandlerIsQuiet(t *testing.T) {
	fs := newFakeServer(t, twoModels, http.StatusOK)
	rec := &recorder{}

	var mu sync.Mutex
	var seen []string
	routed := make(chan struct{}, 1)
	handler := MessageHandlerFunc(func(msg models.ServerMessage) error {
		mu.Lock()
		seen = append(seen, msg.Action)
		mu.Unlock()
		routed <- struct{}{}
		return UnroutedMessages.HandleMessage(msg)
	})
	m := newTestManager(t, fs, rec, handler)

	require.NoError(t, m.Connect(context.Background()))
	server := fs.accept(t)
	require.NoError(t, server.WriteJSON(models.ServerMessage{Action: models.ActionModelsChanged}))

	select {
	case <-routed:
	case <-time.After(time.Second):
		t.Fatal("message never reached the handler")
	}
	mu.Lock()
	assert.Equal(t, []string{models.ActionModelsChanged}, seen)
	mu.Unlock()

	for _, s := range rec.statuses() {
		assert.NotEqual(t, LevelWarn, s.Level, "not-implemented routing is not a user warning: %v", s)
	}
}

func TestUnroutedMessages_SignalsNotImplemented(t *testing.T) {
	err := UnroutedMessages.HandleMessage(models.ServerMessage{Action: "spin"})
	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.Contains(t, err.Error(), "spin")
}

// gatedLister holds its first list until gate is closed, ignoring cancellation
// the way a slow server response would.
type gatedLister struct {
	gate  chan struct{}
	calls atomic.Int64
}

func (g *gatedLister) ListModels(ctx context.Context) ([]models.ModelEntry, error) {
	if g.calls.Add(1) == 1 {
		<-g.gate
		return []models.ModelEntry{{Name: "late"}}, nil
	}
	return []models.ModelEntry{{Name: "teapot"}, {Name: "cube"}}, nil
}

type listerFunc func(ctx context.Context) ([]models.ModelEntry, error)

func (f listerFunc) ListModels(ctx context.Context) ([]models.ModelEntry, error) { return f(ctx) }

var emptyLister = listerFunc(func(context.Context) ([]models.ModelEntry, error) { return nil, nil })

// scriptedConn is a client connection whose reads end when it is closed.
type scriptedConn struct {
	once    sync.Once
	closed  chan struct{}
	onClose func()
}

func newScriptedConn(onClose func()) *scriptedConn {
	return &scriptedConn{closed: make(chan struct{}), onClose: onClose}
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("use of closed connection")
}

func (c *scriptedConn) WriteMessage(int, []byte) error   { return nil }
func (c *scriptedConn) SetWriteDeadline(time.Time) error { return nil }

func (c *scriptedConn) Close() error {
	c.once.Do(func() {
		if c.onClose != nil {
			c.onClose()
		}
		close(c.closed)
	})
	return nil
}

func TestLateList_AfterDisconnectIsDropped(t *testing.T) {
	fs := newFakeServer(t, twoModels, http.StatusOK)
	rec := &recorder{}
	lister := &gatedLister{gate: make(chan struct{})}
	m := NewConnectionManager(ConnectionOptions{
		URL:       fs.wsURL(),
		Lister:    lister,
		ViewModel: NewViewModel(rec.observe),
		Notify:    rec.observe,
	})
	t.Cleanup(m.Close)

	require.NoError(t, m.Connect(context.Background()))
	fs.accept(t)
	require.Eventually(t, func() bool { return lister.calls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, m.Disconnect())
	close(lister.gate)
	m.Wait()

	assert.Zero(t, m.vm.Len())
	assert.Zero(t, rec.count(func(e Event) bool {
		me, ok := e.(ModelsEvent)
		return ok && len(me.Models) > 0
	}), "the late list never reaches the display")
}

func TestHandleClose_PassesThroughClosed(t *testing.T) {
	var m *ConnectionManager
	var duringClose models.ConnectionState
	conn := newScriptedConn(func() { duringClose = m.State() })

	m = NewConnectionManager(ConnectionOptions{
		URL:       "ws://viewer.test/",
		Lister:    emptyLister,
		ViewModel: NewViewModel(nil),
		Dial:      func(context.Context, string) (WSConn, error) { return conn, nil },
	})
	t.Cleanup(m.Close)

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Disconnect())

	assert.Equal(t, models.StateClosed, duringClose)
	assert.Equal(t, models.StateNone, m.State())
}

func TestConnect_AfterCloseFails(t *testing.T) {
	m := NewConnectionManager(ConnectionOptions{
		URL:       "ws://viewer.test/",
		Lister:    emptyLister,
		ViewModel: NewViewModel(nil),
		Dial: func(context.Context, string) (WSConn, error) {
			return newScriptedConn(nil), nil
		},
	})
	m.Close()

	err := m.Connect(context.Background())
	assert.True(t, errors.Is(err, ErrClosed))
	assert.Equal(t, models.StateNone, m.State())
}

func TestClose_DuringDialDropsTheNewConnection(t *testing.T) {
	release := make(chan struct{})
	dialing := make(chan struct{})
	conn := newScriptedConn(nil)
	m := NewConnectionManager(ConnectionOptions{
		URL:       "ws://viewer.test/",
		Lister:    emptyLister,
		ViewModel: NewViewModel(nil),
		Dial: func(context.Context, string) (WSConn, error) {
			close(dialing)
			<-release
			return conn, nil
		},
	})

	result := make(chan error, 1)
	go func() { result <- m.Connect(context.Background()) }()
	<-dialing

	m.Close()
	close(release)

	select {
	case err := <-result:
		assert.True(t, errors.Is(err, ErrClosed))
	case <-time.After(time.Second):
		t.Fatal("connect did not return")
	}
	assert.Equal(t, models.StateNone, m.State())
	select {
	case <-conn.closed:
	default:
		t.Fatal("the dialed connection was left open")
	}
}
