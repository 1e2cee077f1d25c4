// Package websocket test_helpers_test.go
package websocket

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"go-model-viewer/models"
)

// fakeConn implements WSConn. Reads come from a scripted queue; writes are recorded.
type fakeConn struct {
	mu     sync.Mutex
	reads  chan []byte
	writes []fakeFrame
	closed bool
}

type fakeFrame struct {
	kind int
	data []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{reads: make(chan []byte, 8)}
}

func (fc *fakeConn) WriteMessage(messageType int, data []byte) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.writes = append(fc.writes, fakeFrame{kind: messageType, data: data})
	return nil
}

func (fc *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

// ReadMessage returns queued payloads as text frames and fails once the queue is closed.
func (fc *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-fc.reads
	if !ok {
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
	return websocket.TextMessage, data, nil
}

func (fc *fakeConn) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.closed = true
	return nil
}

func (fc *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 12345}
}

func (fc *fakeConn) SetReadLimit(limit int64)            {}
func (fc *fakeConn) SetReadDeadline(t time.Time) error   { return nil }
func (fc *fakeConn) SetPongHandler(h func(string) error) {}

func (fc *fakeConn) frames() []fakeFrame {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make([]fakeFrame, len(fc.writes))
	copy(out, fc.writes)
	return out
}

func (fc *fakeConn) isClosed() bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.closed
}

// staticLister returns a fixed catalog, or err when set.
type staticLister struct {
	mu      sync.Mutex
	entries []models.ModelEntry
	err     error
}

func (s *staticLister) ListEntries() ([]models.ModelEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.ModelEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *staticLister) set(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	for _, n := range names {
		s.entries = append(s.entries, models.ModelEntry{Name: n})
	}
}

var errListing = errors.New("disk on fire")

// mockMetrics is a testify mock of MetricsPublisher.
type mockMetrics struct{ mock.Mock }

func (m *mockMetrics) PublishViewerConnections(count int) { m.Called(count) }
func (m *mockMetrics) PublishCatalogSize(count int)       { m.Called(count) }

// recordingMessenger captures broadcasts.
type recordingMessenger struct {
	mu   sync.Mutex
	msgs []models.ServerMessage
}

func (r *recordingMessenger) BroadcastMessage(msg models.ServerMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingMessenger) BroadcastRaw(msg []byte) {}

func (r *recordingMessenger) sent() []models.ServerMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ServerMessage, len(r.msgs))
	copy(out, r.msgs)
	return out
}
