// file: viewer/helpers_test.go
package viewer

import (
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go-model-viewer/scene"
)

// recorder collects events emitted through an Observer.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Status
	for _, e := range r.events {
		if s, ok := e.(StatusEvent); ok {
			out = append(out, s.Status)
		}
	}
	return out
}

func (r *recorder) hasStatusErr(target error) bool {
	for _, s := range r.statuses() {
		if errors.Is(s.Err, target) {
			return true
		}
	}
	return false
}

func (r *recorder) count(match func(Event) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if match(e) {
			n++
		}
	}
	return n
}

// fakeServer is a model server stand-in: GET /models/ returns list, GET / upgrades.
type fakeServer struct {
	*httptest.Server
	conns chan *websocket.Conn
}

func newFakeServer(t *testing.T, list string, listStatus int) *fakeServer {
	t.Helper()
	fs := &fakeServer{conns: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	mux := http.NewServeMux()
	mux.HandleFunc("/models/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "1" || r.URL.Query().Get("format") != "json" {
			http.Error(w, "unexpected query", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(listStatus)
		_, _ = w.Write([]byte(list))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.conns <- conn
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) wsURL() string { return "ws" + fs.URL[len("http"):] + "/" }

// accept returns the server side of the next client connection.
func (fs *fakeServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-fs.conns:
		t.Cleanup(func() { _ = c.Close() })
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no websocket connection arrived")
		return nil
	}
}

// countingFrames counts frame requests.
type countingFrames struct{ n atomic.Int64 }

func (c *countingFrames) RequestFrame() { c.n.Add(1) }

// fakeInput records gesture input.
type fakeInput struct {
	mu                  sync.Mutex
	begins, moves, ends int
	wheel               float64
}

func (f *fakeInput) BeginGesture(scene.ControlMode, float64, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begins++
}

func (f *fakeInput) MoveGesture(float64, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves++
}

func (f *fakeInput) EndGesture() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends++
}

func (f *fakeInput) Wheel(d float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wheel += d
}

// countingTarget counts updates and renders.
type countingTarget struct {
	updates, renders atomic.Int64
}

func (c *countingTarget) Update() { c.updates.Add(1) }

func (c *countingTarget) Render() *image.RGBA {
	c.renders.Add(1)
	return image.NewRGBA(image.Rect(0, 0, 1, 1))
}

const cubeModel = `{
	"metadata": {"formatVersion": 3},
	"vertices": [-1,-1,1, 1,-1,1, 1,1,1, -1,1,1, -1,-1,-1, 1,-1,-1, 1,1,-1, -1,1,-1],
	"faces": [
		1, 0,1,2,3,
		1, 5,4,7,6,
		1, 4,0,3,7,
		1, 1,5,6,2,
		1, 3,2,6,7,
		1, 4,5,1,0
	]
}`
