package viewer

import (
	"context"
	"sync"
	"time"

	"go-model-viewer/logger"
	"go-model-viewer/scene"
)

// GestureState is the interaction listener's state.
type GestureState int

const (
	Idle GestureState = iota
	Tracking
)

func (s GestureState) String() string {
	if s == Tracking {
		return "tracking"
	}
	return "idle"
}

// GestureInput receives pointer input for the camera controls.
type GestureInput interface {
	BeginGesture(mode scene.ControlMode, x, y float64)
	MoveGesture(x, y float64)
	EndGesture()
	Wheel(delta float64)
}

// InteractionListener turns pointer gestures into frame requests. While a gesture is
// active a ticker requests a frame every interval; wheel input requests a single frame
// in any state.
type InteractionListener struct {
	input    GestureInput
	frames   FrameRequester
	interval time.Duration

	mu     sync.Mutex
	state  GestureState
	cancel context.CancelFunc
	done   chan struct{}
}

// NewInteractionListener returns an Idle listener. A non-positive interval defaults to 10ms.
func NewInteractionListener(input GestureInput, frames FrameRequester, interval time.Duration) *InteractionListener {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &InteractionListener{input: input, frames: frames, interval: interval}
}

// State reports Idle or Tracking.
func (l *InteractionListener) State() GestureState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// PointerDown starts a gesture at pixel (x, y). A second down while Tracking is ignored.
func (l *InteractionListener) PointerDown(mode scene.ControlMode, x, y float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == Tracking {
		logger.Debug.Println("[InteractionListener.PointerDown] Already tracking; ignoring")
		return
	}

	l.input.BeginGesture(mode, x, y)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	l.state = Tracking

	ticker := time.NewTicker(l.interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.frames.RequestFrame()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// TouchStart is a rotate gesture start.
func (l *InteractionListener) TouchStart(x, y float64) {
	l.PointerDown(scene.ModeRotate, x, y)
}

// PointerMove feeds motion to the controls while Tracking.
func (l *InteractionListener) PointerMove(x, y float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Tracking {
		l.input.MoveGesture(x, y)
	}
}

// PointerUp ends the gesture.
func (l *InteractionListener) PointerUp() { l.end("pointer-up") }

// PointerOut ends the gesture when the pointer leaves the viewport.
func (l *InteractionListener) PointerOut() { l.end("pointer-out") }

// TouchEnd ends the gesture.
func (l *InteractionListener) TouchEnd() { l.end("touch-end") }

// Wheel zooms and requests exactly one frame, whatever the state.
func (l *InteractionListener) Wheel(delta float64) {
	l.input.Wheel(delta)
	l.frames.RequestFrame()
}

// Close stops any active gesture.
func (l *InteractionListener) Close() { l.end("close") }

// end returns to Idle. The tick goroutine has exited by the time it returns.
func (l *InteractionListener) end(reason string) {
	l.mu.Lock()
	if l.state != Tracking {
		l.mu.Unlock()
		return
	}
	cancel, done := l.cancel, l.done
	l.state = Idle
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	cancel()
	<-done
	l.input.EndGesture()
	logger.Debug.Printf("[InteractionListener.end] Gesture ended (%s)", reason)
}
