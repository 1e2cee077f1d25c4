package viewer

import (
	"context"
	"image"
	"sync/atomic"
)

// Renderable is what the frame scheduler draws: apply control motion, then render.
type Renderable interface {
	Update()
	Render() *image.RGBA
}

// FrameRequester asks for a frame to be drawn soon.
type FrameRequester interface {
	RequestFrame()
}

// FrameScheduler renders requested frames on a single goroutine.
// Requests made while one is already pending collapse into it.
type FrameScheduler struct {
	target   Renderable
	notify   Observer
	requests chan struct{}
	rendered atomic.Int64
}

// NewFrameScheduler returns a scheduler for target. Call Run to start rendering.
func NewFrameScheduler(target Renderable, notify Observer) *FrameScheduler {
	return &FrameScheduler{
		target:   target,
		notify:   notify,
		requests: make(chan struct{}, 1),
	}
}

// RequestFrame schedules a render without blocking.
func (f *FrameScheduler) RequestFrame() {
	select {
	case f.requests <- struct{}{}:
	default:
	}
}

// Run renders frames until ctx is done.
func (f *FrameScheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.requests:
			f.target.Update()
			img := f.target.Render()
			f.rendered.Add(1)
			f.notify.emit(FrameEvent{Image: img})
		}
	}
}

// Rendered is the number of frames drawn so far.
func (f *FrameScheduler) Rendered() int64 {
	return f.rendered.Load()
}
