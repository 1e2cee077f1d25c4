// Package viewer is the model viewer client: the application state object, its
// connection to the model server, the model list view-model, gesture tracking and
// frame scheduling. A UI subscribes to it through an Observer.
package viewer

import (
	"fmt"
	"image"

	"go-model-viewer/models"
)

// ----------------------- status -----------------------

// StatusLevel ranks a user-visible notice.
type StatusLevel int

const (
	LevelInfo StatusLevel = iota
	LevelWarn
	LevelError
)

func (l StatusLevel) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Status is a notice shown in the UI status line.
type Status struct {
	Level   StatusLevel
	Message string
	Err     error
}

func (s Status) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s: %v", s.Message, s.Err)
	}
	return s.Message
}

// ----------------------- events -----------------------

// Event is anything the UI may need to redraw for.
type Event interface{ event() }

// ControlsEvent reports new connect/disconnect button states.
type ControlsEvent struct{ Controls Controls }

// ModelsEvent is a display refresh of the model list.
type ModelsEvent struct{ Models []models.ModelEntry }

// FrameEvent carries a freshly rendered frame.
type FrameEvent struct{ Image *image.RGBA }

// StatusEvent carries a user-visible notice.
type StatusEvent struct{ Status Status }

// BackgroundEvent fires once when the model has loaded and the loading backdrop can go.
type BackgroundEvent struct{}

func (ControlsEvent) event()   {}
func (ModelsEvent) event()     {}
func (FrameEvent) event()      {}
func (StatusEvent) event()     {}
func (BackgroundEvent) event() {}

// Observer receives events from every component. It may be called from any goroutine.
type Observer func(Event)

func (o Observer) emit(e Event) {
	if o != nil {
		o(e)
	}
}

func (o Observer) status(level StatusLevel, msg string, err error) {
	o.emit(StatusEvent{Status: Status{Level: level, Message: msg, Err: err}})
}

// ----------------------- controls -----------------------

// Controls are the connect/disconnect buttons; they are never both enabled.
type Controls struct {
	ConnectEnabled    bool
	DisconnectEnabled bool
}

// controlsFor derives button states from the connection state.
func controlsFor(state models.ConnectionState) Controls {
	open := state == models.StateOpen
	return Controls{ConnectEnabled: !open && state != models.StateConnecting, DisconnectEnabled: open}
}
