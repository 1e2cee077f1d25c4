package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ControlMode selects what a pointer drag does to the camera.
type ControlMode int

const (
	ModeNone ControlMode = iota
	ModeRotate
	ModeZoom
	ModePan
)

// wheelStep is the zoom accumulated per wheel notch.
const wheelStep = 0.05

// TrackballControls orbits, zooms and pans a camera around its target from pointer input.
// Pointer coordinates are in pixels of a Width x Height surface.
type TrackballControls struct {
	camera *PerspectiveCamera

	Width, Height float64

	RotateSpeed float64
	ZoomSpeed   float64
	PanSpeed    float64

	NoRotate bool
	NoZoom   bool
	NoPan    bool

	StaticMoving         bool
	DynamicDampingFactor float64

	MinDistance float64
	MaxDistance float64

	state ControlMode
	eye   mgl64.Vec3

	rotateStart, rotateEnd mgl64.Vec3
	zoomStart, zoomEnd     mgl64.Vec2
	panStart, panEnd       mgl64.Vec2
}

// NewTrackballControls attaches controls to camera using the viewer defaults.
func NewTrackballControls(camera *PerspectiveCamera, width, height float64) *TrackballControls {
	return &TrackballControls{
		camera:               camera,
		Width:                width,
		Height:               height,
		RotateSpeed:          1.0,
		ZoomSpeed:            1.2,
		PanSpeed:             0.2,
		DynamicDampingFactor: 0.3,
		MinDistance:          1.1,
		MaxDistance:          100000,
	}
}

// State reports the active drag mode.
func (t *TrackballControls) State() ControlMode { return t.state }

// SetSize updates the surface the pointer coordinates refer to.
func (t *TrackballControls) SetSize(width, height float64) {
	t.Width, t.Height = width, height
}

// Begin starts a drag in the given mode at pixel (x, y).
func (t *TrackballControls) Begin(mode ControlMode, x, y float64) {
	t.state = mode
	t.eye = t.camera.Position.Sub(t.camera.Target)

	switch mode {
	case ModeRotate:
		if !t.NoRotate {
			t.rotateStart = t.projectOnBall(x, y)
			t.rotateEnd = t.rotateStart
		}
	case ModeZoom:
		if !t.NoZoom {
			t.zoomStart = t.onScreen(x, y)
			t.zoomEnd = t.zoomStart
		}
	case ModePan:
		if !t.NoPan {
			t.panStart = t.onScreen(x, y)
			t.panEnd = t.panStart
		}
	}
}

// Move continues the active drag.
func (t *TrackballControls) Move(x, y float64) {
	t.eye = t.camera.Position.Sub(t.camera.Target)

	switch t.state {
	case ModeRotate:
		if !t.NoRotate {
			t.rotateEnd = t.projectOnBall(x, y)
		}
	case ModeZoom:
		if !t.NoZoom {
			t.zoomEnd = t.onScreen(x, y)
		}
	case ModePan:
		if !t.NoPan {
			t.panEnd = t.onScreen(x, y)
		}
	}
}

// End finishes the drag. Damped motion keeps settling on later Update calls.
func (t *TrackballControls) End() {
	t.state = ModeNone
}

// Wheel accumulates a zoom; positive delta zooms in.
func (t *TrackballControls) Wheel(delta float64) {
	if t.NoZoom {
		return
	}
	t.zoomStart[1] += delta * wheelStep
}

// Update applies pending rotation, zoom and pan to the camera.
func (t *TrackballControls) Update() {
	t.eye = t.camera.Position.Sub(t.camera.Target)

	if !t.NoRotate {
		t.rotateCamera()
	}
	if !t.NoZoom {
		t.zoomCamera()
	}
	if !t.NoPan {
		t.panCamera()
	}

	t.camera.Position = t.camera.Target.Add(t.eye)
	t.checkDistances()
	t.camera.LookAt(t.camera.Target)
}

func (t *TrackballControls) onScreen(x, y float64) mgl64.Vec2 {
	return mgl64.Vec2{x / t.Width, y / t.Height}
}

// projectOnBall maps a pixel to a point on the virtual trackball, in world space.
func (t *TrackballControls) projectOnBall(x, y float64) mgl64.Vec3 {
	halfW, halfH := t.Width/2, t.Height/2
	ball := mgl64.Vec3{(x - halfW) / halfW, (halfH - y) / halfH, 0}
	if l := ball.Len(); l > 1 {
		ball = ball.Mul(1 / l)
	} else {
		ball[2] = math.Sqrt(1 - l*l)
	}

	up := normalize(t.camera.Up)
	projection := up.Mul(ball.Y())
	projection = projection.Add(normalize(up.Cross(t.eye)).Mul(ball.X()))
	projection = projection.Add(normalize(t.eye).Mul(ball.Z()))
	return projection
}

func (t *TrackballControls) rotateCamera() {
	ls, le := t.rotateStart.Len(), t.rotateEnd.Len()
	if ls == 0 || le == 0 {
		return
	}
	cos := t.rotateStart.Dot(t.rotateEnd) / ls / le
	angle := math.Acos(math.Max(-1, math.Min(1, cos)))
	if angle == 0 || math.IsNaN(angle) {
		return
	}
	axis := normalize(t.rotateStart.Cross(t.rotateEnd))
	if axis.Len() == 0 {
		return
	}

	angle *= t.RotateSpeed
	q := mgl64.QuatRotate(-angle, axis)
	t.eye = q.Rotate(t.eye)
	t.camera.Up = q.Rotate(t.camera.Up)
	t.rotateEnd = q.Rotate(t.rotateEnd)

	if t.StaticMoving {
		t.rotateStart = t.rotateEnd
	} else {
		q = mgl64.QuatRotate(angle*(t.DynamicDampingFactor-1), axis)
		t.rotateStart = q.Rotate(t.rotateStart)
	}
}

func (t *TrackballControls) zoomCamera() {
	factor := 1 + (t.zoomEnd.Y()-t.zoomStart.Y())*t.ZoomSpeed
	if factor != 1 && factor > 0 {
		t.eye = t.eye.Mul(factor)
		if t.StaticMoving {
			t.zoomStart = t.zoomEnd
		} else {
			t.zoomStart[1] += (t.zoomEnd.Y() - t.zoomStart.Y()) * t.DynamicDampingFactor
		}
	}
}

func (t *TrackballControls) panCamera() {
	change := t.panEnd.Sub(t.panStart)
	if change.Len() == 0 {
		return
	}
	change = change.Mul(t.eye.Len() * t.PanSpeed)

	pan := normalize(t.eye.Cross(t.camera.Up)).Mul(change.X())
	pan = pan.Add(normalize(t.camera.Up).Mul(change.Y()))
	t.camera.Position = t.camera.Position.Add(pan)
	t.camera.Target = t.camera.Target.Add(pan)

	if t.StaticMoving {
		t.panStart = t.panEnd
	} else {
		t.panStart = t.panStart.Add(t.panEnd.Sub(t.panStart).Mul(t.DynamicDampingFactor))
	}
}

func (t *TrackballControls) checkDistances() {
	if t.NoZoom && t.NoPan {
		return
	}
	eye := t.camera.Position.Sub(t.camera.Target)
	d := eye.Len()
	switch {
	case d > t.MaxDistance:
		t.camera.Position = t.camera.Target.Add(normalize(eye).Mul(t.MaxDistance))
	case d < t.MinDistance:
		t.camera.Position = t.camera.Target.Add(normalize(eye).Mul(t.MinDistance))
	}
}
