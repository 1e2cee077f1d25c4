package scene

import (
	"image"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Viewport bundles the scene, camera, controls and renderer behind one lock.
// Every method is safe to call from any goroutine.
type Viewport struct {
	mu       sync.Mutex
	scene    *Scene
	camera   *PerspectiveCamera
	controls *TrackballControls
	renderer *Renderer
}

// NewViewport builds the viewer's camera, controls and lighting for a width x height surface.
func NewViewport(width, height int) *Viewport {
	width, height = max(width, 1), max(height, 1)

	camera := NewPerspectiveCamera(75, float64(width)/float64(height), 1, 1000)
	camera.Position = mgl64.Vec3{0, 0, 10}
	camera.LookAt(mgl64.Vec3{})

	s := NewScene()
	s.AddDirectionalLight(DirectionalLight{
		Color:     ColorFromHex(0xffffff),
		Intensity: 0.95,
		Position:  normalize(mgl64.Vec3{-3, 3, 7}),
	})
	s.AddPointLight(PointLight{
		Color:     ColorFromHex(0xffffff),
		Intensity: 5,
		Distance:  50,
		Position:  mgl64.Vec3{10, 20, -10},
	})

	return &Viewport{
		scene:    s,
		camera:   camera,
		controls: NewTrackballControls(camera, float64(width), float64(height)),
		renderer: NewRenderer(width, height),
	}
}

// Scene exposes the scene graph.
func (v *Viewport) Scene() *Scene { return v.scene }

// AddMesh adds a mesh to the scene.
func (v *Viewport) AddMesh(m *Mesh) { v.scene.AddMesh(m) }

// SetSize resizes the render target and keeps the camera aspect in step.
func (v *Viewport) SetSize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	width, height = max(width, 1), max(height, 1)
	v.renderer.SetSize(width, height)
	v.camera.Aspect = float64(width) / float64(height)
	v.controls.SetSize(float64(width), float64(height))
}

// Size returns the render target size in pixels.
func (v *Viewport) Size() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renderer.Size()
}

// BeginGesture starts a control drag at pixel (x, y).
func (v *Viewport) BeginGesture(mode ControlMode, x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls.Begin(mode, x, y)
}

// MoveGesture feeds pointer motion to the active drag.
func (v *Viewport) MoveGesture(x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls.Move(x, y)
}

// EndGesture finishes the active drag.
func (v *Viewport) EndGesture() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls.End()
}

// Wheel feeds a wheel delta to the controls.
func (v *Viewport) Wheel(delta float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls.Wheel(delta)
}

// Update applies pending control motion to the camera.
func (v *Viewport) Update() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls.Update()
}

// Render draws one frame.
func (v *Viewport) Render() *image.RGBA {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renderer.Render(v.scene, v.camera)
}

// CameraDistance is the camera's distance from its target.
func (v *Viewport) CameraDistance() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.camera.Distance()
}
