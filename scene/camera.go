package scene

import "github.com/go-gl/mathgl/mgl64"

// PerspectiveCamera looks from Position towards Target.
type PerspectiveCamera struct {
	FOV    float64 // vertical field of view, degrees
	Aspect float64
	Near   float64
	Far    float64

	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
}

// NewPerspectiveCamera returns a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float64) *PerspectiveCamera {
	return &PerspectiveCamera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Target: mgl64.Vec3{0, 0, -1},
		Up:     mgl64.Vec3{0, 1, 0},
	}
}

// LookAt points the camera at target.
func (c *PerspectiveCamera) LookAt(target mgl64.Vec3) {
	c.Target = target
}

// ViewMatrix transforms world space into camera space.
func (c *PerspectiveCamera) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

// ProjectionMatrix transforms camera space into clip space.
func (c *PerspectiveCamera) ProjectionMatrix() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection is ProjectionMatrix * ViewMatrix.
func (c *PerspectiveCamera) ViewProjection() mgl64.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// Distance is the length between Position and Target.
func (c *PerspectiveCamera) Distance() float64 {
	return c.Position.Sub(c.Target).Len()
}
