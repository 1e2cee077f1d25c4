package scene

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Color is a linear RGB triple in [0, 1].
type Color struct{ R, G, B float64 }

// ColorFromHex converts 0xRRGGBB.
func ColorFromHex(hex uint32) Color {
	return Color{
		R: float64((hex>>16)&0xff) / 255,
		G: float64((hex>>8)&0xff) / 255,
		B: float64(hex&0xff) / 255,
	}
}

func (c Color) scale(f float64) Color { return Color{c.R * f, c.G * f, c.B * f} }
func (c Color) add(o Color) Color     { return Color{c.R + o.R, c.G + o.G, c.B + o.B} }
func (c Color) mul(o Color) Color     { return Color{c.R * o.R, c.G * o.G, c.B * o.B} }

// DirectionalLight shines from Position towards the origin.
type DirectionalLight struct {
	Color     Color
	Intensity float64
	Position  mgl64.Vec3
}

// PointLight falls off linearly to zero at Distance; Distance 0 means no falloff.
type PointLight struct {
	Color     Color
	Intensity float64
	Distance  float64
	Position  mgl64.Vec3
}

// PhongMaterial is a diffuse color with a specular highlight.
type PhongMaterial struct {
	Color     Color
	Specular  Color
	Shininess float64
}

// NewPhongMaterial returns a material with a faint specular highlight.
func NewPhongMaterial(color Color) PhongMaterial {
	return PhongMaterial{
		Color:     color,
		Specular:  ColorFromHex(0x111111),
		Shininess: 30,
	}
}

// Mesh places geometry in the scene.
type Mesh struct {
	Geometry *Geometry
	Material PhongMaterial
	Position mgl64.Vec3
}

// NewMesh wraps geometry with a material at the origin.
func NewMesh(g *Geometry, m PhongMaterial) *Mesh {
	return &Mesh{Geometry: g, Material: m}
}

// Scene holds meshes and lights. Safe for concurrent Add and snapshot reads.
type Scene struct {
	mu          sync.RWMutex
	meshes      []*Mesh
	directional []DirectionalLight
	points      []PointLight
}

// NewScene returns an empty scene.
func NewScene() *Scene { return &Scene{} }

func (s *Scene) AddMesh(m *Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meshes = append(s.meshes, m)
}

func (s *Scene) AddDirectionalLight(l DirectionalLight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directional = append(s.directional, l)
}

func (s *Scene) AddPointLight(l PointLight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, l)
}

// MeshCount reports how many meshes have been added.
func (s *Scene) MeshCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meshes)
}

type sceneSnapshot struct {
	meshes      []*Mesh
	directional []DirectionalLight
	points      []PointLight
}

func (s *Scene) snapshot() sceneSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sceneSnapshot{
		meshes:      append([]*Mesh(nil), s.meshes...),
		directional: append([]DirectionalLight(nil), s.directional...),
		points:      append([]PointLight(nil), s.points...),
	}
}
