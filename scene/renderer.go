package scene

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Renderer rasterizes a Scene into an RGBA image with a depth buffer.
// Faces with a vertex behind the camera are skipped rather than clipped.
type Renderer struct {
	width, height int
	ClearColor    color.RGBA
	depth         []float64
}

// NewRenderer returns a renderer with a transparent black clear color.
func NewRenderer(width, height int) *Renderer {
	r := &Renderer{}
	r.SetSize(width, height)
	return r
}

// SetSize changes the output size; non-positive sizes are clamped to 1.
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = max(width, 1), max(height, 1)
	r.depth = make([]float64, r.width*r.height)
}

// Size returns the output size in pixels.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

type screenVertex struct {
	x, y, z float64
	color   Color
}

// Render draws one frame of s as seen by cam.
func (r *Renderer) Render(s *Scene, cam *PerspectiveCamera) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r.ClearColor.R, r.ClearColor.G, r.ClearColor.B, r.ClearColor.A
	}
	for i := range r.depth {
		r.depth[i] = math.Inf(1)
	}

	snap := s.snapshot()
	vp := cam.ViewProjection()

	for _, mesh := range snap.meshes {
		g := mesh.Geometry
		for _, f := range g.Faces {
			var sv [3]screenVertex
			visible := true
			for k, vi := range [3]int{f.A, f.B, f.C} {
				world := g.Vertices[vi].Add(mesh.Position)
				clip := vp.Mul4x1(world.Vec4(1))
				if clip.W() <= 1e-9 {
					visible = false
					break
				}
				ndc := clip.Vec3().Mul(1 / clip.W())

				n := f.VertexNormals[k]
				if n.Len() == 0 {
					n = f.Normal
				}
				sv[k] = screenVertex{
					x:     (ndc.X()*0.5 + 0.5) * float64(r.width),
					y:     (0.5 - ndc.Y()*0.5) * float64(r.height),
					z:     ndc.Z(),
					color: shade(snap, mesh.Material, world, n, cam.Position),
				}
			}
			if !visible {
				continue
			}
			// screen y grows downward, so front faces (counter-clockwise) have negative area
			if edge(sv[0], sv[1], sv[2].x, sv[2].y) >= 0 {
				continue
			}
			r.fill(img, sv)
		}
	}
	return img
}

func (r *Renderer) fill(img *image.RGBA, v [3]screenVertex) {
	area := edge(v[0], v[1], v[2].x, v[2].y)
	if area == 0 {
		return
	}

	minX, maxX, ok := pixelSpan(min(v[0].x, v[1].x, v[2].x), max(v[0].x, v[1].x, v[2].x), r.width)
	if !ok {
		return
	}
	minY, maxY, ok := pixelSpan(min(v[0].y, v[1].y, v[2].y), max(v[0].y, v[1].y, v[2].y), r.height)
	if !ok {
		return
	}

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			b0 := edge(v[1], v[2], px, py) / area
			b1 := edge(v[2], v[0], px, py) / area
			b2 := edge(v[0], v[1], px, py) / area
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}
			z := b0*v[0].z + b1*v[1].z + b2*v[2].z
			if z < -1 || z > 1 {
				continue
			}
			i := y*r.width + x
			if z >= r.depth[i] {
				continue
			}
			r.depth[i] = z

			c := v[0].color.scale(b0).add(v[1].color.scale(b1)).add(v[2].color.scale(b2))
			off := img.PixOffset(x, y)
			img.Pix[off] = toByte(c.R)
			img.Pix[off+1] = toByte(c.G)
			img.Pix[off+2] = toByte(c.B)
			img.Pix[off+3] = 0xff
		}
	}
}

// pixelSpan clamps the screen interval [lo, hi] to pixel indices in [0, size).
// The clamp happens before the int conversion, which is undefined for huge floats.
func pixelSpan(lo, hi float64, size int) (int, int, bool) {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return 0, 0, false
	}
	lo = math.Max(lo, 0)
	hi = math.Min(hi, float64(size-1))
	if lo > hi {
		return 0, 0, false
	}
	return int(math.Floor(lo)), int(math.Ceil(hi)), true
}

// shade evaluates Phong lighting at a vertex.
func shade(s sceneSnapshot, m PhongMaterial, p, n, eye mgl64.Vec3) Color {
	view := normalize(eye.Sub(p))
	var out Color

	light := func(dir mgl64.Vec3, c Color, intensity float64) {
		diffuse := math.Max(n.Dot(dir), 0)
		if diffuse == 0 {
			return
		}
		half := normalize(dir.Add(view))
		specular := math.Pow(math.Max(n.Dot(half), 0), m.Shininess)
		out = out.add(m.Color.mul(c).scale(intensity * diffuse))
		out = out.add(m.Specular.mul(c).scale(intensity * specular))
	}

	for _, l := range s.directional {
		light(normalize(l.Position), l.Color, l.Intensity)
	}
	for _, l := range s.points {
		toLight := l.Position.Sub(p)
		d := toLight.Len()
		atten := 1.0
		if l.Distance > 0 {
			atten = math.Max(0, 1-d/l.Distance)
		}
		if atten == 0 {
			continue
		}
		light(normalize(toLight), l.Color, l.Intensity*atten)
	}
	return out
}

func edge(a, b screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
