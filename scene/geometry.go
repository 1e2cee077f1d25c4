// Package scene is a small scene graph with a software renderer: geometry,
// a perspective camera, trackball controls, lights and a z-buffered rasterizer.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangle referencing three vertices of its Geometry.
type Face struct {
	A, B, C       int
	Normal        mgl64.Vec3
	VertexNormals [3]mgl64.Vec3
}

// Geometry is an indexed triangle mesh.
type Geometry struct {
	Vertices []mgl64.Vec3
	Faces    []Face
}

// ComputeFaceNormals sets the flat normal of every face, counter-clockwise winding facing out.
func (g *Geometry) ComputeFaceNormals() {
	for i := range g.Faces {
		f := &g.Faces[i]
		f.Normal = normalize(g.faceCross(f))
	}
}

// ComputeVertexNormals averages face normals at shared vertices, producing smooth shading.
func (g *Geometry) ComputeVertexNormals() {
	g.ComputeFaceNormals()

	sums := make([]mgl64.Vec3, len(g.Vertices))
	for _, f := range g.Faces {
		sums[f.A] = sums[f.A].Add(f.Normal)
		sums[f.B] = sums[f.B].Add(f.Normal)
		sums[f.C] = sums[f.C].Add(f.Normal)
	}
	for i := range sums {
		sums[i] = normalize(sums[i])
	}
	for i := range g.Faces {
		f := &g.Faces[i]
		f.VertexNormals = [3]mgl64.Vec3{sums[f.A], sums[f.B], sums[f.C]}
	}
}

// BoundingBox returns the axis-aligned bounds of all vertices.
// An empty geometry yields zero vectors.
func (g *Geometry) BoundingBox() (min, max mgl64.Vec3) {
	if len(g.Vertices) == 0 {
		return
	}
	min, max = g.Vertices[0], g.Vertices[0]
	for _, v := range g.Vertices[1:] {
		for k := 0; k < 3; k++ {
			min[k] = math.Min(min[k], v[k])
			max[k] = math.Max(max[k], v[k])
		}
	}
	return min, max
}

func (g *Geometry) faceCross(f *Face) mgl64.Vec3 {
	a, b, c := g.Vertices[f.A], g.Vertices[f.B], g.Vertices[f.C]
	cb := c.Sub(b)
	ab := a.Sub(b)
	return cb.Cross(ab)
}

// normalize returns v scaled to unit length, or the zero vector for degenerate input.
func normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}
