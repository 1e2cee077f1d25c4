package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidModel is returned for assets that are not a usable three.js JSON model.
var ErrInvalidModel = errors.New("invalid model")

// face type bits of the three.js JSON model format, version 3
const (
	faceQuad = 1 << iota
	faceMaterial
	faceUV
	faceVertexUV
	faceNormal
	faceVertexNormal
	faceColor
	faceVertexColor
)

type threeJSModel struct {
	Metadata struct {
		FormatVersion float64 `json:"formatVersion"`
	} `json:"metadata"`
	Scale    float64     `json:"scale"`
	Vertices []float64   `json:"vertices"`
	Faces    []int       `json:"faces"`
	UVs      [][]float64 `json:"uvs"`
}

// ParseModel decodes a three.js JSON model (format 3) into triangle geometry.
// Quads are split into two triangles. Per-face materials, UVs, normals and colors are
// skipped; normals are recomputed by the caller.
func ParseModel(r io.Reader) (*Geometry, error) {
	var m threeJSModel
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if v := m.Metadata.FormatVersion; v != 0 && (v < 3 || v >= 4) {
		return nil, fmt.Errorf("%w: unsupported format version %v", ErrInvalidModel, v)
	}
	if len(m.Vertices)%3 != 0 {
		return nil, fmt.Errorf("%w: vertex array length %d is not a multiple of 3", ErrInvalidModel, len(m.Vertices))
	}

	scale := 1.0
	if m.Scale != 0 {
		scale = 1 / m.Scale
	}

	g := &Geometry{Vertices: make([]mgl64.Vec3, 0, len(m.Vertices)/3)}
	for i := 0; i < len(m.Vertices); i += 3 {
		g.Vertices = append(g.Vertices, mgl64.Vec3{
			m.Vertices[i] * scale,
			m.Vertices[i+1] * scale,
			m.Vertices[i+2] * scale,
		})
	}

	uvLayers := 0
	for _, layer := range m.UVs {
		if len(layer) > 0 {
			uvLayers++
		}
	}

	faces := m.Faces
	for offset := 0; offset < len(faces); {
		typ := faces[offset]
		offset++

		n := 3
		if typ&faceQuad != 0 {
			n = 4
		}
		if offset+n > len(faces) {
			return nil, fmt.Errorf("%w: face array truncated at %d", ErrInvalidModel, offset)
		}
		idx := faces[offset : offset+n]
		offset += n
		for _, vi := range idx {
			if vi < 0 || vi >= len(g.Vertices) {
				return nil, fmt.Errorf("%w: vertex index %d out of range", ErrInvalidModel, vi)
			}
		}

		if typ&faceMaterial != 0 {
			offset++
		}
		if typ&faceUV != 0 {
			offset += uvLayers
		}
		if typ&faceVertexUV != 0 {
			offset += uvLayers * n
		}
		if typ&faceNormal != 0 {
			offset++
		}
		if typ&faceVertexNormal != 0 {
			offset += n
		}
		if typ&faceColor != 0 {
			offset++
		}
		if typ&faceVertexColor != 0 {
			offset += n
		}
		if offset > len(faces) {
			return nil, fmt.Errorf("%w: face attributes truncated", ErrInvalidModel)
		}

		if n == 4 {
			g.Faces = append(g.Faces,
				Face{A: idx[0], B: idx[1], C: idx[3]},
				Face{A: idx[1], B: idx[2], C: idx[3]},
			)
		} else {
			g.Faces = append(g.Faces, Face{A: idx[0], B: idx[1], C: idx[2]})
		}
	}

	if len(g.Faces) == 0 {
		return nil, fmt.Errorf("%w: no faces", ErrInvalidModel)
	}
	return g, nil
}
