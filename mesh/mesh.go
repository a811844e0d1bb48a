// Package mesh holds triangle meshes in render space (float32): loading from
// Wavefront OBJ files and building the procedural puck and table.
package mesh

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoVertices is returned when a mesh source defines no usable triangle
var ErrNoVertices = errors.New("mesh: no vertices")

// Vertex is one render vertex
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Material is the subset of an MTL material the renderers understand
type Material struct {
	Name    string
	Diffuse mgl32.Vec3
	// Texture is the diffuse map path, resolved against the MTL directory
	Texture string
}

// Mesh is an indexed triangle list
type Mesh struct {
	Name     string
	Vertices []Vertex
	// Indices holds three entries per triangle
	Indices []uint32
	// FaceMaterials holds one index into Materials per triangle, -1 for none
	FaceMaterials []int
	Materials     []Material

	// MaterialLib is the resolved path of the mtllib statement, if any
	MaterialLib string
	// MaterialErr keeps the reason the material library could not be read.
	// The geometry is still usable.
	MaterialErr error

	HasNormals bool
	HasUVs     bool
}

// TriangleCount returns the number of triangles
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds returns the axis-aligned bounding box of the vertices
func (m *Mesh) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	lo := m.Vertices[0].Position
	hi := lo
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], v.Position[i])
			hi[i] = max(hi[i], v.Position[i])
		}
	}
	return lo, hi
}

// Center returns the centre of the bounding box
func (m *Mesh) Center() mgl32.Vec3 {
	lo, hi := m.Bounds()
	return lo.Add(hi).Mul(0.5)
}

// UnitScale returns the factor fitting the mesh into a 2×2×2 box
// centred on the origin. An empty or flat-to-a-point mesh returns 1.
func (m *Mesh) UnitScale() float32 {
	lo, hi := m.Bounds()
	size := hi.Sub(lo)
	extent := max(size.X(), size.Y(), size.Z())
	if extent <= 0 {
		return 1
	}
	return 2 / extent
}

// Triangles returns the triangle corners in index order
func (m *Mesh) Triangles() [][3]mgl32.Vec3 {
	out := make([][3]mgl32.Vec3, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		out = append(out, [3]mgl32.Vec3{
			m.Vertices[m.Indices[i]].Position,
			m.Vertices[m.Indices[i+1]].Position,
			m.Vertices[m.Indices[i+2]].Position,
		})
	}
	return out
}

// Transformed returns the triangles mapped through a model matrix
func (m *Mesh) Transformed(model mgl32.Mat4) [][3]mgl32.Vec3 {
	tris := m.Triangles()
	for i := range tris {
		for j := 0; j < 3; j++ {
			tris[i][j] = mgl32.TransformCoordinate(tris[i][j], model)
		}
	}
	return tris
}

// computeNormals sets every vertex normal to the area-weighted average of
// the faces sharing it.
func (m *Mesh) computeNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = mgl32.Vec3{}
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		pa, pb, pc := m.Vertices[a].Position, m.Vertices[b].Position, m.Vertices[c].Position
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		m.Vertices[a].Normal = m.Vertices[a].Normal.Add(n)
		m.Vertices[b].Normal = m.Vertices[b].Normal.Add(n)
		m.Vertices[c].Normal = m.Vertices[c].Normal.Add(n)
	}
	for i := range m.Vertices {
		if m.Vertices[i].Normal.Len() > 1e-12 {
			m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
		}
	}
	m.HasNormals = true
}
