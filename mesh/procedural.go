package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Cylinder builds a closed unit-radius cylinder along Y, centred on the
// origin. segments is clamped to at least 3.
func Cylinder(segments int, height float32) *Mesh {
	segments = max(segments, 3)
	half := height / 2
	m := &Mesh{Name: "cylinder", HasNormals: true, HasUVs: true}

	ring := func(i int) (float32, float32) {
		theta := 2 * math.Pi * float64(i%segments) / float64(segments)
		return float32(math.Cos(theta)), float32(math.Sin(theta))
	}

	for i := 0; i < segments; i++ {
		x0, z0 := ring(i)
		x1, z1 := ring(i + 1)
		u0, u1 := float32(i)/float32(segments), float32(i+1)/float32(segments)

		b0 := m.add(Vertex{Position: mgl32.Vec3{x0, -half, z0}, Normal: mgl32.Vec3{x0, 0, z0}, UV: mgl32.Vec2{u0, 0}})
		t0 := m.add(Vertex{Position: mgl32.Vec3{x0, half, z0}, Normal: mgl32.Vec3{x0, 0, z0}, UV: mgl32.Vec2{u0, 1}})
		b1 := m.add(Vertex{Position: mgl32.Vec3{x1, -half, z1}, Normal: mgl32.Vec3{x1, 0, z1}, UV: mgl32.Vec2{u1, 0}})
		t1 := m.add(Vertex{Position: mgl32.Vec3{x1, half, z1}, Normal: mgl32.Vec3{x1, 0, z1}, UV: mgl32.Vec2{u1, 1}})
		m.tri(b0, t0, b1)
		m.tri(t0, t1, b1)

		up, down := mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, -1, 0}
		ct := m.add(Vertex{Position: mgl32.Vec3{0, half, 0}, Normal: up, UV: mgl32.Vec2{0.5, 0.5}})
		c0 := m.add(Vertex{Position: mgl32.Vec3{x0, half, z0}, Normal: up, UV: mgl32.Vec2{0.5 + x0/2, 0.5 + z0/2}})
		c1 := m.add(Vertex{Position: mgl32.Vec3{x1, half, z1}, Normal: up, UV: mgl32.Vec2{0.5 + x1/2, 0.5 + z1/2}})
		m.tri(ct, c1, c0)

		cb := m.add(Vertex{Position: mgl32.Vec3{0, -half, 0}, Normal: down, UV: mgl32.Vec2{0.5, 0.5}})
		d0 := m.add(Vertex{Position: mgl32.Vec3{x0, -half, z0}, Normal: down, UV: mgl32.Vec2{0.5 + x0/2, 0.5 + z0/2}})
		d1 := m.add(Vertex{Position: mgl32.Vec3{x1, -half, z1}, Normal: down, UV: mgl32.Vec2{0.5 + x1/2, 0.5 + z1/2}})
		m.tri(cb, d0, d1)
	}
	return m
}

// TableSpec describes a rink: a floor whose top face is at y=0 surrounded by
// walls, with a goal opening centred in each Z end.
type TableSpec struct {
	Width          float32
	Length         float32
	WallHeight     float32
	WallThickness  float32
	FloorThickness float32
	// GoalWidth of zero closes both ends
	GoalWidth float32
}

// DefaultTableSpec is a 2×4 rink with 0.6 wide goals
func DefaultTableSpec() TableSpec {
	return TableSpec{
		Width:          2,
		Length:         4,
		WallHeight:     0.15,
		WallThickness:  0.1,
		FloorThickness: 0.1,
		GoalWidth:      0.6,
	}
}

// Box is an axis-aligned volume
type Box struct {
	Min, Max mgl32.Vec3
}

// Center of the box
func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// HalfExtents of the box
func (b Box) HalfExtents() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Goals returns the volumes behind the two goal openings, -Z end first.
// They start at the inner face of the end walls.
func (s TableSpec) Goals() [2]Box {
	hw, hl := s.GoalWidth/2, s.Length/2
	depth := s.WallThickness + s.WallHeight
	return [2]Box{
		{Min: mgl32.Vec3{-hw, 0, -hl - depth}, Max: mgl32.Vec3{hw, s.WallHeight, -hl}},
		{Min: mgl32.Vec3{-hw, 0, hl}, Max: mgl32.Vec3{hw, s.WallHeight, hl + depth}},
	}
}

// Table builds the rink mesh described by spec
func Table(spec TableSpec) *Mesh {
	m := &Mesh{Name: "table", HasNormals: true}
	hw, hl := spec.Width/2, spec.Length/2
	t, h := spec.WallThickness, spec.WallHeight

	m.box(Box{Min: mgl32.Vec3{-hw - t, -spec.FloorThickness, -hl - t}, Max: mgl32.Vec3{hw + t, 0, hl + t}})
	m.box(Box{Min: mgl32.Vec3{hw, 0, -hl - t}, Max: mgl32.Vec3{hw + t, h, hl + t}})
	m.box(Box{Min: mgl32.Vec3{-hw - t, 0, -hl - t}, Max: mgl32.Vec3{-hw, h, hl + t}})

	goal := min(spec.GoalWidth/2, hw)
	for _, z := range []float32{-hl - t, hl} {
		if goal <= 0 {
			m.box(Box{Min: mgl32.Vec3{-hw, 0, z}, Max: mgl32.Vec3{hw, h, z + t}})
			continue
		}
		if goal < hw {
			m.box(Box{Min: mgl32.Vec3{-hw, 0, z}, Max: mgl32.Vec3{-goal, h, z + t}})
			m.box(Box{Min: mgl32.Vec3{goal, 0, z}, Max: mgl32.Vec3{hw, h, z + t}})
		}
	}
	return m
}

func (m *Mesh) add(v Vertex) uint32 {
	m.Vertices = append(m.Vertices, v)
	return uint32(len(m.Vertices) - 1)
}

func (m *Mesh) tri(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
	m.FaceMaterials = append(m.FaceMaterials, -1)
}

// quad adds two triangles wound so that their face normal matches n
func (m *Mesh) quad(corners [4]mgl32.Vec3, n mgl32.Vec3) {
	if corners[1].Sub(corners[0]).Cross(corners[2].Sub(corners[0])).Dot(n) < 0 {
		corners[1], corners[3] = corners[3], corners[1]
	}
	var idx [4]uint32
	for i, c := range corners {
		idx[i] = m.add(Vertex{Position: c, Normal: n})
	}
	m.tri(idx[0], idx[1], idx[2])
	m.tri(idx[0], idx[2], idx[3])
}

func (m *Mesh) box(b Box) {
	lo, hi := b.Min, b.Max
	m.quad([4]mgl32.Vec3{{hi[0], lo[1], lo[2]}, {hi[0], hi[1], lo[2]}, {hi[0], hi[1], hi[2]}, {hi[0], lo[1], hi[2]}}, mgl32.Vec3{1, 0, 0})
	m.quad([4]mgl32.Vec3{{lo[0], lo[1], lo[2]}, {lo[0], hi[1], lo[2]}, {lo[0], hi[1], hi[2]}, {lo[0], lo[1], hi[2]}}, mgl32.Vec3{-1, 0, 0})
	m.quad([4]mgl32.Vec3{{lo[0], hi[1], lo[2]}, {hi[0], hi[1], lo[2]}, {hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]}}, mgl32.Vec3{0, 1, 0})
	m.quad([4]mgl32.Vec3{{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]}, {hi[0], lo[1], hi[2]}, {lo[0], lo[1], hi[2]}}, mgl32.Vec3{0, -1, 0})
	m.quad([4]mgl32.Vec3{{lo[0], lo[1], hi[2]}, {hi[0], lo[1], hi[2]}, {hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]}}, mgl32.Vec3{0, 0, 1})
	m.quad([4]mgl32.Vec3{{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]}, {hi[0], hi[1], lo[2]}, {lo[0], hi[1], lo[2]}}, mgl32.Vec3{0, 0, -1})
}
