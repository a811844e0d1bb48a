package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func faceNormal(tri [3]mgl32.Vec3) mgl32.Vec3 {
	return tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
}

func centroid(tri [3]mgl32.Vec3) mgl32.Vec3 {
	return tri[0].Add(tri[1]).Add(tri[2]).Mul(1.0 / 3.0)
}

func TestCylinder(t *testing.T) {
	m := Cylinder(16, 0.5)

	assert.Equal(t, 16*4, m.TriangleCount())
	lo, hi := m.Bounds()
	assert.InDelta(t, -1, lo.X(), 1e-6)
	assert.InDelta(t, 1, hi.X(), 1e-6)
	assert.InDelta(t, -0.25, lo.Y(), 1e-6)
	assert.InDelta(t, 0.25, hi.Y(), 1e-6)
	assert.InDelta(t, 1, m.UnitScale(), 1e-6)

	// every face points away from the axis or the mid plane
	for i, tri := range m.Triangles() {
		c := centroid(tri)
		n := faceNormal(tri)
		assert.Greater(t, n.Dot(c), float32(0), "triangle %d faces inward", i)
	}
	for _, v := range m.Vertices {
		assert.InDelta(t, 1, v.Normal.Len(), 1e-5)
	}
}

func TestCylinder_MinimumSegments(t *testing.T) {
	assert.Equal(t, 3*4, Cylinder(1, 1).TriangleCount())
}

func TestTable_Shape(t *testing.T) {
	spec := DefaultTableSpec()
	m := Table(spec)

	lo, hi := m.Bounds()
	assert.InDelta(t, -spec.FloorThickness, lo.Y(), 1e-6)
	assert.InDelta(t, spec.WallHeight, hi.Y(), 1e-6)
	assert.InDelta(t, -spec.Width/2-spec.WallThickness, lo.X(), 1e-6)
	assert.InDelta(t, spec.Length/2+spec.WallThickness, hi.Z(), 1e-6)

	// the playing surface is the floor top at y=0
	var floorTop int
	for _, tri := range m.Triangles() {
		n := faceNormal(tri).Normalize()
		c := centroid(tri)
		if n.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5) && c.Y() == 0 && c.X() > -spec.Width/2 && c.X() < spec.Width/2 {
			floorTop++
		}
	}
	assert.Equal(t, 2, floorTop)
}

func TestTable_GoalOpenings(t *testing.T) {
	spec := DefaultTableSpec()
	goals := spec.Goals()

	inOpening := func(p mgl32.Vec3, goal Box) bool {
		return p.X() > goal.Min.X() && p.X() < goal.Max.X() &&
			p.Y() > 0 && p.Y() < spec.WallHeight &&
			p.Z() > goal.Min.Z() && p.Z() < goal.Max.Z()
	}
	for _, tri := range Table(spec).Triangles() {
		for _, goal := range goals {
			assert.False(t, inOpening(centroid(tri), goal), "wall triangle %v blocks a goal", tri)
		}
	}

	assert.InDelta(t, -spec.Length/2, goals[0].Max.Z(), 1e-6)
	assert.InDelta(t, spec.Length/2, goals[1].Min.Z(), 1e-6)
	assert.InDelta(t, spec.GoalWidth/2, goals[1].HalfExtents().X(), 1e-6)
	assert.InDelta(t, 0, goals[1].Center().X(), 1e-6)
}

func TestTable_ClosedEnds(t *testing.T) {
	open := Table(DefaultTableSpec())
	spec := DefaultTableSpec()
	spec.GoalWidth = 0
	closed := Table(spec)

	// one box (12 triangles) per end instead of two
	require.Equal(t, open.TriangleCount()-2*12, closed.TriangleCount())
}

func TestBox_FacesOutward(t *testing.T) {
	m := &Mesh{}
	m.box(Box{Min: mgl32.Vec3{-1, -2, -3}, Max: mgl32.Vec3{1, 2, 3}})

	require.Equal(t, 12, m.TriangleCount())
	for _, tri := range m.Triangles() {
		assert.Greater(t, faceNormal(tri).Dot(centroid(tri)), float32(0))
	}
}
