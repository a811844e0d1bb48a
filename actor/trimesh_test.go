package actor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridTriangles tiles an n×n quad grid on the XZ plane, two triangles per quad
func gridTriangles(n int) []Triangle {
	var tris []Triangle
	for x := 0; x < n; x++ {
		for z := 0; z < n; z++ {
			p00 := mgl64.Vec3{float64(x), 0, float64(z)}
			p10 := mgl64.Vec3{float64(x + 1), 0, float64(z)}
			p01 := mgl64.Vec3{float64(x), 0, float64(z + 1)}
			p11 := mgl64.Vec3{float64(x + 1), 0, float64(z + 1)}
			tris = append(tris, Triangle{p00, p01, p11}, Triangle{p00, p11, p10})
		}
	}
	return tris
}

func TestTriangle_Basics(t *testing.T) {
	tri := Triangle{A: mgl64.Vec3{0, 0, 0}, B: mgl64.Vec3{0, 0, 1}, C: mgl64.Vec3{1, 0, 0}}

	assert.Equal(t, mgl64.Vec3{0, 1, 0}, tri.Normal())
	vec3InDelta(t, mgl64.Vec3{1.0 / 3, 0, 1.0 / 3}, tri.Center(), 1e-12)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, tri.SupportWorld(mgl64.Vec3{1, 0, 0}))
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, tri.SupportWorld(mgl64.Vec3{-1, 0, 1}))

	degenerate := Triangle{A: mgl64.Vec3{0, 0, 0}, B: mgl64.Vec3{1, 0, 0}, C: mgl64.Vec3{2, 0, 0}}
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, degenerate.Normal())

	moved := tri.Transformed(NewTransformAt(mgl64.Vec3{0, 5, 0}, mgl64.QuatIdent()))
	assert.Equal(t, mgl64.Vec3{1, 5, 0}, moved.C)
}

func TestTriangleMesh_QueryMatchesBruteForce(t *testing.T) {
	tris := gridTriangles(10)
	mesh := NewTriangleMesh(tris)

	box := AABB{Min: mgl64.Vec3{2.5, -1, 3.5}, Max: mgl64.Vec3{4.2, 1, 4.1}}

	var got []int
	mesh.Query(box, func(index int, tri Triangle) bool {
		assert.Equal(t, tris[index], tri)
		got = append(got, index)
		return true
	})

	var want []int
	for i, tri := range tris {
		if tri.bounds().Overlaps(box) {
			want = append(want, i)
		}
	}
	require.NotEmpty(t, want)
	assert.ElementsMatch(t, want, got)
}

func TestTriangleMesh_QueryStopsEarly(t *testing.T) {
	mesh := NewTriangleMesh(gridTriangles(4))

	calls := 0
	mesh.Query(mesh.LocalBounds(), func(int, Triangle) bool {
		calls++
		return calls < 3
	})

	assert.Equal(t, 3, calls)
}

func TestTriangleMesh_Bounds(t *testing.T) {
	mesh := NewTriangleMesh(gridTriangles(3))
	assert.Equal(t, AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{3, 0, 3}}, mesh.LocalBounds())

	mesh.ComputeAABB(NewTransformAt(mgl64.Vec3{-1, 2, 0}, mgl64.QuatIdent()))
	assert.Equal(t, AABB{Min: mgl64.Vec3{-1, 2, 0}, Max: mgl64.Vec3{2, 2, 3}}, mesh.GetAABB())

	assert.Zero(t, mesh.Volume())
	assert.Equal(t, mgl64.Vec3{}, mesh.ComputeInertia(10))
	assert.Equal(t, mgl64.Vec3{3, 0, 3}, mesh.Support(mgl64.Vec3{1, 0, 1}))
}

func TestTriangleMesh_Empty(t *testing.T) {
	mesh := NewTriangleMesh(nil)

	mesh.Query(AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}, func(int, Triangle) bool {
		t.Fatal("no triangle expected")
		return false
	})
	mesh.ComputeAABB(NewTransformAt(mgl64.Vec3{1, 1, 1}, mgl64.QuatIdent()))
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, mesh.GetAABB().Min)
}
