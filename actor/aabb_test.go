package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func unitBox() AABB {
	return AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}
}

func TestAABBOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		other    AABB
		expected bool
	}{
		{"separated on X", AABB{Min: mgl64.Vec3{2, 0, 0}, Max: mgl64.Vec3{3, 1, 1}}, false},
		{"separated on Y", AABB{Min: mgl64.Vec3{0, -2, 0}, Max: mgl64.Vec3{1, -1, 1}}, false},
		{"separated on Z", AABB{Min: mgl64.Vec3{0, 0, 2}, Max: mgl64.Vec3{1, 1, 3}}, false},
		{"overlapping", AABB{Min: mgl64.Vec3{0.5, 0.5, 0.5}, Max: mgl64.Vec3{2, 2, 2}}, true},
		{"contained", AABB{Min: mgl64.Vec3{0.25, 0.25, 0.25}, Max: mgl64.Vec3{0.75, 0.75, 0.75}}, true},
		{"face touching", AABB{Min: mgl64.Vec3{1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}}, true},
		{"corner touching", AABB{Min: mgl64.Vec3{1, 1, 1}, Max: mgl64.Vec3{2, 2, 2}}, true},
		{"flat box crossing", AABB{Min: mgl64.Vec3{-5, 0.5, -5}, Max: mgl64.Vec3{5, 0.5, 5}}, true},
		{"diagonal only", AABB{Min: mgl64.Vec3{1.1, 1.1, 0}, Max: mgl64.Vec3{2, 2, 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, unitBox().Overlaps(tt.other))
			assert.Equal(t, tt.expected, tt.other.Overlaps(unitBox()), "symmetry")
		})
	}
}

func TestAABBContainsPoint(t *testing.T) {
	box := unitBox()

	assert.True(t, box.ContainsPoint(mgl64.Vec3{0.5, 0.5, 0.5}))
	assert.True(t, box.ContainsPoint(mgl64.Vec3{1, 1, 1}), "corners are inside")
	assert.True(t, box.ContainsPoint(mgl64.Vec3{0, 0.5, 1}))
	assert.False(t, box.ContainsPoint(mgl64.Vec3{1.0001, 0.5, 0.5}))
	assert.False(t, box.ContainsPoint(mgl64.Vec3{-1, -1, -1}))
}

func TestAABB_ExtendUnionGrow(t *testing.T) {
	box := EmptyAABB().Extend(mgl64.Vec3{1, 2, 3}).Extend(mgl64.Vec3{-1, 0, 5})
	assert.Equal(t, mgl64.Vec3{-1, 0, 3}, box.Min)
	assert.Equal(t, mgl64.Vec3{1, 2, 5}, box.Max)

	union := box.Union(unitBox())
	assert.Equal(t, mgl64.Vec3{-1, 0, 0}, union.Min)
	assert.Equal(t, mgl64.Vec3{1, 2, 5}, union.Max)

	grown := unitBox().Grow(0.5)
	assert.Equal(t, mgl64.Vec3{-0.5, -0.5, -0.5}, grown.Min)
	assert.Equal(t, mgl64.Vec3{2, 2, 2}, grown.Size())
	assert.Equal(t, mgl64.Vec3{0.5, 0.5, 0.5}, grown.Center())
}

func TestAABB_EmptyOverlapsNothing(t *testing.T) {
	assert.False(t, EmptyAABB().Overlaps(unitBox()))
	assert.False(t, EmptyAABB().ContainsPoint(mgl64.Vec3{}))
}

func TestAABB_Transformed(t *testing.T) {
	rotation := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})
	transform := NewTransformAt(mgl64.Vec3{10, 0, 0}, rotation)
	box := AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}

	out := box.Transformed(transform)

	assert.InDelta(t, 10-math.Sqrt2, out.Min.X(), 1e-9)
	assert.InDelta(t, 10+math.Sqrt2, out.Max.X(), 1e-9)
	assert.InDelta(t, -1, out.Min.Y(), 1e-9)
	assert.InDelta(t, math.Sqrt2, out.Max.Z(), 1e-9)
}

func TestTransform_InverseRoundTrip(t *testing.T) {
	transform := NewTransformAt(mgl64.Vec3{1, 2, 3}, mgl64.QuatRotate(0.7, mgl64.Vec3{1, 1, 0}.Normalize()))
	point := mgl64.Vec3{-4, 0.5, 2}

	world := transform.Apply(point)

	assert.True(t, transform.Inverse().Apply(world).ApproxEqualThreshold(point, 1e-9))
	assert.True(t, transform.InverseApply(world).ApproxEqualThreshold(point, 1e-9))
}
