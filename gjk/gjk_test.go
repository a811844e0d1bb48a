package gjk

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

// box is an axis-aligned convex box used as a support-mapped shape
type box struct {
	center mgl64.Vec3
	half   mgl64.Vec3
}

func (b box) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	out := b.center
	for i := 0; i < 3; i++ {
		if direction[i] < 0 {
			out[i] -= b.half[i]
		} else {
			out[i] += b.half[i]
		}
	}
	return out
}

func (b box) Center() mgl64.Vec3 { return b.center }

// sphere is a round convex shape
type sphere struct {
	center mgl64.Vec3
	radius float64
}

func (s sphere) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.Len() < 1e-12 {
		return s.center.Add(mgl64.Vec3{s.radius, 0, 0})
	}
	return s.center.Add(direction.Normalize().Mul(s.radius))
}

func (s sphere) Center() mgl64.Vec3 { return s.center }

// tri is a flat triangle
type tri [3]mgl64.Vec3

func (t tri) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	best := t[0]
	for _, p := range t[1:] {
		if p.Dot(direction) > best.Dot(direction) {
			best = p
		}
	}
	return best
}

func (t tri) Center() mgl64.Vec3 { return t[0].Add(t[1]).Add(t[2]).Mul(1.0 / 3.0) }

func unitBox(x, y, z float64) box {
	return box{center: mgl64.Vec3{x, y, z}, half: mgl64.Vec3{0.5, 0.5, 0.5}}
}

func TestMinkowskiSupport(t *testing.T) {
	a := unitBox(0, 0, 0)
	b := unitBox(3, 0, 0)

	v := MinkowskiSupport(a, b, mgl64.Vec3{1, 1, 1})

	assert.Equal(t, mgl64.Vec3{0.5, 0.5, 0.5}, v.A)
	assert.Equal(t, mgl64.Vec3{0.5 - 2.5, 1, 1}, v.P)
}

func TestGJK(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Convex
		expected bool
	}{
		{"boxes overlapping", unitBox(0, 0, 0), unitBox(0.7, 0.2, 0), true},
		{"boxes separated", unitBox(0, 0, 0), unitBox(1.5, 0, 0), false},
		{"boxes separated diagonally", unitBox(0, 0, 0), unitBox(1.1, 1.1, 1.1), false},
		{"same position", unitBox(0, 0, 0), unitBox(0, 0, 0), true},
		{"spheres overlapping", sphere{mgl64.Vec3{0, 0, 0}, 1}, sphere{mgl64.Vec3{1.5, 0.5, 0}, 1}, true},
		{"spheres separated", sphere{mgl64.Vec3{0, 0, 0}, 1}, sphere{mgl64.Vec3{2.1, 0, 0}, 1}, false},
		{"box in sphere", sphere{mgl64.Vec3{0, 0, 0}, 3}, unitBox(0.5, 0, 0), true},
		{"box and sphere apart", unitBox(0, 0, 0), sphere{mgl64.Vec3{1.4, 1.4, 0}, 1}, false},
		{
			"triangle under box",
			tri{{-2, 0, -2}, {-2, 0, 2}, {2, 0, 0}},
			unitBox(0, 0.45, 0),
			true,
		},
		{
			"triangle below box",
			tri{{-2, 0, -2}, {-2, 0, 2}, {2, 0, 0}},
			unitBox(0, 0.6, 0),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simplex := SimplexPool.Get().(*Simplex)
			defer SimplexPool.Put(simplex)
			simplex.Reset()

			assert.Equal(t, tt.expected, GJK(tt.a, tt.b, simplex))
			// swapping the shapes gives the same answer
			simplex.Reset()
			assert.Equal(t, tt.expected, GJK(tt.b, tt.a, simplex))
		})
	}
}

func TestGJK_SimplexReadyForEPA(t *testing.T) {
	simplex := &Simplex{}

	hit := GJK(unitBox(0, 0, 0), unitBox(0.5, 0.3, 0.2), simplex)

	assert.True(t, hit)
	assert.GreaterOrEqual(t, simplex.Count, 1)
	for i := 0; i < simplex.Count; i++ {
		// each vertex keeps the corner of A that produced it
		for axis := 0; axis < 3; axis++ {
			assert.InDelta(t, 0.5, math.Abs(simplex.Points[i].A[axis]), 1e-12)
		}
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		name      string
		a, b      mgl64.Vec3
		contains  bool
		count     int
		direction func(mgl64.Vec3) bool
	}{
		{
			name: "origin beside segment",
			a:    mgl64.Vec3{-1, 1, 0}, b: mgl64.Vec3{1, 1, 0},
			count:     2,
			direction: func(d mgl64.Vec3) bool { return d.Y() < 0 && d.X() == 0 },
		},
		{
			name: "origin behind newest point",
			a:    mgl64.Vec3{1, 0, 0}, b: mgl64.Vec3{2, 0, 0},
			count:     1,
			direction: func(d mgl64.Vec3) bool { return d.X() < 0 },
		},
		{
			name: "origin on segment",
			a:    mgl64.Vec3{-1, 0, 0}, b: mgl64.Vec3{1, 0, 0},
			contains: true,
			count:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simplex := &Simplex{Count: 2}
			// Points[1] is the newest point
			simplex.Points[0] = Vertex{P: tt.b}
			simplex.Points[1] = Vertex{P: tt.a}

			var direction mgl64.Vec3
			assert.Equal(t, tt.contains, line(simplex, &direction))
			assert.Equal(t, tt.count, simplex.Count)
			if tt.direction != nil {
				assert.True(t, tt.direction(direction), "direction %v", direction)
			}
		})
	}
}

func TestTetrahedron_ContainsOrigin(t *testing.T) {
	simplex := &Simplex{Count: 4}
	simplex.Points[0] = Vertex{P: mgl64.Vec3{1, -1, -1}}
	simplex.Points[1] = Vertex{P: mgl64.Vec3{-1, -1, -1}}
	simplex.Points[2] = Vertex{P: mgl64.Vec3{0, -1, 1}}
	simplex.Points[3] = Vertex{P: mgl64.Vec3{0, 1, 0}}

	var direction mgl64.Vec3
	assert.True(t, tetrahedron(simplex, &direction))
}

func TestTetrahedron_ReducesToFacingTriangle(t *testing.T) {
	simplex := &Simplex{Count: 4}
	simplex.Points[0] = Vertex{P: mgl64.Vec3{1, 1, 1}}
	simplex.Points[1] = Vertex{P: mgl64.Vec3{-1, 1, 1}}
	simplex.Points[2] = Vertex{P: mgl64.Vec3{0, 1, 3}}
	simplex.Points[3] = Vertex{P: mgl64.Vec3{0, 3, 2}}

	var direction mgl64.Vec3
	assert.False(t, tetrahedron(simplex, &direction))
	assert.Less(t, simplex.Count, 4)
}

func BenchmarkGJK_Boxes(b *testing.B) {
	a := unitBox(0, 0, 0)
	c := unitBox(0.7, 0.2, 0.1)
	simplex := &Simplex{}
	for i := 0; i < b.N; i++ {
		simplex.Reset()
		GJK(a, c, simplex)
	}
}
