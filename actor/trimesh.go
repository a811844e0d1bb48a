package actor

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

const bvhLeafSize = 4

// Triangle is a single face. As a convex piece it is expressed in world space.
type Triangle struct {
	A, B, C mgl64.Vec3
}

// Normal returns the unit face normal following the A, B, C winding
func (t Triangle) Normal() mgl64.Vec3 {
	n := t.B.Sub(t.A).Cross(t.C.Sub(t.A))
	if n.LenSqr() < 1e-24 {
		return mgl64.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

// Center returns the centroid
func (t Triangle) Center() mgl64.Vec3 {
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

// SupportWorld returns the vertex furthest along direction
func (t Triangle) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	best := t.A
	bestDot := t.A.Dot(direction)
	if d := t.B.Dot(direction); d > bestDot {
		best, bestDot = t.B, d
	}
	if d := t.C.Dot(direction); d > bestDot {
		best = t.C
	}
	return best
}

func (t Triangle) bounds() AABB {
	return EmptyAABB().Extend(t.A).Extend(t.B).Extend(t.C)
}

// Transformed maps the triangle from local into world space
func (t Triangle) Transformed(transform Transform) Triangle {
	return Triangle{
		A: transform.Apply(t.A),
		B: transform.Apply(t.B),
		C: transform.Apply(t.C),
	}
}

type bvhNode struct {
	bounds      AABB
	left, right int // child node indices, -1 for leaves
	start, end  int // triangle index range for leaves
}

// TriangleMesh is a static, non-convex collision shape backed by a bounding
// volume hierarchy. Triangles are stored in local space.
type TriangleMesh struct {
	Triangles []Triangle
	nodes     []bvhNode
	order     []int
	local     AABB
	aabb      AABB
}

// NewTriangleMesh builds the BVH over the given local-space triangles
func NewTriangleMesh(triangles []Triangle) *TriangleMesh {
	m := &TriangleMesh{
		Triangles: triangles,
		order:     make([]int, len(triangles)),
		local:     EmptyAABB(),
	}
	for i, tri := range triangles {
		m.order[i] = i
		m.local = m.local.Union(tri.bounds())
	}
	if len(triangles) > 0 {
		m.nodes = make([]bvhNode, 0, 2*len(triangles)/bvhLeafSize+1)
		m.build(0, len(triangles))
	}
	return m
}

// build creates the node covering order[start:end] and returns its index
func (m *TriangleMesh) build(start, end int) int {
	bounds := EmptyAABB()
	centroids := EmptyAABB()
	for _, idx := range m.order[start:end] {
		tri := m.Triangles[idx]
		bounds = bounds.Union(tri.bounds())
		centroids = centroids.Extend(tri.Center())
	}

	nodeIdx := len(m.nodes)
	m.nodes = append(m.nodes, bvhNode{bounds: bounds, left: -1, right: -1, start: start, end: end})
	if end-start <= bvhLeafSize {
		return nodeIdx
	}

	// split on the longest centroid axis at the median
	size := centroids.Size()
	axis := 0
	if size[1] > size[axis] {
		axis = 1
	}
	if size[2] > size[axis] {
		axis = 2
	}
	sub := m.order[start:end]
	sort.Slice(sub, func(i, j int) bool {
		return m.Triangles[sub[i]].Center()[axis] < m.Triangles[sub[j]].Center()[axis]
	})

	mid := (start + end) / 2
	left := m.build(start, mid)
	right := m.build(mid, end)
	m.nodes[nodeIdx].left = left
	m.nodes[nodeIdx].right = right
	return nodeIdx
}

// Query calls fn for every triangle whose bounds overlap the local-space box.
// Iteration stops early when fn returns false.
func (m *TriangleMesh) Query(box AABB, fn func(index int, tri Triangle) bool) {
	if len(m.nodes) == 0 {
		return
	}

	stack := make([]int, 0, 32)
	stack = append(stack, 0)
	for len(stack) > 0 {
		node := m.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if !node.bounds.Overlaps(box) {
			continue
		}
		if node.left < 0 {
			for _, idx := range m.order[node.start:node.end] {
				tri := m.Triangles[idx]
				if !tri.bounds().Overlaps(box) {
					continue
				}
				if !fn(idx, tri) {
					return
				}
			}
			continue
		}
		stack = append(stack, node.left, node.right)
	}
}

// LocalBounds returns the local-space bounds of all triangles
func (m *TriangleMesh) LocalBounds() AABB {
	return m.local
}

func (m *TriangleMesh) ComputeAABB(transform Transform) {
	if len(m.Triangles) == 0 {
		m.aabb = AABB{Min: transform.Position, Max: transform.Position}
		return
	}
	m.aabb = m.local.Transformed(transform)
}

func (m *TriangleMesh) GetAABB() AABB {
	return m.aabb
}

// Volume is zero: triangle meshes only serve static geometry
func (m *TriangleMesh) Volume() float64 {
	return 0
}

func (m *TriangleMesh) ComputeInertia(mass float64) mgl64.Vec3 {
	return mgl64.Vec3{}
}

// Support returns the vertex of the convex hull furthest along direction
func (m *TriangleMesh) Support(direction mgl64.Vec3) mgl64.Vec3 {
	var best mgl64.Vec3
	bestDot := math.Inf(-1)
	for _, tri := range m.Triangles {
		p := tri.SupportWorld(direction)
		if d := p.Dot(direction); d > bestDot {
			best, bestDot = p, d
		}
	}
	return best
}
