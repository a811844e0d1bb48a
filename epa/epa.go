// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA is run after GJK detects a collision to determine:
//   - Penetration depth (how far shapes overlap)
//   - Contact normal (direction to separate shapes)
//   - Contact point (where shapes touch)
//
// The algorithm expands a polytope (starting from GJK's final simplex) toward the origin
// in the Minkowski difference space, finding the closest face which gives us the
// Minimum Translation Vector (MTV) to separate the shapes.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"fmt"
	"math"

	"github.com/akmonengine/rink/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// EPAMaxIterations limits polytope expansion to prevent infinite loops.
	EPAMaxIterations = 32

	// EPAConvergenceTolerance defines when EPA has converged: a new support point
	// improving the closest distance by less than this ends the expansion.
	EPAConvergenceTolerance = 0.0001

	// NormalSnapThreshold is used to clamp nearly-zero normal components to exactly zero.
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is a fallback penetration depth for degenerate cases
	// where we have insufficient simplex points to compute accurate depth.
	DegeneratePenetrationEstimate = 0.001
)

// Contact is the result of a penetration query between A and B.
// Normal points from A toward B; moving B by Normal*Depth separates the shapes.
type Contact struct {
	Normal mgl64.Vec3
	Depth  float64
	PointA mgl64.Vec3 // deepest point of A inside B
	PointB mgl64.Vec3 // deepest point of B inside A
}

// Point returns the midpoint between both witness points
func (c Contact) Point() mgl64.Vec3 {
	return c.PointA.Add(c.PointB).Mul(0.5)
}

type face struct {
	a, b, c  int
	normal   mgl64.Vec3
	distance float64
}

type edge struct {
	a, b int
}

type polytope struct {
	vertices []gjk.Vertex
	faces    []face
}

func (p *polytope) addFace(a, b, c int) {
	pa, pb, pc := p.vertices[a].P, p.vertices[b].P, p.vertices[c].P
	normal := pb.Sub(pa).Cross(pc.Sub(pa))
	if normal.LenSqr() < 1e-20 {
		return
	}
	normal = normal.Normalize()
	distance := normal.Dot(pa)
	// the origin is inside: outward normals have positive distance
	if distance < 0 {
		normal = normal.Mul(-1)
		distance = -distance
		b, c = c, b
	}
	p.faces = append(p.faces, face{a: a, b: b, c: c, normal: normal, distance: distance})
}

func (p *polytope) closest() int {
	best := 0
	for i := 1; i < len(p.faces); i++ {
		if p.faces[i].distance < p.faces[best].distance {
			best = i
		}
	}
	return best
}

// expand adds a support point, removing every face it can see and stitching
// the horizon to it
func (p *polytope) expand(v gjk.Vertex) {
	idx := len(p.vertices)
	p.vertices = append(p.vertices, v)

	var horizon []edge
	kept := p.faces[:0]
	for _, f := range p.faces {
		if f.normal.Dot(v.P.Sub(p.vertices[f.a].P)) > 0 {
			horizon = toggleEdge(horizon, edge{f.a, f.b})
			horizon = toggleEdge(horizon, edge{f.b, f.c})
			horizon = toggleEdge(horizon, edge{f.c, f.a})
			continue
		}
		kept = append(kept, f)
	}
	p.faces = kept

	for _, e := range horizon {
		p.addFace(e.a, e.b, idx)
	}
}

// toggleEdge keeps edges shared by two removed faces out of the horizon
func toggleEdge(edges []edge, e edge) []edge {
	for i, other := range edges {
		if other.a == e.b && other.b == e.a {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return append(edges, e)
}

// EPA computes penetration depth and contact information for overlapping convex shapes.
//
// The simplex is the final simplex from GJK. Smaller simplices are completed
// with extra support points before expansion starts.
func EPA(a, b gjk.Convex, simplex *gjk.Simplex) (Contact, error) {
	if simplex.Count < 4 {
		completeSimplex(a, b, simplex)
	}
	if simplex.Count < 4 {
		return handleDegenerateSimplex(a, b, simplex), nil
	}

	p := polytope{
		vertices: make([]gjk.Vertex, 0, 4+EPAMaxIterations),
		faces:    make([]face, 0, 16),
	}
	p.vertices = append(p.vertices, simplex.Points[:4]...)
	p.addFace(0, 1, 2)
	p.addFace(0, 3, 1)
	p.addFace(0, 2, 3)
	p.addFace(1, 3, 2)

	for i := 0; i < EPAMaxIterations; i++ {
		if len(p.faces) == 0 {
			break
		}

		closest := p.faces[p.closest()]
		support := gjk.MinkowskiSupport(a, b, closest.normal)
		distance := support.P.Dot(closest.normal)

		if distance-closest.distance < EPAConvergenceTolerance {
			return buildContact(&p, closest), nil
		}

		p.expand(support)
	}

	if len(p.faces) > 0 {
		// best estimate so far
		return buildContact(&p, p.faces[p.closest()]), nil
	}

	return Contact{}, fmt.Errorf("EPA failed to converge after %d iterations", EPAMaxIterations)
}

func buildContact(p *polytope, f face) Contact {
	normal := snapNormalToAxis(f.normal)

	va, vb, vc := p.vertices[f.a], p.vertices[f.b], p.vertices[f.c]
	u, v, w := barycentric(normal.Mul(f.distance), va.P, vb.P, vc.P)
	pointA := va.A.Mul(u).Add(vb.A.Mul(v)).Add(vc.A.Mul(w))

	return Contact{
		Normal: normal,
		Depth:  f.distance,
		PointA: pointA,
		PointB: pointA.Sub(normal.Mul(f.distance)),
	}
}

// barycentric returns the coordinates of point p projected on triangle abc,
// clamped to the triangle
func barycentric(p, a, b, c mgl64.Vec3) (float64, float64, float64) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)

	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)

	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-18 {
		return 1, 0, 0
	}

	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	v = math.Max(0, math.Min(1, v))
	w = math.Max(0, math.Min(1-v, w))
	return 1 - v - w, v, w
}

var completionDirections = [6]mgl64.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// completeSimplex grows a touching simplex into a tetrahedron when the
// Minkowski difference has volume in some axis direction
func completeSimplex(a, b gjk.Convex, simplex *gjk.Simplex) {
	for _, dir := range completionDirections {
		if simplex.Count == 4 {
			return
		}
		v := gjk.MinkowskiSupport(a, b, dir)
		if increasesDimension(simplex, v.P) {
			simplex.Points[simplex.Count] = v
			simplex.Count++
		}
	}
}

func increasesDimension(simplex *gjk.Simplex, p mgl64.Vec3) bool {
	const eps = 1e-9
	pts := simplex.Points
	switch simplex.Count {
	case 0:
		return true
	case 1:
		return p.Sub(pts[0].P).LenSqr() > eps
	case 2:
		return pts[1].P.Sub(pts[0].P).Cross(p.Sub(pts[0].P)).LenSqr() > eps
	case 3:
		n := pts[1].P.Sub(pts[0].P).Cross(pts[2].P.Sub(pts[0].P))
		return math.Abs(n.Dot(p.Sub(pts[0].P))) > eps
	}
	return false
}

// handleDegenerateSimplex estimates a contact when the Minkowski difference
// is flat, e.g. two faces exactly touching.
func handleDegenerateSimplex(a, b gjk.Convex, simplex *gjk.Simplex) Contact {
	var normal mgl64.Vec3
	penetration := DegeneratePenetrationEstimate

	if simplex.Count >= 1 {
		closest := simplex.Points[0].P
		for i := 1; i < simplex.Count; i++ {
			if simplex.Points[i].P.LenSqr() < closest.LenSqr() {
				closest = simplex.Points[i].P
			}
		}
		if closest.Len() > NormalSnapThreshold {
			normal = closest.Normalize()
			penetration = math.Max(closest.Len(), penetration)
		}
	}

	if normal.LenSqr() == 0 {
		normal = b.Center().Sub(a.Center())
		if normal.Len() < NormalSnapThreshold {
			normal = mgl64.Vec3{0, 1, 0}
		} else {
			normal = normal.Normalize()
		}
	}

	pointB := b.SupportWorld(normal.Mul(-1))
	return Contact{
		Normal: normal,
		Depth:  penetration,
		PointA: pointB.Add(normal.Mul(penetration)),
		PointB: pointB,
	}
}

// snapNormalToAxis clamps nearly-zero components of a normal vector to exactly zero
// and renormalizes, which keeps axis-aligned contacts free of tangential jitter.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if math.Abs(normal[i]) < NormalSnapThreshold {
			normal[i] = 0
		}
	}

	length := normal.Len()
	if length <= 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}
	return normal.Mul(1.0 / length)
}
