package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns an inverted box that any Extend call replaces
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Extend grows the box to contain point
func (a AABB) Extend(point mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		a.Min[i] = math.Min(a.Min[i], point[i])
		a.Max[i] = math.Max(a.Max[i], point[i])
	}
	return a
}

// Union returns the smallest box containing both boxes
func (a AABB) Union(other AABB) AABB {
	return a.Extend(other.Min).Extend(other.Max)
}

// Grow pads every side of the box by margin
func (a AABB) Grow(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Center returns the middle of the box
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Size returns the full extents of the box
func (a AABB) Size() mgl64.Vec3 {
	return a.Max.Sub(a.Min)
}

// Transformed returns the world AABB enclosing this local box under transform
func (a AABB) Transformed(transform Transform) AABB {
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		corner := mgl64.Vec3{a.Min.X(), a.Min.Y(), a.Min.Z()}
		if i&1 != 0 {
			corner[0] = a.Max.X()
		}
		if i&2 != 0 {
			corner[1] = a.Max.Y()
		}
		if i&4 != 0 {
			corner[2] = a.Max.Z()
		}
		out = out.Extend(transform.Apply(corner))
	}
	return out
}
