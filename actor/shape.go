package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeInterface is the interface that all collision shapes must implement
type ShapeInterface interface {
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform)
	GetAABB() AABB
	// Volume is used by callers deriving a mass from a density
	Volume() float64
	// ComputeInertia returns the diagonal of the local inertia tensor
	ComputeInertia(mass float64) mgl64.Vec3
	// Support returns the furthest local point in the given local direction
	Support(direction mgl64.Vec3) mgl64.Vec3
}

// Cylinder is a collision cylinder aligned with the local Y axis
type Cylinder struct {
	Radius     float64
	HalfHeight float64
	aabb       AABB
}

// NewCylinder builds a Y-aligned cylinder from its half extents
// (radius, half height, radius). The Z component is ignored.
func NewCylinder(halfExtents mgl64.Vec3) *Cylinder {
	return &Cylinder{
		Radius:     halfExtents.X(),
		HalfHeight: halfExtents.Y(),
	}
}

func (c *Cylinder) ComputeAABB(transform Transform) {
	axis := transform.Rotation.Rotate(mgl64.Vec3{0, 1, 0})

	var extent mgl64.Vec3
	for i := 0; i < 3; i++ {
		a := math.Abs(axis[i])
		// cap disks contribute r*sqrt(1-a²) along each world axis
		extent[i] = c.HalfHeight*a + c.Radius*math.Sqrt(math.Max(0, 1-a*a))
	}

	c.aabb = AABB{
		Min: transform.Position.Sub(extent),
		Max: transform.Position.Add(extent),
	}
}

func (c *Cylinder) GetAABB() AABB {
	return c.aabb
}

// Volume = π r² h
func (c *Cylinder) Volume() float64 {
	return math.Pi * c.Radius * c.Radius * 2 * c.HalfHeight
}

func (c *Cylinder) ComputeInertia(mass float64) mgl64.Vec3 {
	h := 2 * c.HalfHeight
	r2 := c.Radius * c.Radius

	side := mass * (3*r2 + h*h) / 12.0
	return mgl64.Vec3{side, 0.5 * mass * r2, side}
}

func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	var support mgl64.Vec3

	planar := math.Hypot(direction.X(), direction.Z())
	if planar > 1e-12 {
		support[0] = c.Radius * direction.X() / planar
		support[2] = c.Radius * direction.Z() / planar
	}

	if direction.Y() < 0 {
		support[1] = -c.HalfHeight
	} else {
		support[1] = c.HalfHeight
	}

	return support
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
	aabb        AABB
}

func (b *Box) ComputeAABB(transform Transform) {
	local := AABB{Min: b.HalfExtents.Mul(-1), Max: b.HalfExtents}
	b.aabb = local.Transformed(transform)
}

func (b *Box) GetAABB() AABB {
	return b.aabb
}

// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
func (b *Box) Volume() float64 {
	return 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()
}

func (b *Box) ComputeInertia(mass float64) mgl64.Vec3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2

	// I = (m/12) * (d1² + d2²)
	factor := mass / 12.0
	return mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	}
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}
