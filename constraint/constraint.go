package constraint

import (
	"math"

	"github.com/akmonengine/rink/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Constraint restricts the degrees of freedom of one or two bodies.
// Both passes run once per substep: positions first, then velocities.
type Constraint interface {
	SolvePosition(dt float64)
	SolveVelocity(dt float64)
}

// Surface is the response of two materials in contact
type Surface struct {
	Restitution     float64
	StaticFriction  float64
	DynamicFriction float64
}

// Combine mixes two materials: restitution is averaged so a lively puck
// still bounces off a dull wall, friction uses the geometric mean so a
// frictionless side cancels it.
func Combine(matA, matB actor.Material) Surface {
	return Surface{
		Restitution:     (matA.Restitution + matB.Restitution) / 2,
		StaticFriction:  math.Sqrt(matA.StaticFriction * matB.StaticFriction),
		DynamicFriction: math.Sqrt(matA.DynamicFriction * matB.DynamicFriction),
	}
}

// rest velocity below which a body is considered still
const restVelocity = 1e-5

// settle zeroes the velocities too small to matter
func settle(rb *actor.RigidBody) {
	if rb.Velocity.Len() < restVelocity {
		rb.Velocity = mgl64.Vec3{}
	}
	if rb.AngularVelocity.Len() < restVelocity {
		rb.AngularVelocity = mgl64.Vec3{}
	}
}
