package constraint

import (
	"math"

	"github.com/akmonengine/rink/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultCompliance controls soft constraint stiffness for contact resolution.
	// Lower values = stiffer contacts (less penetration, potential jitter)
	// Higher values = softer contacts (more penetration, smoother)
	// Typical range: 1e-10 (very stiff) to 1e-6 (soft)
	DefaultCompliance = 1e-7

	penetrationSlop = 1e-8
)

type ContactPoint struct {
	Position    mgl64.Vec3
	Penetration float64
}

// ContactConstraint keeps two bodies from interpenetrating along Normal,
// which points from BodyA toward BodyB.
type ContactConstraint struct {
	BodyA      *actor.RigidBody
	BodyB      *actor.RigidBody
	Points     []ContactPoint
	Normal     mgl64.Vec3
	Compliance float64
}

// resting reports whether neither body can move this substep
func (c *ContactConstraint) resting() bool {
	frozen := func(b *actor.RigidBody) bool {
		return b.IsSleeping || b.BodyType == actor.BodyTypeStatic
	}
	return frozen(c.BodyA) && frozen(c.BodyB)
}

// SolvePosition resolves penetration (PBD style, no lambda accumulation).
// All points share one correction so that coplanar points do not add up.
func (c *ContactConstraint) SolvePosition(dt float64) {
	if len(c.Points) == 0 {
		return
	}
	if c.resting() {
		return
	}

	bodyA := c.BodyA
	bodyB := c.BodyB

	var totalWeight, totalPenetration float64
	var center mgl64.Vec3
	count := 0

	for _, point := range c.Points {
		if point.Penetration <= penetrationSlop {
			continue
		}

		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)

		totalWeight += bodyA.EffectiveInverseMass(rA, c.Normal) + bodyB.EffectiveInverseMass(rB, c.Normal)
		totalPenetration += point.Penetration
		center = center.Add(point.Position)
		count++
	}

	if count == 0 || totalWeight <= 1e-8 {
		return
	}
	center = center.Mul(1.0 / float64(count))

	compliance := c.Compliance
	if compliance == 0 {
		compliance = DefaultCompliance
	}
	alphaTilde := compliance / (dt * dt)
	deltaLambda := -totalPenetration / (totalWeight + alphaTilde)

	// A receives +impulse, B receives -impulse
	impulse := c.Normal.Mul(deltaLambda)
	bodyA.ApplyPositionImpulse(impulse, center.Sub(bodyA.Transform.Position))
	bodyB.ApplyPositionImpulse(impulse.Mul(-1), center.Sub(bodyB.Transform.Position))
}

// SolveVelocity applies restitution and Coulomb friction
func (c *ContactConstraint) SolveVelocity(dt float64) {
	if len(c.Points) == 0 {
		return
	}
	if c.resting() {
		return
	}

	bodyA := c.BodyA
	bodyB := c.BodyB

	surface := Combine(bodyA.Material, bodyB.Material)

	for _, point := range c.Points {
		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)

		relativeVel := bodyB.VelocityAt(rB).Sub(bodyA.VelocityAt(rA))
		normalVel := relativeVel.Dot(c.Normal)

		relativeVelPrev := bodyB.PresolveVelocityAt(rB).Sub(bodyA.PresolveVelocityAt(rA))
		normalVelPrev := relativeVelPrev.Dot(c.Normal)

		effectiveMassNormal := bodyA.EffectiveInverseMass(rA, c.Normal) + bodyB.EffectiveInverseMass(rB, c.Normal)
		if effectiveMassNormal < 1e-10 {
			continue
		}

		// ========== NORMAL IMPULSE (restitution) ==========
		// The separation speed is restitution times the approach speed,
		// whatever velocity the position pass left behind.
		var lambdaNormal, lambdaCollision float64
		if normalVelPrev < 0 {
			targetVel := -surface.Restitution * normalVelPrev
			lambdaNormal = (targetVel - normalVel) / effectiveMassNormal
			lambdaCollision = (targetVel - normalVelPrev) / effectiveMassNormal
		} else {
			// already separating: only strip the speed the correction added
			lambdaNormal = math.Min(0, (normalVelPrev-normalVel)/effectiveMassNormal)
		}
		if lambdaNormal != 0 {
			normalImpulse := c.Normal.Mul(lambdaNormal)
			bodyA.ApplyVelocityImpulse(normalImpulse.Mul(-1), rA)
			bodyB.ApplyVelocityImpulse(normalImpulse, rB)
		}
		if lambdaCollision <= 0 {
			continue
		}

		// ========== TANGENTIAL IMPULSE (friction) ==========
		relativeVel = bodyB.VelocityAt(rB).Sub(bodyA.VelocityAt(rA))
		tangentVel := relativeVel.Sub(c.Normal.Mul(relativeVel.Dot(c.Normal)))
		tangentSpeed := tangentVel.Len()
		if tangentSpeed <= 1e-6 {
			continue
		}
		tangentDir := tangentVel.Mul(1.0 / tangentSpeed)

		effectiveMassTangent := bodyA.EffectiveInverseMass(rA, tangentDir) + bodyB.EffectiveInverseMass(rB, tangentDir)
		if effectiveMassTangent < 1e-10 {
			continue
		}

		// impulse cancelling the tangential velocity
		lambdaTangent := tangentSpeed / effectiveMassTangent

		// Coulomb's law: |F_friction| ≤ μ * |F_normal|
		if lambdaTangent > surface.StaticFriction*lambdaCollision {
			lambdaTangent = math.Min(lambdaTangent, surface.DynamicFriction*lambdaCollision)
		}

		frictionImpulse := tangentDir.Mul(-lambdaTangent)
		bodyA.ApplyVelocityImpulse(frictionImpulse.Mul(-1), rA)
		bodyB.ApplyVelocityImpulse(frictionImpulse, rB)
	}

	settle(bodyA)
	settle(bodyB)
}
