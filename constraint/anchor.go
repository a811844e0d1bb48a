package constraint

import (
	"github.com/akmonengine/rink/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Anchor pulls a point of a body toward a world-space target, like a
// point-to-point joint attached to the world. A positive Compliance makes it
// a soft spring.
type Anchor struct {
	Body       *actor.RigidBody
	LocalPivot mgl64.Vec3
	Target     mgl64.Vec3
	Compliance float64
	// Damping removes this fraction of the pivot velocity along the
	// constraint direction on every velocity pass (0..1)
	Damping float64
}

// NewAnchor attaches the body's centre of mass to target
func NewAnchor(body *actor.RigidBody, target mgl64.Vec3, compliance float64) *Anchor {
	return &Anchor{
		Body:       body,
		Target:     target,
		Compliance: compliance,
		Damping:    0.1,
	}
}

// Distance returns the current distance between the pivot and the target
func (a *Anchor) Distance() float64 {
	return a.pivotWorld().Sub(a.Target).Len()
}

func (a *Anchor) pivotWorld() mgl64.Vec3 {
	return a.Body.Transform.Apply(a.LocalPivot)
}

func (a *Anchor) SolvePosition(dt float64) {
	if a.Body.BodyType == actor.BodyTypeStatic {
		return
	}

	r := a.Body.Transform.Rotation.Rotate(a.LocalPivot)
	delta := a.Body.Transform.Position.Add(r).Sub(a.Target)
	distance := delta.Len()
	if distance < 1e-9 {
		return
	}
	n := delta.Mul(1.0 / distance)

	w := a.Body.EffectiveInverseMass(r, n)
	if w < 1e-10 {
		return
	}

	alphaTilde := a.Compliance / (dt * dt)
	deltaLambda := -distance / (w + alphaTilde)

	a.Body.Awake()
	a.Body.ApplyPositionImpulse(n.Mul(deltaLambda), r)
}

func (a *Anchor) SolveVelocity(dt float64) {
	if a.Body.BodyType == actor.BodyTypeStatic || a.Damping <= 0 {
		return
	}

	r := a.Body.Transform.Rotation.Rotate(a.LocalPivot)
	delta := a.Body.Transform.Position.Add(r).Sub(a.Target)
	if delta.Len() < 1e-9 {
		return
	}
	n := delta.Normalize()

	w := a.Body.EffectiveInverseMass(r, n)
	if w < 1e-10 {
		return
	}

	vn := a.Body.VelocityAt(r).Dot(n)
	a.Body.ApplyVelocityImpulse(n.Mul(-vn*a.Damping/w), r)
}
