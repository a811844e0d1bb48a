package rink

import (
	"github.com/akmonengine/rink/actor"
	"github.com/akmonengine/rink/constraint"
	"github.com/akmonengine/rink/epa"
	"github.com/akmonengine/rink/gjk"
)

// Dispatcher runs the narrow phase: it routes each broad-phase pair to the
// matching algorithm and turns overlaps into contact constraints.
type Dispatcher struct {
	config  *CollisionConfiguration
	workers int
}

func newDispatcher(config *CollisionConfiguration, workers int) *Dispatcher {
	return &Dispatcher{config: config, workers: workers}
}

type narrowJob struct {
	pair     Pair
	contacts []*constraint.ContactConstraint
}

// Dispatch computes the contacts of all pairs. Pairs are processed by the
// worker pool; the output order follows the input order.
func (d *Dispatcher) Dispatch(pairs []Pair) []*constraint.ContactConstraint {
	jobs := make([]*narrowJob, len(pairs))
	for i, pair := range pairs {
		jobs[i] = &narrowJob{pair: pair}
	}

	task(d.workers, jobs, func(job *narrowJob) {
		job.contacts = d.collide(job.pair.BodyA, job.pair.BodyB)
	})

	contacts := make([]*constraint.ContactConstraint, 0, len(pairs))
	for _, job := range jobs {
		contacts = append(contacts, job.contacts...)
	}
	return contacts
}

func (d *Dispatcher) collide(bodyA, bodyB *actor.RigidBody) []*constraint.ContactConstraint {
	_, aIsMesh := bodyA.Shape.(*actor.TriangleMesh)
	_, bIsMesh := bodyB.Shape.(*actor.TriangleMesh)

	switch {
	case aIsMesh && bIsMesh:
		return nil
	case aIsMesh:
		return d.collideMesh(bodyA, bodyB)
	case bIsMesh:
		return d.collideMesh(bodyB, bodyA)
	}

	contact, ok := collideConvex(bodyA, bodyB)
	if !ok {
		return nil
	}
	return []*constraint.ContactConstraint{{
		BodyA:      bodyA,
		BodyB:      bodyB,
		Normal:     contact.Normal,
		Points:     []constraint.ContactPoint{{Position: contact.Point(), Penetration: contact.Depth}},
		Compliance: d.config.ContactCompliance,
	}}
}

func collideConvex(a, b gjk.Convex) (epa.Contact, bool) {
	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	if !gjk.GJK(a, b, simplex) {
		return epa.Contact{}, false
	}

	contact, err := epa.EPA(a, b, simplex)
	if err != nil {
		return epa.Contact{}, false
	}
	return contact, true
}

// collideMesh tests a convex body against every mesh triangle near it.
// Triangles are one-sided: a body whose centre lies behind the face, or a
// contact pushing it through the face, is ignored. Contacts with nearly
// parallel normals are merged into one constraint so that a flat wall split
// into several triangles corrects only once.
func (d *Dispatcher) collideMesh(meshBody, other *actor.RigidBody) []*constraint.ContactConstraint {
	mesh := meshBody.Shape.(*actor.TriangleMesh)

	// other's bounds in mesh space
	local := other.Shape.GetAABB().Transformed(meshBody.Transform.Inverse())
	local = local.Grow(d.config.ContactMargin)

	var constraints []*constraint.ContactConstraint
	mesh.Query(local, func(_ int, tri actor.Triangle) bool {
		worldTri := tri.Transformed(meshBody.Transform)
		face := worldTri.Normal()
		if other.Center().Sub(worldTri.A).Dot(face) < 0 {
			return true
		}
		contact, ok := collideConvex(worldTri, other)
		if !ok || contact.Normal.Dot(face) < 0 {
			return true
		}

		point := constraint.ContactPoint{Position: contact.Point(), Penetration: contact.Depth}
		for _, c := range constraints {
			if c.Normal.Dot(contact.Normal) >= d.config.NormalMergeCosine {
				c.Points = append(c.Points, point)
				return true
			}
		}
		constraints = append(constraints, &constraint.ContactConstraint{
			BodyA:      meshBody,
			BodyB:      other,
			Normal:     contact.Normal,
			Points:     []constraint.ContactPoint{point},
			Compliance: d.config.ContactCompliance,
		})
		return true
	})

	return constraints
}
