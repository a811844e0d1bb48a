package rink

import "github.com/akmonengine/rink/constraint"

// Solver runs one position pass and one velocity pass per substep.
// Contacts go first, then joints. Both passes are sequential: each
// constraint sees the corrections of the previous ones.
type Solver struct {
	config *CollisionConfiguration
}

func newSolver(config *CollisionConfiguration) *Solver {
	return &Solver{config: config}
}

func (s *Solver) SolvePositions(h float64, contacts []*constraint.ContactConstraint, joints []constraint.Constraint) {
	for _, c := range contacts {
		if c.Compliance == 0 {
			c.Compliance = s.config.ContactCompliance
		}
		c.SolvePosition(h)
	}
	for _, j := range joints {
		j.SolvePosition(h)
	}
}

func (s *Solver) SolveVelocities(h float64, contacts []*constraint.ContactConstraint, joints []constraint.Constraint) {
	for _, c := range contacts {
		c.SolveVelocity(h)
	}
	for _, j := range joints {
		j.SolveVelocity(h)
	}
}
