package actor

// MotionState bridges a rigid body's pose to an external representation.
// The body reads its initial transform from it and writes back after every step.
type MotionState interface {
	WorldTransform() Transform
	SetWorldTransform(transform Transform)
}

// DefaultMotionState keeps the last synchronized transform
type DefaultMotionState struct {
	transform Transform
}

// NewDefaultMotionState creates a motion state starting at the given transform
func NewDefaultMotionState(start Transform) *DefaultMotionState {
	return &DefaultMotionState{transform: start}
}

func (m *DefaultMotionState) WorldTransform() Transform {
	return m.transform
}

func (m *DefaultMotionState) SetWorldTransform(transform Transform) {
	m.transform = transform
}
