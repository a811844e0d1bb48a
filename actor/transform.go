package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and an orientation in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewTransformAt creates a transform at the given position and rotation.
// The rotation is normalized.
func NewTransformAt(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	rotation = rotation.Normalize()
	return Transform{
		Position:        position,
		Rotation:        rotation,
		InverseRotation: rotation.Inverse(),
	}
}

// Basis returns the 3x3 rotation matrix of the transform
func (t Transform) Basis() mgl64.Mat3 {
	return t.Rotation.Mat4().Mat3()
}

// Apply maps a local point into world space
func (t Transform) Apply(point mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(point).Add(t.Position)
}

// InverseApply maps a world point into local space
func (t Transform) InverseApply(point mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(point.Sub(t.Position))
}

// Inverse returns the transform mapping world space back to local space
func (t Transform) Inverse() Transform {
	return Transform{
		Position:        t.InverseRotation.Rotate(t.Position.Mul(-1)),
		Rotation:        t.InverseRotation,
		InverseRotation: t.Rotation,
	}
}
