package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., table, walls)
	BodyTypeStatic
)

type Material struct {
	mass        float64
	Restitution float64 // 0= no rebound, 1= perfect restitution

	StaticFriction  float64
	DynamicFriction float64
	LinearDamping   float64 // 0.0 - 1.0, typical: 0.01
	AngularDamping  float64 // 0.0 - 1.0, typical: 0.05
}

func (material Material) GetMass() float64 {
	return material.mass
}

// ConstructionInfo gathers what a rigid body needs at creation time.
// A zero Mass makes the body static.
type ConstructionInfo struct {
	Mass         float64
	LocalInertia mgl64.Vec3 // diagonal of the local inertia tensor
	Shape        ShapeInterface
	MotionState  MotionState

	Friction       float64
	Restitution    float64
	LinearDamping  float64
	AngularDamping float64
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// Spatial properties
	PreviousTransform Transform
	Transform         Transform
	MotionState       MotionState

	// Linear motion
	PresolveVelocity mgl64.Vec3
	Velocity         mgl64.Vec3 // Linear velocity (m/s)

	// Angular motion
	PresolveAngularVelocity mgl64.Vec3
	AngularVelocity         mgl64.Vec3 // rad/s
	InertiaLocal            mgl64.Mat3
	InverseInertiaLocal     mgl64.Mat3

	// Per-axis multipliers applied to every velocity and position change.
	// A zero component locks the matching degree of freedom.
	LinearFactor  mgl64.Vec3
	AngularFactor mgl64.Vec3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsSleeping          bool
	SleepTimer          float64
	DisableDeactivation bool
	IsTrigger           bool

	// Physical properties
	Material Material
	BodyType BodyType // Dynamic or Static

	// Collision shape
	Shape ShapeInterface
}

// NewRigidBody creates a rigid body. Its starting pose is read from the
// motion state; a nil motion state starts at the identity.
func NewRigidBody(info ConstructionInfo) *RigidBody {
	if info.MotionState == nil {
		info.MotionState = NewDefaultMotionState(NewTransform())
	}
	start := info.MotionState.WorldTransform()
	if start.Rotation == (mgl64.Quat{}) {
		start.Rotation = mgl64.QuatIdent()
	}
	start = NewTransformAt(start.Position, start.Rotation)

	rb := &RigidBody{
		PreviousTransform: start,
		Transform:         start,
		MotionState:       info.MotionState,
		Shape:             info.Shape,
		LinearFactor:      mgl64.Vec3{1, 1, 1},
		AngularFactor:     mgl64.Vec3{1, 1, 1},
		Material: Material{
			Restitution:     info.Restitution,
			StaticFriction:  info.Friction,
			DynamicFriction: info.Friction,
			LinearDamping:   info.LinearDamping,
			AngularDamping:  info.AngularDamping,
		},
	}

	if info.Mass <= 0 {
		rb.BodyType = BodyTypeStatic
		rb.Material.mass = math.Inf(1)
	} else {
		rb.BodyType = BodyTypeDynamic
		rb.Material.mass = info.Mass
		rb.InertiaLocal = mgl64.Diag3(info.LocalInertia)
		rb.InverseInertiaLocal = mgl64.Diag3(invertDiagonal(info.LocalInertia))
	}

	rb.Shape.ComputeAABB(rb.Transform)

	return rb
}

func invertDiagonal(v mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := 0; i < 3; i++ {
		if v[i] > 0 {
			out[i] = 1.0 / v[i]
		}
	}
	return out
}

func mulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// InverseMass returns 0 for static bodies
func (rb *RigidBody) InverseMass() float64 {
	if rb.BodyType == BodyTypeStatic {
		return 0
	}
	return 1.0 / rb.Material.mass
}

// SetWorldTransform teleports the body. Velocities are kept.
func (rb *RigidBody) SetWorldTransform(transform Transform) {
	transform = NewTransformAt(transform.Position, transform.Rotation)
	rb.Transform = transform
	rb.PreviousTransform = transform
	rb.MotionState.SetWorldTransform(transform)
	rb.Shape.ComputeAABB(rb.Transform)
}

// CenterOfMassTransform returns the live simulation pose
func (rb *RigidBody) CenterOfMassTransform() Transform {
	return rb.Transform
}

// SyncMotionState pushes the current pose to the motion state
func (rb *RigidBody) SyncMotionState() {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.MotionState.SetWorldTransform(rb.Transform)
}

func (rb *RigidBody) TrySleep(dt float64, timethreshold float64, velocityThreshold float64) {
	if rb.DisableDeactivation || rb.BodyType == BodyTypeStatic {
		return
	}
	if rb.Velocity.Len() < velocityThreshold && rb.AngularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timethreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0

	rb.Shape.ComputeAABB(rb.Transform)
	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}

	rb.PreviousTransform = rb.Transform

	// linear
	accel := gravity.Add(rb.accumulatedForce.Mul(rb.InverseMass()))
	rb.Velocity = rb.Velocity.Add(mulElem(accel.Mul(dt), rb.LinearFactor))
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	// angular
	angularAccel := rb.GetInverseInertiaWorld().Mul3x1(rb.accumulatedTorque)
	rb.AngularVelocity = rb.AngularVelocity.Add(mulElem(angularAccel.Mul(dt), rb.AngularFactor))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))

	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()

	rb.PresolveVelocity = rb.Velocity
	rb.PresolveAngularVelocity = rb.AngularVelocity

	rb.Shape.ComputeAABB(rb.Transform)
	rb.ClearForces()
}

// Update derives velocities from the solved positions
func (rb *RigidBody) Update(dt float64) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}

	velocity := rb.Transform.Position.Sub(rb.PreviousTransform.Position).Mul(1.0 / dt)
	rb.Velocity = mulElem(velocity, rb.LinearFactor)

	qDelta := rb.Transform.Rotation.Mul(rb.PreviousTransform.Rotation.Conjugate())
	qDelta = qDelta.Normalize()
	var angular mgl64.Vec3
	if qDelta.W >= 0.0 {
		angular = qDelta.V.Mul(2.0 / dt)
	} else {
		angular = qDelta.V.Mul(-2.0 / dt)
	}
	rb.AngularVelocity = mulElem(angular, rb.AngularFactor)
	rb.Shape.ComputeAABB(rb.Transform)
}

// AddForce accumulates a force (N) applied at the centre of mass until the next step
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.Awake()
		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque accumulates a torque (N⋅m) until the next step
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.Awake()
		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

// ApplyCentralImpulse changes the linear velocity by impulse / mass,
// filtered by the linear factor
func (rb *RigidBody) ApplyCentralImpulse(impulse mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.Awake()
	rb.Velocity = rb.Velocity.Add(mulElem(impulse.Mul(rb.InverseMass()), rb.LinearFactor))
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// Center is the world position used to seed collision queries
func (rb *RigidBody) Center() mgl64.Vec3 {
	return rb.Transform.Position
}

func (rb *RigidBody) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	localDirection := rb.Transform.InverseRotation.Rotate(direction)
	localSupport := rb.Shape.Support(localDirection)
	return rb.Transform.Position.Add(rb.Transform.Rotation.Rotate(localSupport))
}

// GetInertiaWorld returns R * I_local * R^T
func (rb *RigidBody) GetInertiaWorld() mgl64.Mat3 {
	R := rb.Transform.Basis()
	return R.Mul3(rb.InertiaLocal).Mul3(R.Transpose())
}

// GetInverseInertiaWorld returns R * I_local^(-1) * R^T
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.BodyType == BodyTypeStatic {
		return mgl64.Mat3{}
	}

	R := rb.Transform.Basis()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

// EffectiveInverseMass is the generalized inverse mass seen by a unit
// impulse along n applied at offset r from the centre of mass
func (rb *RigidBody) EffectiveInverseMass(r, n mgl64.Vec3) float64 {
	if rb.BodyType == BodyTypeStatic {
		return 0
	}
	linear := rb.InverseMass() * n.Dot(mulElem(rb.LinearFactor, n))
	rn := r.Cross(n)
	angular := mulElem(rb.GetInverseInertiaWorld().Mul3x1(rn), rb.AngularFactor).Dot(rn)
	return linear + angular
}

// ApplyPositionImpulse moves and rotates the body by a positional impulse
// applied at offset r
func (rb *RigidBody) ApplyPositionImpulse(impulse, r mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	rb.Transform.Position = rb.Transform.Position.Add(mulElem(impulse.Mul(rb.InverseMass()), rb.LinearFactor))

	deltaRot := mulElem(rb.GetInverseInertiaWorld().Mul3x1(r.Cross(impulse)), rb.AngularFactor)
	if deltaRot.Len() > 1e-10 {
		// small angle: q_delta ≈ [1, δθ/2]
		qDelta := mgl64.Quat{W: 1.0, V: deltaRot.Mul(0.5)}.Normalize()
		rb.Transform.Rotation = qDelta.Mul(rb.Transform.Rotation).Normalize()
		rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()
	}
}

// ApplyVelocityImpulse changes linear and angular velocity by an impulse at offset r
func (rb *RigidBody) ApplyVelocityImpulse(impulse, r mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	rb.Velocity = rb.Velocity.Add(mulElem(impulse.Mul(rb.InverseMass()), rb.LinearFactor))
	rb.AngularVelocity = rb.AngularVelocity.Add(
		mulElem(rb.GetInverseInertiaWorld().Mul3x1(r.Cross(impulse)), rb.AngularFactor),
	)
}

// VelocityAt returns the world velocity of a point at offset r
func (rb *RigidBody) VelocityAt(r mgl64.Vec3) mgl64.Vec3 {
	return rb.Velocity.Add(rb.AngularVelocity.Cross(r))
}

// PresolveVelocityAt is VelocityAt using the velocities before the position solve
func (rb *RigidBody) PresolveVelocityAt(r mgl64.Vec3) mgl64.Vec3 {
	return rb.PresolveVelocity.Add(rb.PresolveAngularVelocity.Cross(r))
}
