// Package object holds the physics-backed scene objects: a dynamic cylinder
// rigid body, the puck built on it, and static triangle-mesh geometry such as
// the table.
package object

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/rink"
	"github.com/akmonengine/rink/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidParams is returned for non-positive dimensions or density
var ErrInvalidParams = errors.New("object: invalid parameters")

// Object is what the frame loop drives after every physics step
type Object interface {
	UpdateTransform()
	Release()
}

// Transform is the cached centre-of-mass pose of a body
type Transform struct {
	Basis  mgl64.Mat3
	Origin mgl64.Vec3
}

// InitialParams describe a cylinder standing along its local Y axis
type InitialParams struct {
	Radius      float64
	Height      float64
	Density     float64
	Friction    float64
	Restitution float64
	Position    mgl64.Vec3
	// Rotation defaults to the identity when zero
	Rotation mgl64.Quat
}

// DynamicCylinder owns a cylinder rigid body registered in a world.
// The zero value is ready for InitPhysics.
type DynamicCylinder struct {
	world       *rink.World
	shape       *actor.Cylinder
	motionState *actor.DefaultMotionState
	body        *actor.RigidBody
	handle      *rink.BodyHandle

	mass      float64
	transform Transform
	released  bool
}

// InitPhysics creates the body, registers it and places it at the requested
// pose. The cylinder keeps a reference to the world until Release.
func (c *DynamicCylinder) InitPhysics(world *rink.World, params InitialParams) error {
	if params.Radius <= 0 || params.Height <= 0 || params.Density <= 0 {
		return fmt.Errorf("%w: radius %g, height %g, density %g", ErrInvalidParams, params.Radius, params.Height, params.Density)
	}
	if err := world.Retain(); err != nil {
		return fmt.Errorf("object: init physics: %w", err)
	}
	c.world = world

	c.mass = params.Density * params.Height * params.Radius * params.Radius * math.Pi
	c.shape = actor.NewCylinder(mgl64.Vec3{params.Radius, params.Height / 2, params.Radius})
	c.motionState = actor.NewDefaultMotionState(actor.NewTransform())
	c.body = actor.NewRigidBody(actor.ConstructionInfo{
		Mass:         c.mass,
		LocalInertia: c.shape.ComputeInertia(c.mass),
		Shape:        c.shape,
		MotionState:  c.motionState,
		Friction:     params.Friction,
		Restitution:  params.Restitution,
	})

	world.AddRigidBody(c.body)
	c.handle = world.Share(c.body)

	rotation := params.Rotation
	if rotation == (mgl64.Quat{}) {
		rotation = mgl64.QuatIdent()
	}
	c.body.SetWorldTransform(actor.NewTransformAt(params.Position, rotation))
	c.UpdateTransform()
	return nil
}

// UpdateTransform copies the body's centre-of-mass pose into the cache
func (c *DynamicCylinder) UpdateTransform() {
	if c.body == nil {
		return
	}
	t := c.body.CenterOfMassTransform()
	c.transform = Transform{Basis: t.Basis(), Origin: t.Position}
}

// Release drops this cylinder's handle on the body, removing it from the
// world when no other handle remains, then releases the world. Calling it
// again does nothing.
func (c *DynamicCylinder) Release() {
	if c.released || c.world == nil {
		return
	}
	c.released = true
	c.handle.Release()
	c.world.Release()
}

func (c *DynamicCylinder) Mass() float64 {
	return c.mass
}

// Transform returns the pose cached by the last UpdateTransform
func (c *DynamicCylinder) Transform() Transform {
	return c.transform
}

func (c *DynamicCylinder) Body() *actor.RigidBody {
	return c.body
}

// Handle is the cylinder's own shared handle on its body; Clone it to keep
// the body alive past Release.
func (c *DynamicCylinder) Handle() *rink.BodyHandle {
	return c.handle
}
