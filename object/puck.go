package object

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/akmonengine/rink"
	"github.com/akmonengine/rink/actor"
	"github.com/akmonengine/rink/constraint"
	"github.com/akmonengine/rink/mesh"
	"github.com/akmonengine/rink/render"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// procedural puck mesh used when no file is given
	puckSegments    = 32
	puckMeshHeight  = 0.5
	grabCompliance  = 1e-4
	puckDefaultName = "puck"
)

// PuckParams configure NewPuck. The collision height follows the mesh: its
// bounding box height, scaled into the unit box, times Radius.
type PuckParams struct {
	Position    mgl64.Vec3
	Radius      float64
	Density     float64
	Friction    float64
	Restitution float64
	// MeshFile is an OBJ file; empty builds a procedural cylinder
	MeshFile string
	FlipUVs  bool
	Logger   *slog.Logger
}

// Puck is a cylinder that slides on the table plane: it cannot move along Y
// nor tip over, and never falls asleep.
type Puck struct {
	DynamicCylinder

	model *render.Model
	// maps the mesh into a radius-sized box centred on the origin
	centerScale mgl32.Mat4
	angle       float64
	axis        mgl64.Vec3

	anchor *constraint.Anchor
}

// NewPuck loads the mesh, sizes the body from it and registers it in world
func NewPuck(world *rink.World, params PuckParams) (*Puck, error) {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var m *mesh.Mesh
	if params.MeshFile == "" {
		m = mesh.Cylinder(puckSegments, puckMeshHeight)
		m.Name = puckDefaultName
	} else {
		loaded, err := mesh.Load(params.MeshFile, params.FlipUVs)
		if err != nil {
			return nil, fmt.Errorf("object: puck: %w", err)
		}
		m = loaded
	}

	lo, hi := m.Bounds()
	unit := m.UnitScale()
	height := float64(hi.Y()-lo.Y()) * float64(unit) * params.Radius
	center := m.Center()
	size := float32(params.Radius) * unit

	p := &Puck{
		model: render.NewModel(m, logger),
		centerScale: mgl32.Scale3D(size, size, size).
			Mul4(mgl32.Translate3D(-center.X(), -center.Y(), -center.Z())),
		axis: mgl64.Vec3{0, 1, 0},
	}

	err := p.InitPhysics(world, InitialParams{
		Radius:      params.Radius,
		Height:      height,
		Density:     params.Density,
		Friction:    params.Friction,
		Restitution: params.Restitution,
		Position:    params.Position,
	})
	if err != nil {
		return nil, fmt.Errorf("object: puck: %w", err)
	}

	body := p.Body()
	body.LinearFactor = mgl64.Vec3{1, 0, 1}
	body.AngularFactor = mgl64.Vec3{0, 1, 0}
	body.DisableDeactivation = true

	p.SyncTransform()
	logger.Debug("puck created", "mesh", m.Name, "radius", params.Radius, "height", height, "mass", p.Mass(), "caps", p.model.Caps())
	return p, nil
}

// UpdateTransform refreshes the cached pose and the model matrix
func (p *Puck) UpdateTransform() {
	p.DynamicCylinder.UpdateTransform()
	p.SyncTransform()
}

// SyncTransform derives the model matrix from the cached pose:
// Translate(origin) × Rotate(angle, axis) × centerScale.
func (p *Puck) SyncTransform() {
	t := p.Transform()
	p.angle, p.axis = axisAngle(t.Basis)

	origin := t.Origin
	p.model.SetModelMatrix(mgl32.Translate3D(float32(origin.X()), float32(origin.Y()), float32(origin.Z())).
		Mul4(mgl32.HomogRotate3D(float32(p.angle), vec32(p.axis))).
		Mul4(p.centerScale))
}

// axisAngle decomposes a rotation matrix. The identity yields a zero angle
// about +Y.
func axisAngle(basis mgl64.Mat3) (float64, mgl64.Vec3) {
	q := mgl64.Mat4ToQuat(basis.Mat4()).Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	angle := 2 * math.Acos(min(q.W, 1))
	if q.V.Len() < 1e-9 {
		return 0, mgl64.Vec3{0, 1, 0}
	}
	return angle, q.V.Normalize()
}

func vec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X()), float32(v.Y()), float32(v.Z())}
}

// Rotation returns the angle (radians) and axis of the last synced pose
func (p *Puck) Rotation() (float64, mgl64.Vec3) {
	return p.angle, p.axis
}

// ApplyImpulse pushes the puck. The vertical component is discarded.
func (p *Puck) ApplyImpulse(impulse mgl64.Vec3) {
	p.Body().ApplyCentralImpulse(impulse)
}

// Reset teleports the puck at rest to position, at the puck's current height
func (p *Puck) Reset(position mgl64.Vec3) {
	body := p.Body()
	position[1] = body.Transform.Position.Y()
	body.Velocity = mgl64.Vec3{}
	body.AngularVelocity = mgl64.Vec3{}
	body.SetWorldTransform(actor.NewTransformAt(position, mgl64.QuatIdent()))
	p.UpdateTransform()
}

// Grab ties the puck to target with a soft anchor; grabbing again moves the
// target.
func (p *Puck) Grab(target mgl64.Vec3) {
	target[1] = p.Body().Transform.Position.Y()
	if p.anchor != nil {
		p.anchor.Target = target
		return
	}
	p.anchor = constraint.NewAnchor(p.Body(), target, grabCompliance)
	p.world.AddConstraint(p.anchor)
}

// Drop releases a grab
func (p *Puck) Drop() {
	if p.anchor == nil {
		return
	}
	p.world.RemoveConstraint(p.anchor)
	p.anchor = nil
}

func (p *Puck) Grabbed() bool {
	return p.anchor != nil
}

// Release drops any grab, then releases the body and the world
func (p *Puck) Release() {
	p.Drop()
	p.DynamicCylinder.Release()
}

func (p *Puck) ModelMatrix() mgl32.Mat4 {
	return p.model.ModelMatrix()
}

func (p *Puck) Model() *render.Model {
	return p.model
}

func (p *Puck) Mesh() *mesh.Mesh {
	return p.model.Mesh()
}

func (p *Puck) Caps() render.Caps {
	return p.model.Caps()
}

func (p *Puck) Material(i int) (mesh.Material, error) {
	return p.model.Material(i)
}
