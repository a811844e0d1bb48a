package object

import (
	"fmt"
	"log/slog"

	"github.com/akmonengine/rink"
	"github.com/akmonengine/rink/actor"
	"github.com/akmonengine/rink/mesh"
	"github.com/akmonengine/rink/render"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// StaticParams place a triangle soup in the world. Triangles are in mesh
// space and are scaled uniformly by Scale.
type StaticParams struct {
	Triangles   [][3]mgl32.Vec3
	Scale       float64
	Position    mgl64.Vec3
	Friction    float64
	Restitution float64
}

// StaticMesh is immovable triangle-mesh geometry
type StaticMesh struct {
	world  *rink.World
	shape  *actor.TriangleMesh
	body   *actor.RigidBody
	handle *rink.BodyHandle

	modelMatrix mgl32.Mat4
	released    bool
}

// InitPhysics builds the mesh shape and registers a zero-mass body
func (s *StaticMesh) InitPhysics(world *rink.World, params StaticParams) error {
	if len(params.Triangles) == 0 {
		return fmt.Errorf("%w: no triangles", ErrInvalidParams)
	}
	if params.Scale <= 0 {
		return fmt.Errorf("%w: scale %g", ErrInvalidParams, params.Scale)
	}
	if err := world.Retain(); err != nil {
		return fmt.Errorf("object: init physics: %w", err)
	}
	s.world = world

	tris := make([]actor.Triangle, len(params.Triangles))
	for i, tri := range params.Triangles {
		tris[i] = actor.Triangle{
			A: vec64(tri[0]).Mul(params.Scale),
			B: vec64(tri[1]).Mul(params.Scale),
			C: vec64(tri[2]).Mul(params.Scale),
		}
	}
	s.shape = actor.NewTriangleMesh(tris)
	s.body = actor.NewRigidBody(actor.ConstructionInfo{
		Shape:       s.shape,
		MotionState: actor.NewDefaultMotionState(actor.NewTransformAt(params.Position, mgl64.QuatIdent())),
		Friction:    params.Friction,
		Restitution: params.Restitution,
	})
	world.AddRigidBody(s.body)
	s.handle = world.Share(s.body)

	scale := float32(params.Scale)
	s.modelMatrix = mgl32.Translate3D(float32(params.Position.X()), float32(params.Position.Y()), float32(params.Position.Z())).
		Mul4(mgl32.Scale3D(scale, scale, scale))
	return nil
}

func vec64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X()), float64(v.Y()), float64(v.Z())}
}

// UpdateTransform does nothing: a static mesh never moves
func (s *StaticMesh) UpdateTransform() {}

func (s *StaticMesh) ModelMatrix() mgl32.Mat4 {
	return s.modelMatrix
}

func (s *StaticMesh) Body() *actor.RigidBody {
	return s.body
}

func (s *StaticMesh) Release() {
	if s.released || s.world == nil {
		return
	}
	s.released = true
	s.handle.Release()
	s.world.Release()
}

// TableParams configure NewTable. Without MeshFile the rink is built from
// Spec; the goal triggers always follow Spec.
type TableParams struct {
	MeshFile string
	// WallsFile is a separate collision mesh; empty collides with the
	// rendered mesh
	WallsFile   string
	FlipUVs     bool
	Spec        mesh.TableSpec
	Scale       float64
	Position    mgl64.Vec3
	Friction    float64
	Restitution float64
	Logger      *slog.Logger
}

// Table is the rink: a static mesh plus a trigger volume behind each goal
type Table struct {
	StaticMesh

	model       *render.Model
	goals       [2]*actor.RigidBody
	goalHandles [2]*rink.BodyHandle
}

// NewTable loads or builds the rink mesh and registers it with its goals
func NewTable(world *rink.World, params TableParams) (*Table, error) {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if params.Scale == 0 {
		params.Scale = 1
	}
	if params.Spec == (mesh.TableSpec{}) {
		params.Spec = mesh.DefaultTableSpec()
	}

	var m *mesh.Mesh
	if params.MeshFile == "" {
		m = mesh.Table(params.Spec)
	} else {
		loaded, err := mesh.Load(params.MeshFile, params.FlipUVs)
		if err != nil {
			return nil, fmt.Errorf("object: table: %w", err)
		}
		m = loaded
	}

	walls := m
	if params.WallsFile != "" {
		loaded, err := mesh.Load(params.WallsFile, false)
		if err != nil {
			return nil, fmt.Errorf("object: table walls: %w", err)
		}
		walls = loaded
	}

	t := &Table{model: render.NewModel(m, logger)}
	err := t.InitPhysics(world, StaticParams{
		Triangles:   walls.Triangles(),
		Scale:       params.Scale,
		Position:    params.Position,
		Friction:    params.Friction,
		Restitution: params.Restitution,
	})
	if err != nil {
		return nil, fmt.Errorf("object: table: %w", err)
	}
	t.model.SetModelMatrix(t.modelMatrix)

	for i, volume := range params.Spec.Goals() {
		if params.Spec.GoalWidth <= 0 {
			break
		}
		half := vec64(volume.HalfExtents()).Mul(params.Scale)
		center := params.Position.Add(vec64(volume.Center()).Mul(params.Scale))
		goal := actor.NewRigidBody(actor.ConstructionInfo{
			Shape:       &actor.Box{HalfExtents: half},
			MotionState: actor.NewDefaultMotionState(actor.NewTransformAt(center, mgl64.QuatIdent())),
		})
		goal.IsTrigger = true
		world.AddRigidBody(goal)
		t.goals[i] = goal
		t.goalHandles[i] = world.Share(goal)
	}

	logger.Debug("table created", "mesh", m.Name, "triangles", m.TriangleCount(), "walls", walls.TriangleCount(), "scale", params.Scale, "caps", t.model.Caps())
	return t, nil
}

// Goals returns the goal triggers, -Z end first
func (t *Table) Goals() [2]*actor.RigidBody {
	return t.goals
}

// GoalIndex returns which goal body is, or -1
func (t *Table) GoalIndex(body *actor.RigidBody) int {
	for i, goal := range t.goals {
		if goal != nil && goal == body {
			return i
		}
	}
	return -1
}

// Release removes the goals, then the table body
func (t *Table) Release() {
	if t.released {
		return
	}
	for _, h := range t.goalHandles {
		if h != nil {
			h.Release()
		}
	}
	t.StaticMesh.Release()
}

func (t *Table) Model() *render.Model {
	return t.model
}

func (t *Table) Mesh() *mesh.Mesh {
	return t.model.Mesh()
}

func (t *Table) Caps() render.Caps {
	return t.model.Caps()
}

func (t *Table) Material(i int) (mesh.Material, error) {
	return t.model.Material(i)
}
