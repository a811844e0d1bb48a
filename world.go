package rink

import (
	"errors"
	"log/slog"

	"github.com/akmonengine/rink/actor"
	"github.com/akmonengine/rink/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrWorldClosed is returned when a closed world is asked to take a new owner
var ErrWorldClosed = errors.New("rink: world closed")

// World is the discrete dynamics world. It owns, in allocation order, the
// collision configuration, the dispatcher, the broad phase and the solver,
// and releases them in reverse order on Close.
//
// A World is shared by reference count: every physics object registering
// into it calls Retain, and the last Release closes it.
type World struct {
	// List of all rigid bodies in the world
	Bodies []*actor.RigidBody
	// Joints solved after contacts on every substep
	Constraints []constraint.Constraint
	// Gravity acceleration (m/s², or N/kg)
	Gravity  mgl64.Vec3
	Substeps int
	Workers  int

	Events Events

	config     *CollisionConfiguration
	dispatcher *Dispatcher
	broadphase *SpatialGrid
	solver     *Solver

	sleepTime     float64
	sleepVelocity float64

	shares map[*actor.RigidBody]*int
	refs   int
	closed bool

	// TeardownLog records the components released by Close, in order
	TeardownLog []string

	logger *slog.Logger
}

// NewWorld allocates the world components in dependency order. The returned
// world holds one reference, owned by the caller.
func NewWorld(cfg WorldConfig) *World {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Workers = max(DEFAULT_WORKERS, cfg.Workers)
	if cfg.Substeps <= 0 {
		cfg.Substeps = DEFAULT_SUBSTEPS
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = DEFAULT_CELL_SIZE
	}
	if cfg.Cells <= 0 {
		cfg.Cells = DEFAULT_CELLS
	}

	config := newCollisionConfiguration(cfg)
	dispatcher := newDispatcher(config, cfg.Workers)
	broadphase := NewSpatialGrid(cfg.CellSize, cfg.Cells)
	solver := newSolver(config)

	w := &World{
		Gravity:       cfg.Gravity,
		Substeps:      cfg.Substeps,
		Workers:       cfg.Workers,
		Events:        NewEvents(),
		config:        config,
		dispatcher:    dispatcher,
		broadphase:    broadphase,
		solver:        solver,
		sleepTime:     cfg.SleepTime,
		sleepVelocity: cfg.SleepVelocity,
		shares:        make(map[*actor.RigidBody]*int),
		refs:          1,
		logger:        logger,
	}

	logger.Debug("physics world created",
		"substeps", w.Substeps,
		"workers", w.Workers,
		"cellSize", cfg.CellSize,
		"gravity", w.Gravity)

	return w
}

// AddRigidBody adds a rigid body to the world
func (w *World) AddRigidBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)
}

// RemoveRigidBody removes a rigid body from the world. Removing an absent
// body does nothing.
func (w *World) RemoveRigidBody(body *actor.RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k != -1 {
		w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
	}

	w.Events.forget(body)
}

// AddConstraint adds a joint to the world
func (w *World) AddConstraint(c constraint.Constraint) {
	w.Constraints = append(w.Constraints, c)
}

// RemoveConstraint removes a joint. Removing an absent joint does nothing.
func (w *World) RemoveConstraint(c constraint.Constraint) {
	for i, existing := range w.Constraints {
		if existing == c {
			w.Constraints = append(w.Constraints[:i], w.Constraints[i+1:]...)
			return
		}
	}
}

// Retain registers a new owner of the world
func (w *World) Retain() error {
	if w.closed {
		return ErrWorldClosed
	}
	w.refs++
	return nil
}

// Release drops one owner. The last owner closes the world.
func (w *World) Release() {
	if w.refs == 0 {
		return
	}
	w.refs--
	if w.refs == 0 {
		w.Close()
	}
}

// RefCount returns the number of owners still holding the world
func (w *World) RefCount() int {
	return w.refs
}

// Closed reports whether Close already ran
func (w *World) Closed() bool {
	return w.closed
}

// Close tears the world down in the reverse order of NewWorld. Calling it
// again does nothing.
func (w *World) Close() {
	if w.closed {
		return
	}
	w.closed = true

	if len(w.Bodies) > 0 || len(w.Constraints) > 0 {
		w.logger.Warn("closing physics world with registered objects",
			"bodies", len(w.Bodies),
			"constraints", len(w.Constraints))
	}
	w.Bodies = nil
	w.Constraints = nil
	clear(w.shares)
	w.Events = NewEvents()
	w.TeardownLog = append(w.TeardownLog, "world")

	w.solver = nil
	w.TeardownLog = append(w.TeardownLog, "solver")

	w.broadphase.Clear()
	w.broadphase = nil
	w.TeardownLog = append(w.TeardownLog, "broadphase")

	w.dispatcher = nil
	w.TeardownLog = append(w.TeardownLog, "dispatcher")

	w.config = nil
	w.TeardownLog = append(w.TeardownLog, "configuration")

	w.refs = 0
	w.logger.Debug("physics world closed", "teardown", w.TeardownLog)
}

// Step advances the simulation by dt seconds, split into Substeps.
// Stepping a closed world does nothing.
func (w *World) Step(dt float64) {
	if w.closed || dt <= 0 {
		return
	}
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	substeps := max(1, w.Substeps)
	h := dt / float64(substeps)

	for range substeps {
		w.integrate(h)

		// Phase 2.0: Collision pair finding - Broad phase
		// Phase 2.1: Collision pair finding - narrow phase
		contacts := w.detectCollision()

		contacts = w.Events.recordCollisions(contacts)
		w.wakeTouched(contacts)

		// Phase 3: Solver, only one iteration is required thanks to substeps
		w.solver.SolvePositions(h, contacts, w.Constraints)

		// Phase 4: Update Position & Velocity
		w.update(h)

		// Phase 5: Velocity
		w.solver.SolveVelocities(h, contacts, w.Constraints)

		w.trySleep(h)
	}

	for _, body := range w.Bodies {
		body.SyncMotionState()
	}

	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

func (w *World) integrate(h float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.Integrate(h, w.Gravity)
	})
}

func (w *World) detectCollision() []*constraint.ContactConstraint {
	return w.dispatcher.Dispatch(w.broadphase.Collect(w.Bodies))
}

func (w *World) update(h float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.Update(h)
	})
}

// wakeTouched wakes sleeping bodies hit by a moving dynamic body
func (w *World) wakeTouched(contacts []*constraint.ContactConstraint) {
	moving := func(b *actor.RigidBody) bool {
		return b.BodyType == actor.BodyTypeDynamic && !b.IsSleeping &&
			(b.Velocity.Len() >= w.sleepVelocity || b.AngularVelocity.Len() >= w.sleepVelocity)
	}
	for _, c := range contacts {
		if c.BodyA.IsSleeping && moving(c.BodyB) {
			c.BodyA.Awake()
		}
		if c.BodyB.IsSleeping && moving(c.BodyA) {
			c.BodyB.Awake()
		}
	}
}

// trySleep sets the body to sleep if its velocity is lower than the threshold, for a given duration
// this method is too simple to use a task, it slows down in multiple goroutines
func (w *World) trySleep(h float64) {
	for _, body := range w.Bodies {
		body.TrySleep(h, w.sleepTime, w.sleepVelocity)
	}
}
