package rink

import (
	"testing"

	"github.com/akmonengine/rink/actor"
	"github.com/akmonengine/rink/constraint"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createFloor() *actor.RigidBody {
	return createTestBox(mgl64.Vec3{0, -0.5, 0}, mgl64.Vec3{5, 0.5, 5}, 0)
}

func createUprightBox(position mgl64.Vec3) *actor.RigidBody {
	body := createTestBox(position, mgl64.Vec3{0.5, 0.5, 0.5}, 1)
	body.AngularFactor = mgl64.Vec3{}
	return body
}

func TestNewWorld_Defaults(t *testing.T) {
	w := NewWorld(WorldConfig{})

	assert.Equal(t, 1, w.RefCount())
	assert.Equal(t, DEFAULT_SUBSTEPS, w.Substeps)
	assert.Equal(t, DEFAULT_WORKERS, w.Workers)
	assert.False(t, w.Closed())
	assert.NotNil(t, w.config)
	assert.NotNil(t, w.dispatcher)
	assert.NotNil(t, w.broadphase)
	assert.NotNil(t, w.solver)
}

func TestWorld_AddRemove(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	a := createUprightBox(mgl64.Vec3{0, 1, 0})
	b := createUprightBox(mgl64.Vec3{3, 1, 0})
	anchor := constraint.NewAnchor(a, mgl64.Vec3{0, 2, 0}, 0)

	w.AddRigidBody(a)
	w.AddRigidBody(b)
	w.AddConstraint(anchor)
	require.Len(t, w.Bodies, 2)
	require.Len(t, w.Constraints, 1)

	w.RemoveRigidBody(a)
	w.RemoveRigidBody(a)
	w.RemoveConstraint(anchor)
	w.RemoveConstraint(anchor)

	assert.Equal(t, []*actor.RigidBody{b}, w.Bodies)
	assert.Empty(t, w.Constraints)
}

func TestWorld_CloseTeardownOrder(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	body := createUprightBox(mgl64.Vec3{0, 1, 0})
	w.AddRigidBody(body)
	w.Step(1.0 / 60.0)
	w.RemoveRigidBody(body)

	require.NotPanics(t, w.Close)
	assert.Equal(t, []string{"world", "solver", "broadphase", "dispatcher", "configuration"}, w.TeardownLog)
	assert.True(t, w.Closed())

	// second close and later steps do nothing
	require.NotPanics(t, w.Close)
	require.NotPanics(t, func() { w.Step(1.0 / 60.0) })
	assert.Len(t, w.TeardownLog, 5)
	assert.ErrorIs(t, w.Retain(), ErrWorldClosed)
}

func TestWorld_RetainRelease(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())

	require.NoError(t, w.Retain())
	require.NoError(t, w.Retain())
	assert.Equal(t, 3, w.RefCount())

	w.Release()
	w.Release()
	assert.False(t, w.Closed())

	w.Release()
	assert.True(t, w.Closed())
	assert.Equal(t, 0, w.RefCount())

	// extra release is harmless
	w.Release()
	assert.Len(t, w.TeardownLog, 5)
}

func TestBodyHandle_LastOwnerRemoves(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	body := createUprightBox(mgl64.Vec3{0, 1, 0})
	w.AddRigidBody(body)

	first := w.Share(body)
	second := first.Clone()
	third := w.Share(body)
	assert.Equal(t, 3, first.UseCount())
	assert.Same(t, body, third.Body())

	assert.False(t, first.Release())
	assert.False(t, first.Release())
	assert.False(t, second.Release())
	assert.Contains(t, w.Bodies, body)
	assert.Equal(t, 1, third.UseCount())

	assert.True(t, third.Release())
	assert.NotContains(t, w.Bodies, body)
	assert.Equal(t, 0, third.UseCount())
}

func TestWorld_Step_FreeFall(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	body := createUprightBox(mgl64.Vec3{0, 100, 0})
	w.AddRigidBody(body)

	for i := 0; i < 60; i++ {
		w.Step(1.0 / 60.0)
	}

	// y = y0 - g t² / 2 within the integrator error
	assert.InDelta(t, 100-9.81/2, body.Transform.Position.Y(), 0.1)
	assert.InDelta(t, -9.81, body.Velocity.Y(), 0.05)
	// motion state follows the body
	assert.Equal(t, body.Transform.Position, body.MotionState.WorldTransform().Position)
}

func TestWorld_Step_ZeroOrClosed(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	body := createUprightBox(mgl64.Vec3{0, 1, 0})
	w.AddRigidBody(body)

	w.Step(0)
	w.Step(-1)

	assert.Equal(t, mgl64.Vec3{0, 1, 0}, body.Transform.Position)
}

func TestWorld_Step_RestsOnFloor(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	floor := createFloor()
	box := createUprightBox(mgl64.Vec3{0, 1, 0})
	w.AddRigidBody(floor)
	w.AddRigidBody(box)

	entered := 0
	w.Events.Subscribe(COLLISION_ENTER, func(Event) { entered++ })

	for i := 0; i < 120; i++ {
		w.Step(1.0 / 60.0)
	}

	assert.InDelta(t, 0.5, box.Transform.Position.Y(), 0.05)
	assert.Equal(t, mgl64.Vec3{0, -0.5, 0}, floor.Transform.Position)
	assert.Equal(t, 1, entered)
}

func TestWorld_Step_TriggerDoesNotBlock(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	w.Gravity = mgl64.Vec3{}
	goal := createTestBox(mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}, 0)
	goal.IsTrigger = true
	box := createUprightBox(mgl64.Vec3{0, 0, 0})
	box.Velocity = mgl64.Vec3{2, 0, 0}
	w.AddRigidBody(goal)
	w.AddRigidBody(box)

	var entered []*actor.RigidBody
	w.Events.Subscribe(TRIGGER_ENTER, func(e Event) {
		enter := e.(TriggerEnterEvent)
		entered = append(entered, enter.BodyA, enter.BodyB)
	})

	for i := 0; i < 120; i++ {
		w.Step(1.0 / 60.0)
	}

	assert.Greater(t, box.Transform.Position.X(), 3.0)
	assert.ElementsMatch(t, []*actor.RigidBody{goal, box}, entered)
}

func TestWorld_Step_AnchorPullsBody(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	w.Gravity = mgl64.Vec3{}
	box := createUprightBox(mgl64.Vec3{0, 0, 0})
	anchor := constraint.NewAnchor(box, mgl64.Vec3{1, 0, 0}, 0)
	w.AddRigidBody(box)
	w.AddConstraint(anchor)

	for i := 0; i < 30; i++ {
		w.Step(1.0 / 60.0)
	}

	assert.Less(t, anchor.Distance(), 0.01)
}

func TestWorld_Step_Parallel(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Workers = 4
	w := NewWorld(cfg)
	w.AddRigidBody(createFloor())

	var boxes []*actor.RigidBody
	for i := 0; i < 8; i++ {
		box := createUprightBox(mgl64.Vec3{float64(i)*1.2 - 4, 1, 0})
		boxes = append(boxes, box)
		w.AddRigidBody(box)
	}

	for i := 0; i < 120; i++ {
		w.Step(1.0 / 60.0)
	}

	for _, box := range boxes {
		assert.InDelta(t, 0.5, box.Transform.Position.Y(), 0.05)
	}
}
