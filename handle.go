package rink

import "github.com/akmonengine/rink/actor"

// BodyHandle is a counted reference to a body registered in a World.
// Handles to the same body share one count; releasing the last handle
// removes the body from the world.
type BodyHandle struct {
	world    *World
	body     *actor.RigidBody
	count    *int
	released bool
}

// Share returns a new handle to body. The first handle of a body starts the
// count at one, later calls increment it.
func (w *World) Share(body *actor.RigidBody) *BodyHandle {
	count, ok := w.shares[body]
	if !ok {
		count = new(int)
		w.shares[body] = count
	}
	*count++

	return &BodyHandle{world: w, body: body, count: count}
}

// Clone returns another handle to the same body
func (h *BodyHandle) Clone() *BodyHandle {
	*h.count++
	return &BodyHandle{world: h.world, body: h.body, count: h.count}
}

// Body returns the referenced body
func (h *BodyHandle) Body() *actor.RigidBody {
	return h.body
}

// UseCount returns how many live handles share the body
func (h *BodyHandle) UseCount() int {
	return *h.count
}

// Release drops the handle and reports whether it was the last owner, in
// which case the body left the world. Releasing twice is a no-op.
func (h *BodyHandle) Release() bool {
	if h.released {
		return false
	}
	h.released = true
	*h.count--
	if *h.count > 0 {
		return false
	}

	if !h.world.closed {
		h.world.RemoveRigidBody(h.body)
		delete(h.world.shares, h.body)
	}
	return true
}
