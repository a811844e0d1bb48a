// Package camera implements a first-person camera with three movement modes.
//
// The camera orientation is kept as a unit quaternion. The forward, up and
// right vectors and the view matrices are rebuilt from it after every call,
// so the basis stays orthonormal no matter how many rotations are applied.
// All angles are in degrees.
package camera

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Mode selects how rotations and moves are constrained
type Mode int

const (
	// Free rotates and moves along the camera's own axes
	Free Mode = iota
	// YLockVert yaws about the world Y axis and moves vertically along it.
	// Rolling is disabled.
	YLockVert
	// YLockBoth also keeps forward motion in the horizontal plane
	YLockBoth
)

var modeNames = map[Mode]string{
	Free:      "free",
	YLockVert: "ylock-vert",
	YLockBoth: "ylock-both",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode reads a mode name as printed by Mode.String
func ParseMode(s string) (Mode, error) {
	for mode, name := range modeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return mode, nil
		}
	}
	return Free, fmt.Errorf("camera: unknown mode %q", s)
}

// yLocked reports whether the world Y axis constrains the camera
func (m Mode) yLocked() bool {
	return m == YLockVert || m == YLockBoth
}

// direction tags the axis of the last cached rotation
type direction int

const (
	noDirection direction = iota
	straight
	vert
	horiz
)

var (
	worldUp      = mgl32.Vec3{0, 1, 0}
	worldForward = mgl32.Vec3{0, 0, -1}
	worldRight   = mgl32.Vec3{1, 0, 0}
)

// Camera is a plain value; copying it copies the whole state.
type Camera struct {
	mode     Mode
	position mgl32.Vec3
	// camera-to-world rotation
	quat mgl32.Quat

	orientation mgl32.Vec4
	up          mgl32.Vec3
	normal      mgl32.Vec3

	rotation    mgl32.Mat4
	translation mgl32.Mat4
	view        mgl32.Mat4

	// last rotation built by rotate, reused while the axis and the angle repeat
	previousDirection direction
	previousTheta     float32
	previousRotation  mgl32.Quat
	cacheHits         int
}

// New places a camera at position looking down -Z with +Y up
func New(position mgl32.Vec3, mode Mode) Camera {
	c := Camera{mode: mode, position: position}
	c.ResetView()
	return c
}

// RotateStraight rolls the camera about its forward axis. Y-locked modes
// ignore it.
func (c *Camera) RotateStraight(theta float32) {
	if c.mode.yLocked() {
		return
	}
	c.rotate(straight, theta)
}

// RotateVert pitches the camera about its right axis
func (c *Camera) RotateVert(theta float32) {
	c.rotate(vert, theta)
}

// RotateHoriz yaws the camera about its up axis, or about world Y in the
// Y-locked modes.
func (c *Camera) RotateHoriz(theta float32) {
	c.rotate(horiz, theta)
}

// rotate turns the camera by theta about the axis tagged by dir. Own-axis
// rotations compose on the camera side of the quaternion, where the axis is
// constant, so a cached rotation stays exact whatever the orientation.
func (c *Camera) rotate(dir direction, theta float32) {
	var r mgl32.Quat
	if c.previousDirection == dir && c.previousTheta == theta {
		r = c.previousRotation
		c.cacheHits++
	} else {
		r = mgl32.QuatRotate(mgl32.DegToRad(theta), c.localAxis(dir))
		c.previousDirection = dir
		c.previousTheta = theta
		c.previousRotation = r
	}

	if dir == horiz && c.mode.yLocked() {
		c.quat = r.Mul(c.quat).Normalize()
	} else {
		c.quat = c.quat.Mul(r).Normalize()
	}
	c.update()
}

// localAxis is the camera-space axis of dir. World Y is both the camera's
// own up and the Y-lock yaw axis.
func (c *Camera) localAxis(dir direction) mgl32.Vec3 {
	switch dir {
	case straight:
		return worldForward
	case vert:
		return worldRight
	default:
		return worldUp
	}
}

// MoveStraight moves along the forward axis. In YLockBoth the move stays
// horizontal.
func (c *Camera) MoveStraight(dist float32) {
	dir := c.orientation.Vec3()
	if c.mode == YLockBoth {
		dir = c.horizontalForward()
	}
	c.translate(dir.Mul(dist))
}

// MoveHoriz strafes along the right axis
func (c *Camera) MoveHoriz(dist float32) {
	c.translate(c.normal.Mul(dist))
}

// MoveVert moves along the up axis, or world Y in the Y-locked modes
func (c *Camera) MoveVert(dist float32) {
	dir := c.up
	if c.mode.yLocked() {
		dir = worldUp
	}
	c.translate(dir.Mul(dist))
}

// horizontalForward projects up × normal onto the XZ plane. Looking straight
// up or down it falls back to the up vector, which is then horizontal.
func (c *Camera) horizontalForward() mgl32.Vec3 {
	f := c.up.Cross(c.normal)
	h := mgl32.Vec3{f.X(), 0, f.Z()}
	if h.Len() > 1e-6 {
		return h.Normalize()
	}
	h = mgl32.Vec3{c.up.X(), 0, c.up.Z()}
	if f.Y() > 0 {
		h = h.Mul(-1)
	}
	if h.Len() < 1e-6 {
		return worldForward
	}
	return h.Normalize()
}

func (c *Camera) translate(delta mgl32.Vec3) {
	c.position = c.position.Add(delta)
	c.update()
}

// SetPosition moves the camera without changing its orientation
func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.position = position
	c.update()
}

// ResetView restores the default orientation and clears the rotation cache
func (c *Camera) ResetView() {
	c.quat = mgl32.QuatIdent()
	c.previousDirection = noDirection
	c.previousTheta = 0
	c.previousRotation = mgl32.QuatIdent()
	c.update()
}

// update rebuilds the basis and the matrices from the quaternion
func (c *Camera) update() {
	forward := c.quat.Rotate(worldForward).Normalize()
	c.orientation = forward.Vec4(0)
	c.up = c.quat.Rotate(worldUp).Normalize()
	c.normal = c.quat.Rotate(worldRight).Normalize()

	back := forward.Mul(-1)
	c.rotation = mgl32.Mat4FromRows(
		c.normal.Vec4(0),
		c.up.Vec4(0),
		back.Vec4(0),
		mgl32.Vec4{0, 0, 0, 1},
	)
	c.translation = mgl32.Translate3D(-c.position.X(), -c.position.Y(), -c.position.Z())
	c.view = c.rotation.Mul4(c.translation)
}

func (c *Camera) Mode() Mode {
	return c.mode
}

func (c *Camera) Position() mgl32.Vec3 {
	return c.position
}

// Orientation is the unit forward vector with w = 0
func (c *Camera) Orientation() mgl32.Vec4 {
	return c.orientation
}

func (c *Camera) Up() mgl32.Vec3 {
	return c.up
}

// Normal is the unit right vector
func (c *Camera) Normal() mgl32.Vec3 {
	return c.normal
}

// Rotation is the world-to-camera basis change
func (c *Camera) Rotation() mgl32.Mat4 {
	return c.rotation
}

// Translation moves the world by the negated camera position
func (c *Camera) Translation() mgl32.Mat4 {
	return c.translation
}

// ViewMatrix returns Rotation × Translation
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return c.view
}
