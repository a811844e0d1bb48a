package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Options toggles debug drawing at runtime
type Options struct {
	Wireframe bool
	// Normals draws a short tick along every face normal
	Normals bool
	// PhysicsDebug outlines the collision bounds listed in Frame.Boxes
	PhysicsDebug bool
}

// DebugBox is a world-space bounding box
type DebugBox struct {
	Min, Max mgl32.Vec3
}

// Frame is everything a renderer needs to paint one image
type Frame struct {
	Index      int
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Items      []Renderable
	Boxes      []DebugBox
	// Lights are in world space; nil paints unlit
	Lights *Lights
	// HUD lines are written top-left over the scene
	HUD []string
}

// Renderer paints frames. Draw is called once per tick from the frame loop.
type Renderer interface {
	Draw(frame Frame) error
	// Aspect is the width/height ratio the projection should use
	Aspect() float32
	Options() Options
	SetOptions(opts Options)
	Close() error
}

// Projection builds the perspective matrix used by every renderer here
func Projection(fovDegrees, aspect, near, far float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(fovDegrees), aspect, near, far)
}

// Recorder is a headless renderer. It rasterizes into an in-memory canvas
// and keeps the last frame for inspection.
type Recorder struct {
	Frames int
	Last   Frame
	// Models holds the model matrices of the last frame, in item order
	Models []mgl32.Mat4

	canvas *Canvas
	opts   Options
	closed bool
}

func NewRecorder(width, height int, opts Options) *Recorder {
	return &Recorder{canvas: NewCanvas(width, height), opts: opts}
}

func (r *Recorder) Draw(frame Frame) error {
	r.Frames++
	r.Last = frame
	r.Models = r.Models[:0]
	for _, item := range frame.Items {
		r.Models = append(r.Models, item.ModelMatrix())
	}
	r.canvas.Clear()
	r.canvas.Paint(frame, r.opts)
	return nil
}

// Canvas exposes the last rasterized image
func (r *Recorder) Canvas() *Canvas {
	return r.canvas
}

func (r *Recorder) Aspect() float32 {
	if r.canvas.Height == 0 {
		return 1
	}
	return float32(r.canvas.Width) / float32(2*r.canvas.Height)
}

func (r *Recorder) Options() Options {
	return r.opts
}

func (r *Recorder) SetOptions(opts Options) {
	r.opts = opts
}

func (r *Recorder) Close() error {
	r.closed = true
	return nil
}

// Closed reports whether Close was called
func (r *Recorder) Closed() bool {
	return r.closed
}
