// Package app runs the rink: it owns the physics world, the scene objects,
// the camera and the renderer, and drives them once per tick.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akmonengine/rink"
	"github.com/akmonengine/rink/actor"
	"github.com/akmonengine/rink/audio"
	"github.com/akmonengine/rink/camera"
	"github.com/akmonengine/rink/config"
	"github.com/akmonengine/rink/object"
	"github.com/akmonengine/rink/render"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// longest wall-clock gap simulated in one tick
const maxTick = 100 * time.Millisecond

// mouseTurn is the share of a rotate key step turned per cell of drag
const mouseTurn = 0.5

var lampLight = render.Light{
	Diffuse:  mgl32.Vec3{0.4, 0.4, 0.4},
	Specular: mgl32.Vec3{0.3, 0.3, 0.3},
}

// Game is the frame loop state. It is driven from a single goroutine.
type Game struct {
	cfg      config.Config
	world    *rink.World
	camera   camera.Camera
	table    *object.Table
	puck     *object.Puck
	objects  []object.Object
	renderer render.Renderer
	lights   *render.Lights
	// index of the light riding on the camera, -1 without one
	lamp    int
	clicker *audio.Clicker
	logger  *slog.Logger

	start mgl64.Vec3
	// grab target while the puck is held
	target mgl64.Vec3

	// last cell seen while the primary button is held
	dragging     bool
	dragX, dragY int

	frame  int
	score  [2]int
	goal   int
	closed bool
}

// New builds the world and the scene described by cfg. The game takes
// ownership of renderer and clicker; clicker may be nil.
func New(cfg config.Config, renderer render.Renderer, clicker *audio.Clicker, logger *slog.Logger) (*Game, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := cfg.CameraMode()
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:      cfg,
		world:    rink.NewWorld(cfg.WorldConfig(logger)),
		camera:   camera.New(cfg.CameraPosition(), mode),
		renderer: renderer,
		lights:   cfg.Lights(),
		lamp:     -1,
		clicker:  clicker,
		logger:   logger,
		start:    mgl64.Vec3(cfg.Puck.Position),
		goal:     -1,
	}
	if cfg.Camera.Pitch != 0 {
		g.camera.RotateVert(cfg.Camera.Pitch)
	}
	if cfg.Render.CameraLamp && g.lights != nil {
		lamp := lampLight
		lamp.Position = g.camera.Position()
		if g.lamp, err = g.lights.Add(lamp); err != nil {
			g.world.Release()
			return nil, fmt.Errorf("app: camera lamp: %w", err)
		}
	}

	g.table, err = object.NewTable(g.world, object.TableParams{
		MeshFile:    cfg.Table.Mesh,
		WallsFile:   cfg.Table.Walls,
		FlipUVs:     cfg.Table.FlipUVs,
		Spec:        cfg.TableSpec(),
		Scale:       cfg.Table.Scale,
		Position:    mgl64.Vec3(cfg.Table.Position),
		Friction:    cfg.Table.Friction,
		Restitution: cfg.Table.Restitution,
		Logger:      logger,
	})
	if err != nil {
		g.world.Release()
		return nil, fmt.Errorf("app: %w", err)
	}

	g.puck, err = object.NewPuck(g.world, object.PuckParams{
		Position:    g.start,
		Radius:      cfg.Puck.Radius,
		Density:     cfg.Puck.Density,
		Friction:    cfg.Puck.Friction,
		Restitution: cfg.Puck.Restitution,
		MeshFile:    cfg.Puck.Mesh,
		FlipUVs:     cfg.Puck.FlipUVs,
		Logger:      logger,
	})
	if err != nil {
		g.table.Release()
		g.world.Release()
		return nil, fmt.Errorf("app: %w", err)
	}
	g.objects = []object.Object{g.table, g.puck}

	g.world.Events.Subscribe(rink.TRIGGER_ENTER, g.onTrigger)
	g.world.Events.Subscribe(rink.COLLISION_ENTER, g.onCollision)

	logger.Info("rink ready",
		"camera", mode,
		"renderer", cfg.Render.Renderer,
		"puckMass", g.puck.Mass(),
		"bodies", len(g.world.Bodies))
	return g, nil
}

func (g *Game) onTrigger(e rink.Event) {
	enter := e.(rink.TriggerEnterEvent)
	other, ok := g.puckPair(enter.BodyA, enter.BodyB)
	if !ok {
		return
	}
	if i := g.table.GoalIndex(other); i >= 0 {
		g.goal = i
	}
}

func (g *Game) onCollision(e rink.Event) {
	enter := e.(rink.CollisionEnterEvent)
	if _, ok := g.puckPair(enter.BodyA, enter.BodyB); !ok || g.clicker == nil {
		return
	}
	if g.clicker.Click(enter.Speed) {
		g.logger.Debug("puck hit", "speed", enter.Speed, "normal", enter.Normal)
	}
}

// puckPair returns the body the puck touches when a or b is the puck
func (g *Game) puckPair(a, b *actor.RigidBody) (*actor.RigidBody, bool) {
	puck := g.puck.Body()
	switch puck {
	case a:
		return b, true
	case b:
		return a, true
	}
	return nil, false
}

// HandleEvent applies one input event. It returns false when the player
// asked to quit.
func (g *Game) HandleEvent(ev tcell.Event) bool {
	if mouse, ok := ev.(*tcell.EventMouse); ok {
		g.handleMouse(mouse)
		return true
	}
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return true
	}

	move := g.cfg.Camera.MoveStep
	turn := g.cfg.Camera.TurnStep
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		g.camera.RotateVert(turn)
	case tcell.KeyDown:
		g.camera.RotateVert(-turn)
	case tcell.KeyLeft:
		g.camera.RotateHoriz(turn)
	case tcell.KeyRight:
		g.camera.RotateHoriz(-turn)
	case tcell.KeyRune:
		return g.handleRune(key.Rune(), move, turn)
	}
	return true
}

// handleMouse turns the camera while the primary button drags across cells
func (g *Game) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	if ev.Buttons()&tcell.Button1 == 0 {
		g.dragging = false
		return
	}
	if g.dragging {
		step := g.cfg.Camera.TurnStep * mouseTurn
		if dx := x - g.dragX; dx != 0 {
			g.camera.RotateHoriz(-float32(dx) * step)
		}
		if dy := y - g.dragY; dy != 0 {
			g.camera.RotateVert(-float32(dy) * step)
		}
	}
	g.dragging = true
	g.dragX, g.dragY = x, y
}

func (g *Game) handleRune(r rune, move, turn float32) bool {
	switch r {
	case 'q':
		return false
	case 'w':
		g.camera.MoveStraight(move)
	case 's':
		g.camera.MoveStraight(-move)
	case 'a':
		g.camera.MoveHoriz(-move)
	case 'd':
		g.camera.MoveHoriz(move)
	case 'r':
		g.camera.MoveVert(move)
	case 'f':
		g.camera.MoveVert(-move)
	case 'z':
		g.camera.RotateStraight(turn)
	case 'x':
		g.camera.RotateStraight(-turn)
	case 'v':
		g.camera.ResetView()
	case 'i':
		g.push(mgl64.Vec3{0, 0, -1})
	case 'k':
		g.push(mgl64.Vec3{0, 0, 1})
	case 'j':
		g.push(mgl64.Vec3{-1, 0, 0})
	case 'l':
		g.push(mgl64.Vec3{1, 0, 0})
	case 'g':
		g.toggleGrab()
	case ' ':
		g.puck.Drop()
		g.puck.Reset(g.start)
	case '1', '2', '3':
		g.toggleOption(r)
	}
	return true
}

// push kicks the puck along direction, or drags the grab target when held
func (g *Game) push(direction mgl64.Vec3) {
	if g.puck.Grabbed() {
		g.target = g.target.Add(direction.Mul(float64(g.cfg.Camera.MoveStep)))
		g.puck.Grab(g.target)
		return
	}
	g.puck.ApplyImpulse(direction.Mul(g.cfg.Puck.Impulse))
}

func (g *Game) toggleGrab() {
	if g.puck.Grabbed() {
		g.puck.Drop()
		return
	}
	g.target = g.puck.Transform().Origin
	g.puck.Grab(g.target)
}

func (g *Game) toggleOption(r rune) {
	opts := g.renderer.Options()
	switch r {
	case '1':
		opts.Wireframe = !opts.Wireframe
	case '2':
		opts.Normals = !opts.Normals
	case '3':
		opts.PhysicsDebug = !opts.PhysicsDebug
	}
	g.renderer.SetOptions(opts)
}

// Tick advances the simulation by dt, refreshes every object's pose, then
// paints the frame.
func (g *Game) Tick(dt time.Duration) error {
	if g.closed {
		return nil
	}
	g.world.Step(min(dt, maxTick).Seconds())
	for _, o := range g.objects {
		o.UpdateTransform()
	}

	if g.goal >= 0 {
		g.score[g.goal]++
		g.logger.Info("goal", "end", g.goal, "score", fmt.Sprintf("%d:%d", g.score[0], g.score[1]))
		g.goal = -1
		g.puck.Drop()
		g.puck.Reset(g.start)
	} else if g.outOfRink() {
		g.logger.Warn("puck left the rink", "position", g.puck.Transform().Origin)
		g.puck.Drop()
		g.puck.Reset(g.start)
	}

	g.frame++
	if err := g.renderer.Draw(g.Frame()); err != nil {
		return fmt.Errorf("app: draw frame %d: %w", g.frame, err)
	}
	return nil
}

// outOfRink reports a puck that escaped well past the table bounds
func (g *Game) outOfRink() bool {
	aabb := g.table.Body().Shape.GetAABB()
	origin := g.puck.Transform().Origin
	margin := mgl64.Vec3{1, 1, 1}
	return !aabb.Overlaps(actor.AABB{Min: origin.Sub(margin), Max: origin.Add(margin)})
}

// Frame assembles what the renderer paints for the current state
func (g *Game) Frame() render.Frame {
	opts := g.renderer.Options()
	frame := render.Frame{
		Index:      g.frame,
		View:       g.camera.ViewMatrix(),
		Projection: render.Projection(g.cfg.Camera.FOV, g.renderer.Aspect(), g.cfg.Camera.Near, g.cfg.Camera.Far),
		Items:      []render.Renderable{g.table.Model(), g.puck.Model()},
		Lights:     g.lights,
	}
	if g.lamp >= 0 {
		g.lights.SetPosition(g.lamp, g.camera.Position())
	}

	if opts.PhysicsDebug {
		for _, body := range g.world.Bodies {
			aabb := body.Shape.GetAABB()
			frame.Boxes = append(frame.Boxes, render.DebugBox{Min: vec32(aabb.Min), Max: vec32(aabb.Max)})
		}
	}

	origin := g.puck.Transform().Origin
	velocity := g.puck.Body().Velocity
	frame.HUD = []string{
		fmt.Sprintf("score %d:%d  frame %d  camera %s", g.score[0], g.score[1], g.frame, g.camera.Mode()),
		fmt.Sprintf("puck (%.2f, %.2f) speed %.2f m/s", origin.X(), origin.Z(), velocity.Len()),
	}
	if g.puck.Grabbed() {
		frame.HUD = append(frame.HUD, "grabbed")
	}
	return frame
}

func vec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X()), float32(v.Y()), float32(v.Z())}
}

// Run ticks at the configured rate on wall-clock time and applies events as
// they arrive, until quit, ctx is done, or a frame fails.
func (g *Game) Run(ctx context.Context, events <-chan tcell.Event) error {
	ticker := time.NewTicker(time.Second / time.Duration(g.cfg.Physics.TickRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !g.HandleEvent(ev) {
				return nil
			}
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := g.Tick(dt); err != nil {
				return err
			}
		}
	}
}

// RunFrames ticks n times at the fixed rate, without waiting
func (g *Game) RunFrames(n int) error {
	dt := time.Second / time.Duration(g.cfg.Physics.TickRate)
	for range n {
		if err := g.Tick(dt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the scene, then the world, the renderer and the clicker.
// Calling it again does nothing.
func (g *Game) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true

	g.puck.Release()
	g.table.Release()
	g.world.Release()
	if g.clicker != nil {
		g.clicker.Close()
	}
	g.logger.Debug("rink closed", "frames", g.frame, "teardown", g.world.TeardownLog)
	return g.renderer.Close()
}

func (g *Game) Camera() *camera.Camera {
	return &g.camera
}

// Lights returns the light set painted with every frame, nil when unlit
func (g *Game) Lights() *render.Lights {
	return g.lights
}

func (g *Game) Puck() *object.Puck {
	return g.puck
}

func (g *Game) Table() *object.Table {
	return g.table
}

func (g *Game) World() *rink.World {
	return g.world
}

func (g *Game) Score() [2]int {
	return g.score
}

func (g *Game) Frames() int {
	return g.frame
}
