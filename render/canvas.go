package render

import (
	"math"

	"github.com/akmonengine/rink/mesh"
	"github.com/go-gl/mathgl/mgl32"
)

// shade ramp from dark to bright
const ramp = " .:-=+*#%@"

var (
	lightDir     = mgl32.Vec3{0.3, 1, 0.5}.Normalize()
	defaultColor = mgl32.Vec3{0.8, 0.8, 0.8}
	normalColor  = mgl32.Vec3{0.2, 0.9, 0.9}
	debugColor   = mgl32.Vec3{1, 0.2, 0.2}
	hudColor     = mgl32.Vec3{1, 1, 1}
)

// Cell is one character of a canvas. Color components are in [0, 1].
type Cell struct {
	Rune  rune
	Color mgl32.Vec3
}

// Canvas is a character framebuffer with a depth buffer
type Canvas struct {
	Width, Height int
	cells         []Cell
	depth         []float32
}

func NewCanvas(width, height int) *Canvas {
	c := &Canvas{}
	c.Resize(width, height)
	return c
}

// Resize reallocates the buffers when the size changes
func (c *Canvas) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width == c.Width && height == c.Height && c.cells != nil {
		return
	}
	c.Width, c.Height = width, height
	c.cells = make([]Cell, width*height)
	c.depth = make([]float32, width*height)
	c.Clear()
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = Cell{Rune: ' '}
		c.depth[i] = math.MaxFloat32
	}
}

// At returns the cell at x, y; outside the canvas it returns a blank
func (c *Canvas) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return Cell{Rune: ' '}
	}
	return c.cells[y*c.Width+x]
}

// Filled counts the non-blank cells
func (c *Canvas) Filled() int {
	n := 0
	for _, cell := range c.cells {
		if cell.Rune != ' ' {
			n++
		}
	}
	return n
}

func (c *Canvas) set(x, y int, depth float32, cell Cell) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return
	}
	i := y*c.Width + x
	if depth > c.depth[i] {
		return
	}
	c.depth[i] = depth
	c.cells[i] = cell
}

// Text writes s from x, y on top of everything else
func (c *Canvas) Text(x, y int, s string) {
	for _, r := range s {
		c.set(x, y, -math.MaxFloat32, Cell{Rune: r, Color: hudColor})
		x++
	}
}

// Paint draws the frame: every renderable, then the debug boxes, then the HUD
func (c *Canvas) Paint(frame Frame, opts Options) {
	viewProjection := frame.Projection.Mul4(frame.View)
	var lights []Light
	if frame.Lights != nil {
		lights = frame.Lights.ViewSpace(frame.View)
	}
	for _, item := range frame.Items {
		c.paintItem(item, frame.View, viewProjection, lights, opts)
	}
	if opts.PhysicsDebug {
		for _, box := range frame.Boxes {
			c.paintBox(box, viewProjection)
		}
	}
	for i, line := range frame.HUD {
		c.Text(0, i, line)
	}
}

// vertex is a projected point: x, y in cells, z in NDC depth
type vertex struct {
	x, y, z float32
	ok      bool
}

func (c *Canvas) project(viewProjection mgl32.Mat4, world mgl32.Vec3) vertex {
	clip := viewProjection.Mul4x1(world.Vec4(1))
	// behind or on the eye plane
	if clip.W() <= 1e-4 {
		return vertex{}
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	return vertex{
		x:  (ndc.X() + 1) / 2 * float32(c.Width),
		y:  (1 - ndc.Y()) / 2 * float32(c.Height),
		z:  ndc.Z(),
		ok: true,
	}
}

// paintItem rasterizes one renderable. Without lights faces keep their
// material colour and are shaded against a fixed direction; with lights they
// are lit per face in eye coordinates.
func (c *Canvas) paintItem(item Renderable, view, viewProjection mgl32.Mat4, lights []Light, opts Options) {
	m := item.Mesh()
	if m == nil {
		return
	}
	model := item.ModelMatrix()
	materials, _ := item.(MaterialSource)

	for t := 0; t+2 < len(m.Indices); t += 3 {
		var world [3]mgl32.Vec3
		var screen [3]vertex
		visible := true
		for k := 0; k < 3; k++ {
			world[k] = mgl32.TransformCoordinate(m.Vertices[m.Indices[t+k]].Position, model)
			screen[k] = c.project(viewProjection, world[k])
			visible = visible && screen[k].ok
		}
		if !visible {
			continue
		}

		color := defaultColor
		if item.Caps().Has(CapMaterial) {
			color = faceColor(materials, m, t/3)
		}

		normal := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
		if normal.Len() < 1e-12 {
			continue
		}
		normal = normal.Normalize()
		center := world[0].Add(world[1]).Add(world[2]).Mul(1.0 / 3.0)

		shade := shadeRune(normal)
		if len(lights) > 0 {
			var brightness float32
			color, brightness = phong(lights,
				mgl32.TransformCoordinate(center, view),
				view.Mat3().Mul3x1(normal).Normalize(),
				color)
			shade = rampRune(brightness)
		}

		if opts.Wireframe {
			for k := 0; k < 3; k++ {
				c.line(screen[k], screen[(k+1)%3], color, 0)
			}
		} else {
			c.fill(screen, shade, color)
		}

		if opts.Normals {
			tip := c.project(viewProjection, center.Add(normal.Mul(0.1)))
			base := c.project(viewProjection, center)
			if tip.ok && base.ok {
				c.line(base, tip, normalColor, '\'')
			}
		}
	}
}

func shadeRune(normal mgl32.Vec3) rune {
	return rampRune(0.2 + 0.8*max(0, normal.Dot(lightDir)))
}

// rampRune maps a brightness in [0, 1] onto the ramp, never blank
func rampRune(intensity float32) rune {
	i := int(intensity * float32(len(ramp)-1))
	return rune(ramp[min(max(i, 1), len(ramp)-1)])
}

// fill rasterizes a front-facing triangle with a depth test
func (c *Canvas) fill(v [3]vertex, r rune, color mgl32.Vec3) {
	// screen y points down, so front faces have a negative signed area
	area := edge(v[0], v[1], v[2].x, v[2].y)
	if area >= 0 {
		return
	}

	minX := max(0, int(math.Floor(float64(min(v[0].x, v[1].x, v[2].x)))))
	maxX := min(c.Width-1, int(math.Ceil(float64(max(v[0].x, v[1].x, v[2].x)))))
	minY := max(0, int(math.Floor(float64(min(v[0].y, v[1].y, v[2].y)))))
	maxY := min(c.Height-1, int(math.Ceil(float64(max(v[0].y, v[1].y, v[2].y)))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5
			w0 := edge(v[1], v[2], px, py) / area
			w1 := edge(v[2], v[0], px, py) / area
			w2 := edge(v[0], v[1], px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			c.set(x, y, w0*v[0].z+w1*v[1].z+w2*v[2].z, Cell{Rune: r, Color: color})
		}
	}
}

func edge(a, b vertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// line draws from a to b. A zero r picks a glyph from the slope.
func (c *Canvas) line(a, b vertex, color mgl32.Vec3, r rune) {
	dx, dy := b.x-a.x, b.y-a.y
	if r == 0 {
		r = slopeRune(dx, dy)
	}
	steps := int(math.Ceil(float64(max(abs32(dx), abs32(dy)))))
	if steps == 0 {
		c.set(int(a.x), int(a.y), a.z, Cell{Rune: r, Color: color})
		return
	}
	// cap the work for segments crossing far outside the canvas
	steps = min(steps, 4*(c.Width+c.Height))
	for i := 0; i <= steps; i++ {
		t := float32(i) / float32(steps)
		x := a.x + dx*t
		y := a.y + dy*t
		z := a.z + (b.z-a.z)*t
		c.set(int(math.Floor(float64(x))), int(math.Floor(float64(y))), z, Cell{Rune: r, Color: color})
	}
}

func slopeRune(dx, dy float32) rune {
	// terminal cells are about twice as tall as wide
	ax, ay := abs32(dx), abs32(dy)*2
	switch {
	case ay < ax*0.4:
		return '-'
	case ax < ay*0.4:
		return '|'
	case (dx > 0) == (dy > 0):
		return '\\'
	default:
		return '/'
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func (c *Canvas) paintBox(box DebugBox, viewProjection mgl32.Mat4) {
	var corners [8]vertex
	for i := 0; i < 8; i++ {
		p := box.Min
		if i&1 != 0 {
			p[0] = box.Max[0]
		}
		if i&2 != 0 {
			p[1] = box.Max[1]
		}
		if i&4 != 0 {
			p[2] = box.Max[2]
		}
		corners[i] = c.project(viewProjection, p)
	}
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			j := i | bit
			if j == i || !corners[i].ok || !corners[j].ok {
				continue
			}
			c.line(corners[i], corners[j], debugColor, '#')
		}
	}
}

// faceColor falls back to the default colour for faces without a usable
// material. A model is told about the first index it failed to resolve.
func faceColor(materials MaterialSource, m *mesh.Mesh, face int) mgl32.Vec3 {
	if materials == nil || face >= len(m.FaceMaterials) {
		return defaultColor
	}
	index := m.FaceMaterials[face]
	mat, err := materials.Material(index)
	if err != nil {
		if r, ok := materials.(materialReporter); ok {
			r.materialMissing(face, index, err)
		}
		return defaultColor
	}
	return mat.Diffuse
}

type materialReporter interface {
	materialMissing(face, index int, err error)
}
