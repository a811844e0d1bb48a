package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/akmonengine/rink/mesh"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createQuad returns a 2×2 square in the XY plane facing +Z
func createQuad() *mesh.Mesh {
	n := mgl32.Vec3{0, 0, 1}
	return &mesh.Mesh{
		Name: "quad",
		Vertices: []mesh.Vertex{
			{Position: mgl32.Vec3{-1, -1, 0}, Normal: n},
			{Position: mgl32.Vec3{1, -1, 0}, Normal: n},
			{Position: mgl32.Vec3{1, 1, 0}, Normal: n},
			{Position: mgl32.Vec3{-1, 1, 0}, Normal: n},
		},
		Indices:       []uint32{0, 1, 2, 0, 2, 3},
		FaceMaterials: []int{0, 0},
		Materials:     []mesh.Material{{Name: "red", Diffuse: mgl32.Vec3{1, 0, 0}}},
		HasNormals:    true,
	}
}

func frameFrom(eye mgl32.Vec3, items ...Renderable) Frame {
	return Frame{
		View:       mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		Projection: Projection(60, 1, 0.1, 100),
		Items:      items,
	}
}

func TestCaps(t *testing.T) {
	caps := CapNormals | CapMaterial
	assert.True(t, caps.Has(CapNormals))
	assert.False(t, caps.Has(CapNormals|CapTexture))
	assert.Equal(t, "normals|material", caps.String())
	assert.Equal(t, "none", Caps(0).String())
}

func TestNewModel_Caps(t *testing.T) {
	dir := t.TempDir()
	texture := filepath.Join(dir, "ice.png")
	require.NoError(t, os.WriteFile(texture, []byte("png"), 0o644))

	tests := []struct {
		name     string
		mutate   func(m *mesh.Mesh)
		expected Caps
	}{
		{"material only", func(m *mesh.Mesh) {}, CapNormals | CapMaterial},
		{"no materials", func(m *mesh.Mesh) { m.Materials = nil }, CapNormals},
		{"broken library", func(m *mesh.Mesh) { m.MaterialErr = os.ErrNotExist }, CapNormals},
		{"texture present", func(m *mesh.Mesh) {
			m.HasUVs = true
			m.Materials[0].Texture = texture
		}, CapNormals | CapUVs | CapMaterial | CapTexture},
		{"texture missing", func(m *mesh.Mesh) {
			m.HasUVs = true
			m.Materials[0].Texture = filepath.Join(dir, "gone.png")
		}, CapNormals | CapUVs | CapMaterial},
		{"texture without uvs", func(m *mesh.Mesh) { m.Materials[0].Texture = texture }, CapNormals | CapMaterial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := createQuad()
			tt.mutate(m)
			assert.Equal(t, tt.expected, NewModel(m, nil).Caps())
		})
	}
}

func TestModel_Material(t *testing.T) {
	model := NewModel(createQuad(), nil)

	mat, err := model.Material(0)
	require.NoError(t, err)
	assert.Equal(t, "red", mat.Name)

	for _, i := range []int{-1, 1, 7} {
		_, err := model.Material(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", i)
	}

	broken := createQuad()
	broken.MaterialErr = os.ErrNotExist
	_, err = NewModel(broken, nil).Material(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestModel_ModelMatrix(t *testing.T) {
	model := NewModel(createQuad(), nil)
	assert.Equal(t, mgl32.Ident4(), model.ModelMatrix())

	model.SetModelMatrix(mgl32.Translate3D(1, 2, 3))
	assert.Equal(t, mgl32.Translate3D(1, 2, 3), model.ModelMatrix())
}

func TestCanvas_FillsFrontFace(t *testing.T) {
	c := NewCanvas(40, 20)
	c.Paint(frameFrom(mgl32.Vec3{0, 0, 3}, NewModel(createQuad(), nil)), Options{})

	center := c.At(20, 10)
	assert.NotEqual(t, ' ', center.Rune)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, center.Color, "material colour")
	assert.Equal(t, ' ', c.At(0, 0).Rune)
	assert.Greater(t, c.Filled(), 20)
}

func TestCanvas_CullsBackFace(t *testing.T) {
	c := NewCanvas(40, 20)
	c.Paint(frameFrom(mgl32.Vec3{0, 0, -3}, NewModel(createQuad(), nil)), Options{})

	assert.Zero(t, c.Filled())
}

func TestCanvas_DepthTest(t *testing.T) {
	near := &Model{mesh: createQuad(), model: mgl32.Translate3D(0, 0, 1)}
	far := &Model{mesh: createQuad(), model: mgl32.Scale3D(2, 2, 1), caps: CapMaterial}
	far.mesh.Materials[0].Diffuse = mgl32.Vec3{0, 0, 1}

	for _, order := range [][]Renderable{{near, far}, {far, near}} {
		c := NewCanvas(40, 20)
		c.Paint(frameFrom(mgl32.Vec3{0, 0, 3}, order...), Options{})
		assert.Equal(t, defaultColor, c.At(20, 10).Color, "nearer quad wins")
	}
}

func TestCanvas_WireframeAndDebug(t *testing.T) {
	quad := NewModel(createQuad(), nil)

	wire := NewCanvas(40, 20)
	wire.Paint(frameFrom(mgl32.Vec3{0, 0, 3}, quad), Options{Wireframe: true})
	filled := NewCanvas(40, 20)
	filled.Paint(frameFrom(mgl32.Vec3{0, 0, 3}, quad), Options{})
	assert.Greater(t, wire.Filled(), 0)
	assert.Less(t, wire.Filled(), filled.Filled(), "edges only")

	frame := frameFrom(mgl32.Vec3{0, 0, 3})
	frame.Boxes = []DebugBox{{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}}
	hidden := NewCanvas(40, 20)
	hidden.Paint(frame, Options{})
	assert.Zero(t, hidden.Filled(), "boxes need PhysicsDebug")

	debug := NewCanvas(40, 20)
	debug.Paint(frame, Options{PhysicsDebug: true})
	assert.Greater(t, debug.Filled(), 0)
}

func TestCanvas_Normals(t *testing.T) {
	quad := NewModel(createQuad(), nil)
	frame := frameFrom(mgl32.Vec3{2, 1, 3}, quad)

	plain := NewCanvas(60, 30)
	plain.Paint(frame, Options{Wireframe: true})
	ticks := NewCanvas(60, 30)
	ticks.Paint(frame, Options{Wireframe: true, Normals: true})

	assert.Greater(t, ticks.Filled(), plain.Filled())
}

func TestCanvas_HUDOnTop(t *testing.T) {
	c := NewCanvas(40, 20)
	frame := frameFrom(mgl32.Vec3{0, 0, 1.2}, NewModel(createQuad(), nil))
	frame.HUD = []string{"score 1:0"}

	c.Paint(frame, Options{})

	assert.Equal(t, 's', c.At(0, 0).Rune)
	assert.Equal(t, '0', c.At(8, 0).Rune)
	assert.Equal(t, ' ', c.At(100, 100).Rune, "out of bounds reads blank")
}

func TestCanvas_BehindCamera(t *testing.T) {
	c := NewCanvas(40, 20)
	model := &Model{mesh: createQuad(), model: mgl32.Translate3D(0, 0, 10)}

	require.NotPanics(t, func() { c.Paint(frameFrom(mgl32.Vec3{0, 0, 3}, model), Options{}) })
	assert.Zero(t, c.Filled())
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(40, 20, Options{})
	a := NewModel(createQuad(), nil)
	b := NewModel(createQuad(), nil)
	b.SetModelMatrix(mgl32.Translate3D(0, 0, -2))

	require.NoError(t, r.Draw(frameFrom(mgl32.Vec3{0, 0, 3}, a, b)))
	require.NoError(t, r.Draw(frameFrom(mgl32.Vec3{0, 0, 3}, a, b)))

	assert.Equal(t, 2, r.Frames)
	assert.Equal(t, []mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(0, 0, -2)}, r.Models)
	assert.Greater(t, r.Canvas().Filled(), 0)
	assert.InDelta(t, 1.0, r.Aspect(), 1e-6)

	r.SetOptions(Options{Wireframe: true})
	assert.True(t, r.Options().Wireframe)
	require.NoError(t, r.Close())
	assert.True(t, r.Closed())
}

func TestTerm_Draw(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(40, 20)

	term := NewTerm(screen, Options{}, nil)
	defer term.Close()
	frame := frameFrom(mgl32.Vec3{0, 0, 3}, NewModel(createQuad(), nil))
	frame.HUD = []string{"rink"}

	require.NoError(t, term.Draw(frame))

	mainc, _, style, _ := screen.GetContent(0, 0)
	assert.Equal(t, 'r', mainc)
	fg, _, _ := style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(255, 255, 255), fg)

	center, _, _, _ := screen.GetContent(20, 10)
	assert.NotEqual(t, ' ', center)
	assert.InDelta(t, 1.0, term.Aspect(), 1e-6)

	term.SetOptions(Options{PhysicsDebug: true})
	assert.True(t, term.Options().PhysicsDebug)
}

func TestToColor(t *testing.T) {
	assert.Equal(t, tcell.NewRGBColor(255, 0, 127), toColor(mgl32.Vec3{2, -1, 0.5}))
}
