// Package render turns meshes placed by model matrices into frames. The
// renderers here are software ones: a terminal renderer built on tcell and a
// headless recorder.
package render

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/akmonengine/rink/mesh"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrIndexOutOfRange is returned for a material index the model does not have
var ErrIndexOutOfRange = errors.New("render: material index out of range")

// Caps flags the optional resources a model can be drawn with
type Caps uint8

const (
	CapNormals Caps = 1 << iota
	CapUVs
	CapMaterial
	CapTexture
)

// Has reports whether every flag in flags is set
func (c Caps) Has(flags Caps) bool {
	return c&flags == flags
}

func (c Caps) String() string {
	var names []string
	for _, f := range []struct {
		flag Caps
		name string
	}{{CapNormals, "normals"}, {CapUVs, "uvs"}, {CapMaterial, "material"}, {CapTexture, "texture"}} {
		if c.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Renderable is anything a renderer can draw
type Renderable interface {
	ModelMatrix() mgl32.Mat4
	Mesh() *mesh.Mesh
	Caps() Caps
}

// MaterialSource is implemented by renderables carrying materials
type MaterialSource interface {
	Material(i int) (mesh.Material, error)
}

// Model pairs a mesh with the capabilities it can actually be drawn with and
// a model matrix.
type Model struct {
	mesh  *mesh.Mesh
	caps  Caps
	model mgl32.Mat4

	logger *slog.Logger
	// set once a face referenced a missing material
	reported bool
}

// NewModel checks the mesh resources. A missing material library or texture
// is logged and clears the matching capability; it never fails.
func NewModel(m *mesh.Mesh, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	model := &Model{mesh: m, model: mgl32.Ident4(), logger: logger}

	if m.HasNormals {
		model.caps |= CapNormals
	}
	if m.HasUVs {
		model.caps |= CapUVs
	}
	if m.MaterialErr != nil {
		logger.Warn("material library unavailable, using default material",
			"mesh", m.Name, "path", m.MaterialLib, "error", m.MaterialErr)
		return model
	}
	if len(m.Materials) == 0 {
		return model
	}
	model.caps |= CapMaterial

	textured := false
	for _, mat := range m.Materials {
		if mat.Texture == "" {
			continue
		}
		if _, err := os.Stat(mat.Texture); err != nil {
			logger.Warn("texture unavailable", "mesh", m.Name, "material", mat.Name, "texture", mat.Texture, "error", err)
			textured = false
			break
		}
		textured = true
	}
	if textured && m.HasUVs {
		model.caps |= CapTexture
	}
	return model
}

func (m *Model) Mesh() *mesh.Mesh {
	return m.mesh
}

func (m *Model) Caps() Caps {
	return m.caps
}

func (m *Model) ModelMatrix() mgl32.Mat4 {
	return m.model
}

func (m *Model) SetModelMatrix(model mgl32.Mat4) {
	m.model = model
}

// Material returns material i. Without CapMaterial every index is out of
// range.
func (m *Model) Material(i int) (mesh.Material, error) {
	if !m.caps.Has(CapMaterial) || i < 0 || i >= len(m.mesh.Materials) {
		return mesh.Material{}, ErrIndexOutOfRange
	}
	return m.mesh.Materials[i], nil
}

// materialMissing logs the first face whose material cannot be resolved
func (m *Model) materialMissing(face, index int, err error) {
	if m.reported {
		return
	}
	m.reported = true
	logger := m.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("face material unavailable, using default colour",
		"mesh", m.mesh.Name, "face", face, "material", index, "error", err)
}
