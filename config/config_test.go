package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/akmonengine/rink/camera"
	"github.com/akmonengine/rink/mesh"
	"github.com/akmonengine/rink/render"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	mode, err := cfg.CameraMode()
	require.NoError(t, err)
	assert.Equal(t, camera.YLockBoth, mode)
	assert.Equal(t, mesh.DefaultTableSpec(), cfg.TableSpec())
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "rink.toml", `
[physics]
substeps = 8
gravity = [0.0, -1.62, 0.0]

[camera]
mode = "free"
position = [1.0, 2.0, 3.0]

[puck]
radius = 0.05
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Physics.Substeps)
	assert.Equal(t, [3]float64{0, -1.62, 0}, cfg.Physics.Gravity)
	assert.Equal(t, "free", cfg.Camera.Mode)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, cfg.CameraPosition())
	assert.Equal(t, 0.05, cfg.Puck.Radius)

	def := Default()
	assert.Equal(t, def.Puck.Density, cfg.Puck.Density, "missing keys keep defaults")
	assert.Equal(t, def.Table, cfg.Table)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "rink.yml", `
camera:
  mode: YLOCK-VERT
render:
  renderer: headless
  wireframe: true
audio:
  enabled: false
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	mode, err := cfg.CameraMode()
	require.NoError(t, err)
	assert.Equal(t, camera.YLockVert, mode)
	assert.Equal(t, "headless", cfg.Render.Renderer)
	assert.True(t, cfg.Render.Wireframe)
	assert.False(t, cfg.Audio.Enabled)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_EmptyYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		invalid bool
	}{
		{"unknown toml key", "a.toml", "[puck]\nsize = 3\n", false},
		{"unknown yaml key", "a.yaml", "puck:\n  size: 3\n", false},
		{"malformed toml", "a.toml", "[physics\n", false},
		{"unsupported extension", "a.json", "{}", true},
		{"invalid value", "a.toml", "[puck]\nradius = -1.0\n", true},
		{"invalid camera mode", "a.yaml", "camera:\n  mode: orbit\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalid), err.Error())
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Physics.Substeps = 0
	cfg.Camera.Near = 200
	cfg.Render.Renderer = "opengl"
	cfg.Audio.Volume = 2
	cfg.Audio.FullSpeed = 0
	cfg.Render.Light.Ambient = [3]float32{0, -1, 0}

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	for _, key := range []string{"physics.substeps", "near/far", "render.renderer", "audio.volume", "audio.full_speed", "render.light.ambient"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestValidate_DisabledAudio(t *testing.T) {
	cfg := Default()
	cfg.Audio = Audio{}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_TableMesh(t *testing.T) {
	cfg := Default()
	cfg.Table.Width = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg.Table.Mesh = "rink.obj"
	assert.NoError(t, cfg.Validate())
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Camera.Mode = "free"
	cfg.Puck.Mesh = "puck.obj"
	cfg.Table.Position = [3]float64{0, -0.5, 0}

	for _, name := range []string{"out/rink.toml", "out/rink.yaml"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, Save(cfg, path))

		loaded, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, cfg, loaded, name)
	}

	assert.ErrorIs(t, Save(cfg, filepath.Join(t.TempDir(), "rink.ini")), ErrInvalid)
}

func TestWorldConfig(t *testing.T) {
	cfg := Default()
	cfg.Physics.Gravity = [3]float64{0, -1, 0}
	cfg.Physics.Substeps = 2
	logger := slog.Default()

	world := cfg.WorldConfig(logger)
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, world.Gravity)
	assert.Equal(t, 2, world.Substeps)
	assert.Same(t, logger, world.Logger)
	assert.Positive(t, world.ContactCompliance, "unset fields keep physics defaults")
}

func TestLoad_LightsWallsAndFullSpeed(t *testing.T) {
	path := writeFile(t, "rink.toml", `
[table]
walls = "walls.obj"

[render]
camera_lamp = true

[render.light]
position = [0.0, 3.0, 0.0]
diffuse = [1.0, 1.0, 1.0]

[audio]
full_speed = 8.0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "walls.obj", cfg.Table.Walls)
	assert.True(t, cfg.Render.CameraLamp)
	assert.Equal(t, 8.0, cfg.Audio.FullSpeed)

	lights := cfg.Lights()
	require.NotNil(t, lights)
	assert.Equal(t, 1, lights.Len())
	light, ok := lights.Get(0)
	require.True(t, ok)
	assert.Equal(t, render.Light{
		Position: mgl32.Vec3{0, 3, 0},
		Diffuse:  mgl32.Vec3{1, 1, 1},
		Specular: mgl32.Vec3(Default().Render.Light.Specular),
		Ambient:  mgl32.Vec3(Default().Render.Light.Ambient),
	}, light)
}

func TestLights_Off(t *testing.T) {
	cfg := Default()
	cfg.Render.Lighting = false
	assert.Nil(t, cfg.Lights())
}
