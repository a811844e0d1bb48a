// Package config loads the rink settings from TOML or YAML files. Values
// missing from a file keep their defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/akmonengine/rink"
	"github.com/akmonengine/rink/camera"
	"github.com/akmonengine/rink/logx"
	"github.com/akmonengine/rink/mesh"
	"github.com/akmonengine/rink/render"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("config: invalid")

// Config contains every tunable of a rink session
type Config struct {
	Physics Physics `toml:"physics" yaml:"physics"`
	Camera  Camera  `toml:"camera" yaml:"camera"`
	Puck    Puck    `toml:"puck" yaml:"puck"`
	Table   Table   `toml:"table" yaml:"table"`
	Render  Render  `toml:"render" yaml:"render"`
	Audio   Audio   `toml:"audio" yaml:"audio"`
	Log     Log     `toml:"log" yaml:"log"`
}

type Physics struct {
	Gravity  [3]float64 `toml:"gravity" yaml:"gravity"`
	Substeps int        `toml:"substeps" yaml:"substeps"`
	Workers  int        `toml:"workers" yaml:"workers"`
	CellSize float64    `toml:"cell_size" yaml:"cell_size"`
	// TickRate is the number of frames per second
	TickRate int `toml:"tick_rate" yaml:"tick_rate"`
}

type Camera struct {
	// Mode is free, ylock-vert or ylock-both
	Mode     string     `toml:"mode" yaml:"mode"`
	Position [3]float32 `toml:"position" yaml:"position"`
	// Pitch tilts the initial view, in degrees; negative looks down
	Pitch float32 `toml:"pitch" yaml:"pitch"`
	// MoveStep is the distance of one move key press
	MoveStep float32 `toml:"move_step" yaml:"move_step"`
	// TurnStep is the angle in degrees of one rotate key press
	TurnStep float32 `toml:"turn_step" yaml:"turn_step"`
	FOV      float32 `toml:"fov" yaml:"fov"`
	Near     float32 `toml:"near" yaml:"near"`
	Far      float32 `toml:"far" yaml:"far"`
}

type Puck struct {
	Mesh        string  `toml:"mesh" yaml:"mesh"`
	FlipUVs     bool    `toml:"flip_uvs" yaml:"flip_uvs"`
	Radius      float64 `toml:"radius" yaml:"radius"`
	Density     float64 `toml:"density" yaml:"density"`
	Friction    float64 `toml:"friction" yaml:"friction"`
	Restitution float64 `toml:"restitution" yaml:"restitution"`
	// Position of the puck centre; the default floats it 2 cm over the
	// floor on its air cushion
	Position [3]float64 `toml:"position" yaml:"position"`
	// Impulse is the momentum, in N·s, of one push key press
	Impulse float64 `toml:"impulse" yaml:"impulse"`
}

type Table struct {
	Mesh string `toml:"mesh" yaml:"mesh"`
	// Walls is a collision mesh used instead of Mesh for physics
	Walls          string     `toml:"walls" yaml:"walls"`
	FlipUVs        bool       `toml:"flip_uvs" yaml:"flip_uvs"`
	Scale          float64    `toml:"scale" yaml:"scale"`
	Position       [3]float64 `toml:"position" yaml:"position"`
	Friction       float64    `toml:"friction" yaml:"friction"`
	Restitution    float64    `toml:"restitution" yaml:"restitution"`
	Width          float32    `toml:"width" yaml:"width"`
	Length         float32    `toml:"length" yaml:"length"`
	WallHeight     float32    `toml:"wall_height" yaml:"wall_height"`
	WallThickness  float32    `toml:"wall_thickness" yaml:"wall_thickness"`
	FloorThickness float32    `toml:"floor_thickness" yaml:"floor_thickness"`
	GoalWidth      float32    `toml:"goal_width" yaml:"goal_width"`
}

type Render struct {
	// Renderer is term or headless
	Renderer     string `toml:"renderer" yaml:"renderer"`
	Wireframe    bool   `toml:"wireframe" yaml:"wireframe"`
	Normals      bool   `toml:"normals" yaml:"normals"`
	PhysicsDebug bool   `toml:"physics_debug" yaml:"physics_debug"`
	// Lighting off paints faces in their flat material colour
	Lighting bool  `toml:"lighting" yaml:"lighting"`
	Light    Light `toml:"light" yaml:"light"`
	// CameraLamp adds a grey light that follows the camera; it needs Lighting
	CameraLamp bool `toml:"camera_lamp" yaml:"camera_lamp"`
}

// Light is a point light in world space; colours are RGB in [0, 1]
type Light struct {
	Position [3]float32 `toml:"position" yaml:"position"`
	Diffuse  [3]float32 `toml:"diffuse" yaml:"diffuse"`
	Specular [3]float32 `toml:"specular" yaml:"specular"`
	Ambient  [3]float32 `toml:"ambient" yaml:"ambient"`
}

type Audio struct {
	Enabled    bool    `toml:"enabled" yaml:"enabled"`
	Volume     float64 `toml:"volume" yaml:"volume"`
	SampleRate int     `toml:"sample_rate" yaml:"sample_rate"`
	// Frequency of the click tone in Hz
	Frequency float64 `toml:"frequency" yaml:"frequency"`
	// ClickMs is the click length in milliseconds
	ClickMs int `toml:"click_ms" yaml:"click_ms"`
	// MinSpeed filters out resting contacts, in m/s
	MinSpeed float64 `toml:"min_speed" yaml:"min_speed"`
	// FullSpeed is the impact speed that plays at full volume, in m/s
	FullSpeed float64 `toml:"full_speed" yaml:"full_speed"`
}

type Log struct {
	Level string `toml:"level" yaml:"level"`
	// File receives the log; empty means stderr
	File string `toml:"file" yaml:"file"`
}

// Default returns a playable rink: the procedural table and puck, viewed
// from above one end.
func Default() Config {
	spec := mesh.DefaultTableSpec()
	return Config{
		Physics: Physics{
			Gravity:  [3]float64{0, -9.81, 0},
			Substeps: rink.DEFAULT_SUBSTEPS,
			Workers:  rink.DEFAULT_WORKERS,
			CellSize: rink.DEFAULT_CELL_SIZE,
			TickRate: 60,
		},
		Camera: Camera{
			Mode:     camera.YLockBoth.String(),
			Position: [3]float32{0, 2.5, 4},
			Pitch:    -32,
			MoveStep: 0.1,
			TurnStep: 5,
			FOV:      60,
			Near:     0.05,
			Far:      100,
		},
		Puck: Puck{
			Radius:      0.1,
			Density:     1000,
			Friction:    0.05,
			Restitution: 0.9,
			Position:    [3]float64{0, 0.045, 0},
			Impulse:     2,
		},
		Table: Table{
			Scale:          1,
			Friction:       0.05,
			Restitution:    0.9,
			Width:          spec.Width,
			Length:         spec.Length,
			WallHeight:     spec.WallHeight,
			WallThickness:  spec.WallThickness,
			FloorThickness: spec.FloorThickness,
			GoalWidth:      spec.GoalWidth,
		},
		Render: Render{
			Renderer: "term",
			Lighting: true,
			Light: Light{
				Position: [3]float32{4, 4, 4},
				Diffuse:  [3]float32{0.8, 0.6, 0.3},
				Specular: [3]float32{0.5, 0.7, 0.3},
				Ambient:  [3]float32{0.4, 0.4, 0.4},
			},
		},
		Audio: Audio{
			Enabled:    true,
			Volume:     0.5,
			SampleRate: 44100,
			Frequency:  880,
			ClickMs:    30,
			MinSpeed:   0.2,
			FullSpeed:  5,
		},
		Log: Log{Level: "info"},
	}
}

// Load decodes the file at path over Default. The format follows the file
// extension: .toml, .yaml or .yml. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return cfg, fmt.Errorf("%w: unsupported format %q", ErrInvalid, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Save writes cfg to path, in the format given by its extension
func Save(cfg Config, path string) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		data, err = toml.Marshal(cfg)
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("%w: unsupported format %q", ErrInvalid, ext)
	}
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports every invalid setting at once
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Physics.Substeps > 0, "physics.substeps must be positive, got %d", c.Physics.Substeps)
	check(c.Physics.Workers >= 0, "physics.workers must not be negative, got %d", c.Physics.Workers)
	check(c.Physics.CellSize > 0, "physics.cell_size must be positive, got %g", c.Physics.CellSize)
	check(c.Physics.TickRate > 0, "physics.tick_rate must be positive, got %d", c.Physics.TickRate)

	_, err := camera.ParseMode(c.Camera.Mode)
	check(err == nil, "camera.mode: %v", err)
	check(c.Camera.FOV > 0 && c.Camera.FOV < 180, "camera.fov must be in (0, 180), got %g", c.Camera.FOV)
	check(c.Camera.Near > 0 && c.Camera.Far > c.Camera.Near, "camera near/far must satisfy 0 < near < far, got %g/%g", c.Camera.Near, c.Camera.Far)

	check(c.Puck.Radius > 0, "puck.radius must be positive, got %g", c.Puck.Radius)
	check(c.Puck.Density > 0, "puck.density must be positive, got %g", c.Puck.Density)
	check(c.Puck.Restitution >= 0 && c.Puck.Restitution <= 1, "puck.restitution must be in [0, 1], got %g", c.Puck.Restitution)

	check(c.Table.Scale > 0, "table.scale must be positive, got %g", c.Table.Scale)
	check(c.Table.Restitution >= 0 && c.Table.Restitution <= 1, "table.restitution must be in [0, 1], got %g", c.Table.Restitution)
	check(c.Table.Mesh != "" || (c.Table.Width > 0 && c.Table.Length > 0), "table width and length must be positive without a mesh")
	check(c.Table.GoalWidth >= 0, "table.goal_width must not be negative, got %g", c.Table.GoalWidth)

	check(c.Render.Renderer == "term" || c.Render.Renderer == "headless", "render.renderer must be term or headless, got %q", c.Render.Renderer)
	for _, color := range []struct {
		name string
		rgb  [3]float32
	}{{"diffuse", c.Render.Light.Diffuse}, {"specular", c.Render.Light.Specular}, {"ambient", c.Render.Light.Ambient}} {
		check(color.rgb[0] >= 0 && color.rgb[1] >= 0 && color.rgb[2] >= 0, "render.light.%s must not be negative, got %v", color.name, color.rgb)
	}

	check(c.Audio.Volume >= 0 && c.Audio.Volume <= 1, "audio.volume must be in [0, 1], got %g", c.Audio.Volume)
	if c.Audio.Enabled {
		check(c.Audio.SampleRate > 0, "audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
		check(c.Audio.Frequency > 0, "audio.frequency must be positive, got %g", c.Audio.Frequency)
		check(c.Audio.ClickMs > 0, "audio.click_ms must be positive, got %d", c.Audio.ClickMs)
		check(c.Audio.FullSpeed > 0, "audio.full_speed must be positive, got %g", c.Audio.FullSpeed)
	}

	_, err = logx.LevelFromString(c.Log.Level)
	check(err == nil, "log.level: %v", err)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// WorldConfig converts the physics section
func (c Config) WorldConfig(logger *slog.Logger) rink.WorldConfig {
	cfg := rink.DefaultWorldConfig()
	cfg.Gravity = mgl64.Vec3(c.Physics.Gravity)
	cfg.Substeps = c.Physics.Substeps
	cfg.Workers = c.Physics.Workers
	cfg.CellSize = c.Physics.CellSize
	cfg.Logger = logger
	return cfg
}

// CameraMode parses Camera.Mode
func (c Config) CameraMode() (camera.Mode, error) {
	return camera.ParseMode(c.Camera.Mode)
}

func (c Config) CameraPosition() mgl32.Vec3 {
	return mgl32.Vec3(c.Camera.Position)
}

// TableSpec returns the procedural rink dimensions
func (c Config) TableSpec() mesh.TableSpec {
	return mesh.TableSpec{
		Width:          c.Table.Width,
		Length:         c.Table.Length,
		WallHeight:     c.Table.WallHeight,
		WallThickness:  c.Table.WallThickness,
		FloorThickness: c.Table.FloorThickness,
		GoalWidth:      c.Table.GoalWidth,
	}
}

// LogLevel parses Log.Level
func (c Config) LogLevel() (slog.Level, error) {
	return logx.LevelFromString(c.Log.Level)
}

// Lights builds the render light set, nil when lighting is off. The camera
// lamp, if any, is left for the caller to add since it moves every frame.
func (c Config) Lights() *render.Lights {
	if !c.Render.Lighting {
		return nil
	}
	lights := render.NewLights(render.MaxLights)
	lights.Add(render.Light{
		Position: mgl32.Vec3(c.Render.Light.Position),
		Diffuse:  mgl32.Vec3(c.Render.Light.Diffuse),
		Specular: mgl32.Vec3(c.Render.Light.Specular),
		Ambient:  mgl32.Vec3(c.Render.Light.Ambient),
	})
	return lights
}
