package rink

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_WORKERS   = 1
	DEFAULT_SUBSTEPS  = 4
	DEFAULT_CELL_SIZE = 0.5
	DEFAULT_CELLS     = 1024
)

// WorldConfig gathers the tunables of a World
type WorldConfig struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity  mgl64.Vec3
	Substeps int
	Workers  int

	// Broad phase
	CellSize float64
	Cells    int

	// Bodies slower than SleepVelocity for SleepTime seconds fall asleep
	SleepTime     float64
	SleepVelocity float64

	ContactCompliance float64
	// ContactMargin pads mesh queries so resting contacts are not missed
	ContactMargin float64
	// NormalMergeCosine groups mesh contacts whose normals are this close
	NormalMergeCosine float64

	Logger *slog.Logger
}

// DefaultWorldConfig returns Earth gravity and conservative solver settings
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Gravity:           mgl64.Vec3{0, -9.81, 0},
		Substeps:          DEFAULT_SUBSTEPS,
		Workers:           DEFAULT_WORKERS,
		CellSize:          DEFAULT_CELL_SIZE,
		Cells:             DEFAULT_CELLS,
		SleepTime:         0.1,
		SleepVelocity:     0.05,
		ContactCompliance: 1e-7,
		ContactMargin:     0.01,
		NormalMergeCosine: 0.98,
	}
}

// CollisionConfiguration holds the collision settings shared by the
// dispatcher and the solver. It is the first object a World allocates and
// the last one it releases.
type CollisionConfiguration struct {
	ContactCompliance float64
	ContactMargin     float64
	NormalMergeCosine float64
}

func newCollisionConfiguration(cfg WorldConfig) *CollisionConfiguration {
	return &CollisionConfiguration{
		ContactCompliance: cfg.ContactCompliance,
		ContactMargin:     cfg.ContactMargin,
		NormalMergeCosine: cfg.NormalMergeCosine,
	}
}
