package main

import (
	"fmt"
	"os"

	"github.com/akmonengine/rink"
	"github.com/akmonengine/rink/mesh"
	"github.com/akmonengine/rink/object"
	"github.com/go-gl/mathgl/mgl64"
)

// SetupScene creates a closed rink with a puck hovering in its centre
func SetupScene() (*rink.World, *object.Table, *object.Puck, error) {
	world := rink.NewWorld(rink.DefaultWorldConfig())

	spec := mesh.DefaultTableSpec()
	spec.GoalWidth = 0
	table, err := object.NewTable(world, object.TableParams{Spec: spec, Friction: 0.05, Restitution: 0.9})
	if err != nil {
		world.Release()
		return nil, nil, nil, err
	}

	puck, err := object.NewPuck(world, object.PuckParams{
		Position:    mgl64.Vec3{0, 0.045, 0},
		Radius:      0.1,
		Density:     1000,
		Friction:    0.05,
		Restitution: 0.9,
	})
	if err != nil {
		table.Release()
		world.Release()
		return nil, nil, nil, err
	}
	return world, table, puck, nil
}

func main() {
	world, table, puck, err := SetupScene()
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		os.Exit(1)
	}

	hits := 0
	world.Events.Subscribe(rink.COLLISION_ENTER, func(e rink.Event) {
		hit := e.(rink.CollisionEnterEvent)
		hits++
		fmt.Printf("  hit #%d: normal %.2f speed %.2f m/s\n", hits, hit.Normal, hit.Speed)
	})

	fmt.Println("Puck slide: one diagonal shot in a closed rink")
	fmt.Printf("  puck mass %.3f kg, gravity %v\n", puck.Mass(), world.Gravity)
	puck.ApplyImpulse(mgl64.Vec3{0.8, 0, 2.5}.Mul(puck.Mass()))

	const dt float64 = 1.0 / 60.0
	const maxSteps int = 300

	for step := 0; step < maxSteps; step++ {
		world.Step(dt)
		table.UpdateTransform()
		puck.UpdateTransform()

		if step%30 == 0 {
			origin := puck.Transform().Origin
			angle, _ := puck.Rotation()
			fmt.Printf("step %3d: position (%.3f, %.3f, %.3f) velocity %.3f m/s spin %.1f°\n",
				step, origin.X(), origin.Y(), origin.Z(), puck.Body().Velocity.Len(), mgl64.RadToDeg(angle))
		}
	}

	puck.Release()
	table.Release()
	world.Release()
	fmt.Printf("done: %d wall hits, world closed %v, teardown %v\n", hits, world.Closed(), world.TeardownLog)
}
