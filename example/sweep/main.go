// Sweep moves a cube through a static one and prints the intersection events.
//
// An optional glTF file can be given to use its first mesh as the moving collider:
//
//	go run ./example/sweep model.glb
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/akmonengine/narrowphase"
	"github.com/akmonengine/narrowphase/actor"
	"github.com/akmonengine/narrowphase/gjk"
	"github.com/akmonengine/narrowphase/loader"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	frameTime = float32(1.0 / 60.0)
	sweepTime = float32(2)
)

func cube(halfExtent float64) *actor.CollisionMesh {
	h := halfExtent
	mesh, _ := actor.NewCollisionMeshFromPoints([]mgl64.Vec3{
		{-h, -h, -h}, {h, -h, -h}, {-h, h, -h}, {h, h, -h},
		{-h, -h, h}, {h, -h, h}, {-h, h, h}, {h, h, h},
	})
	return mesh
}

func place(world *narrowphase.World, e narrowphase.Entity, transform actor.Transform, mesh *actor.CollisionMesh) error {
	if err := world.SetTransform(e, transform); err != nil {
		return err
	}
	return world.SetCollisionMesh(e, mesh)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	actor.SetLogger(logger)
	gjk.SetLogger(logger)

	world := narrowphase.NewWorld()
	world.Logger = logger

	movingMesh := cube(0.5)
	if len(os.Args) > 1 {
		mesh, err := loader.FromFile(os.Args[1], "")
		if err != nil {
			logger.Error("failed to load model", "path", os.Args[1], "error", err)
			os.Exit(1)
		}
		movingMesh = mesh
	}

	static := world.Spawn()
	if err := place(world, static, actor.NewTransform(), cube(1)); err != nil {
		logger.Error("failed to place static cube", "error", err)
		os.Exit(1)
	}

	moving := world.Spawn()
	if err := place(world, moving, actor.NewTranslation(mgl64.Vec3{-4, 0, 0}), movingMesh); err != nil {
		logger.Error("failed to place moving collider", "error", err)
		os.Exit(1)
	}

	if err := world.Watch(static, moving); err != nil {
		logger.Error("failed to watch pair", "error", err)
		os.Exit(1)
	}

	frame := 0
	world.Events.Subscribe(narrowphase.INTERSECTION_ENTER, func(event narrowphase.Event) {
		e := event.(narrowphase.IntersectionEnterEvent)
		fmt.Printf("frame %d: %v entered %v\n", frame, e.EntityB, e.EntityA)
	})
	world.Events.Subscribe(narrowphase.INTERSECTION_EXIT, func(event narrowphase.Event) {
		e := event.(narrowphase.IntersectionExitEvent)
		fmt.Printf("frame %d: %v left %v\n", frame, e.EntityB, e.EntityA)
	})

	tween := gween.New(-4, 4, sweepTime, ease.InOutQuad)
	for finished := false; !finished; frame++ {
		var x float32
		x, finished = tween.Update(frameTime)

		transform := actor.NewTranslation(mgl64.Vec3{float64(x), 0, 0})
		transform.Rotation = mgl64.QuatRotate(float64(x)/2, mgl64.Vec3{0, 1, 0})
		if err := world.SetTransform(moving, transform); err != nil {
			logger.Error("failed to move collider", "frame", frame, "error", err)
			os.Exit(1)
		}
		world.Step()
	}

	fmt.Printf("%d frames\n", frame)
}
