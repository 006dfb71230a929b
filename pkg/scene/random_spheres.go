package scene

import (
	"fmt"
	"math/rand/v2"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// DefaultRandomSpheresSeed is used by the registry when no seed is given
const DefaultRandomSpheresSeed = 1

// NewRandomSpheresScene creates the classic cover scene: a huge ground sphere, a 22x22 grid of
// small randomly-placed spheres and three large feature spheres. Placement and materials are
// drawn from seed so the same seed always yields the same world.
func NewRandomSpheresScene(seed uint64, cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Width:           800,
		Height:          450,
		Origin:          core.NewVec3(13, 2, 3),
		LookAt:          core.NewVec3(0, 0, 0),
		Up:              core.NewVec3(0, 1, 0),
		VFov:            20.0,
		AspectRatio:     16.0 / 9.0,
		SamplesPerPixel: 50,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	random := rand.New(rand.NewPCG(seed, 0))
	randomColor := func() core.Vec3 {
		return core.NewColorRGB8(uint8(random.IntN(256)), uint8(random.IntN(256)), uint8(random.IntN(256)))
	}

	world := NewWorld()
	world.Add("ground", geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000),
		material.NewLambertian(core.NewColorRGB8(125, 125, 125)))

	const smallRadius = 0.2
	glass := material.NewGlass(1.5)
	featurePoint := core.NewVec3(4, smallRadius, 0)

	for i := -11; i < 11; i++ {
		for j := -11; j < 11; j++ {
			chooseMaterial := random.Float64()
			center := core.NewVec3(
				float64(i)+0.9*random.Float64(),
				smallRadius,
				float64(j)+0.9*random.Float64(),
			)

			// Keep the area around the metal feature sphere clear
			if center.Subtract(featurePoint).Length() <= 0.9 {
				continue
			}

			name := fmt.Sprintf("small-%d-%d", i, j)
			sphere := geometry.NewSphere(center, smallRadius)
			switch {
			case chooseMaterial < 0.8:
				world.Add(name, sphere, material.NewLambertian(randomColor().MultiplyVec(randomColor())))
			case chooseMaterial < 0.95:
				world.Add(name, sphere, material.NewMetal(randomColor(), 0.5*random.Float64()))
			default:
				world.Add(name, sphere, glass)
			}
		}
	}

	world.Add("glass", geometry.NewSphere(core.NewVec3(0, 1, 0), 1.0), glass)
	world.Add("diffuse", geometry.NewSphere(core.NewVec3(-4, 1, 0), 1.0),
		material.NewLambertian(core.NewColorRGB8(100, 50, 25)))
	world.Add("metal", geometry.NewSphere(core.NewVec3(4, 1, 0), 1.0),
		material.NewMetal(core.NewColorRGB8(120, 120, 120), 0.0))

	return &Scene{
		Name:         "random-spheres",
		World:        world,
		CameraConfig: cameraConfig,
		Background:   DefaultBackground(),
		MaxDepth:     DefaultMaxDepth,
	}
}
