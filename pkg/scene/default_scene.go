package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// NewDefaultScene creates a default scene with a diffuse, a glass and a metal sphere on a large ground sphere
func NewDefaultScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Width:           400,
		Height:          225,
		Origin:          core.NewVec3(0, 0.75, 2), // Position camera higher and farther back
		LookAt:          core.NewVec3(0, 0.25, -1),
		Up:              core.NewVec3(0, 1, 0),
		VFov:            40.0,
		AspectRatio:     16.0 / 9.0,
		SamplesPerPixel: 100,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	// Create materials
	lambertianGround := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0).Multiply(0.6))
	lambertianRed := material.NewLambertian(core.NewVec3(0.65, 0.25, 0.2))
	metalGold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)
	materialGlass := material.NewGlass(1.5)

	world := NewWorld()
	world.Add("ground", geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100), lambertianGround)
	world.Add("center", geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5), lambertianRed)
	world.Add("left", geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5), materialGlass)
	world.Add("right", geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5), metalGold)

	return &Scene{
		Name:         "default",
		World:        world,
		CameraConfig: cameraConfig,
		Background:   DefaultBackground(),
		MaxDepth:     DefaultMaxDepth,
	}
}

// NewSingleSphereScene creates one grey diffuse sphere in front of the camera under a two-color sky
func NewSingleSphereScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Width:           200,
		Height:          100,
		Origin:          core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		Up:              core.NewVec3(0, 1, 0),
		VFov:            90.0,
		SamplesPerPixel: 16,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	world := NewWorld()
	world.Add("sphere", geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5),
		material.NewLambertian(core.NewColorRGB8(128, 128, 128)))

	return &Scene{
		Name:         "single-sphere",
		World:        world,
		CameraConfig: cameraConfig,
		Background:   DefaultBackground(),
		MaxDepth:     DefaultMaxDepth,
	}
}

// NewGlassScene creates a glass ball in front of a diffuse and a mirror sphere, useful for checking refraction
func NewGlassScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Width:           400,
		Height:          225,
		Origin:          core.NewVec3(0, 0.5, 1.5),
		LookAt:          core.NewVec3(0, 0, -1),
		Up:              core.NewVec3(0, 1, 0),
		VFov:            45.0,
		AspectRatio:     16.0 / 9.0,
		SamplesPerPixel: 100,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	world := NewWorld()
	world.Add("ground", geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100),
		material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	world.Add("glass", geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5), material.NewGlass(1.5))
	world.Add("blue", geometry.NewSphere(core.NewVec3(-0.6, 0, -2.5), 0.5),
		material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5)))
	world.Add("mirror", geometry.NewSphere(core.NewVec3(0.8, 0, -2.2), 0.5),
		material.NewMetal(core.NewVec3(0.9, 0.9, 0.9), 0.0))

	return &Scene{
		Name:         "glass",
		World:        world,
		CameraConfig: cameraConfig,
		Background:   DefaultBackground(),
		MaxDepth:     DefaultMaxDepth,
	}
}
