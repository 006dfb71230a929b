package integrator

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor returns the linear radiance carried back along ray.
	// Implementations must be safe for concurrent use with distinct samplers.
	RayColor(ray core.Ray, scene *scene.Scene, sampler core.Sampler) core.Vec3
}

// CheckedIntegrator is an Integrator that can report invalid rays and non-finite results.
// The renderer prefers RayColorChecked when it is available.
type CheckedIntegrator interface {
	Integrator
	RayColorChecked(ray core.Ray, scene *scene.Scene, sampler core.Sampler) (core.Vec3, error)
}
