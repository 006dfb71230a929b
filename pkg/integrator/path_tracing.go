package integrator

import (
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// Termination says how a traced path ended
type Termination int

const (
	// Escaped means the path left the scene and picked up the background
	Escaped Termination = iota
	// DepthExceeded means the bounce budget ran out; the path carries no light
	DepthExceeded
)

func (t Termination) String() string {
	switch t {
	case Escaped:
		return "escaped"
	case DepthExceeded:
		return "depth-exceeded"
	default:
		return fmt.Sprintf("Termination(%d)", int(t))
	}
}

// PathResult is the outcome of tracing one camera ray
type PathResult struct {
	Color       core.Vec3
	Throughput  core.Vec3 // Product of all attenuations along the path
	Bounces     int
	Termination Termination
}

// PathTracingIntegrator implements unidirectional path tracing without light sampling:
// radiance comes only from the background reached at the end of the bounce chain.
type PathTracingIntegrator struct {
	MaxDepth int // Maximum number of scattering events per path
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(maxDepth int) *PathTracingIntegrator {
	return &PathTracingIntegrator{MaxDepth: maxDepth}
}

// RayColor computes the color for a single ray
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, scene *scene.Scene, sampler core.Sampler) core.Vec3 {
	return pt.Trace(ray, scene, sampler).Color
}

// RayColorChecked is RayColor that rejects a degenerate primary ray and reports a
// non-finite result instead of returning it
func (pt *PathTracingIntegrator) RayColorChecked(ray core.Ray, scene *scene.Scene, sampler core.Sampler) (core.Vec3, error) {
	if err := ray.Validate(); err != nil {
		return core.Vec3{}, fmt.Errorf("primary ray %v: %w", ray.Direction, err)
	}
	result := pt.Trace(ray, scene, sampler)
	if !result.Color.IsFinite() {
		return core.Vec3{}, fmt.Errorf("%w: path color %v after %d bounces", core.ErrNonFinite, result.Color, result.Bounces)
	}
	return result.Color, nil
}

// Trace follows ray through the scene. Each step intersects the current ray with the world;
// a miss ends the path with throughput ⊙ background, a hit multiplies the throughput by the
// material's attenuation and continues with the scattered ray.
func (pt *PathTracingIntegrator) Trace(ray core.Ray, scene *scene.Scene, sampler core.Sampler) PathResult {
	throughput := core.NewVec3(1, 1, 1)

	for bounces := 0; bounces < pt.MaxDepth; bounces++ {
		hit, isHit := scene.World.Hit(ray)
		if !isHit {
			return PathResult{
				Color:       throughput.MultiplyVec(scene.Background.Evaluate(ray.Direction)),
				Throughput:  throughput,
				Bounces:     bounces,
				Termination: Escaped,
			}
		}

		scatter := hit.Object.Material.Scatter(ray, hit.Normal, hit.T, sampler)
		throughput = throughput.MultiplyVec(scatter.Attenuation)
		ray = scatter.Scattered
	}

	// Light lost to excessive scattering
	return PathResult{
		Color:       core.Vec3{},
		Throughput:  throughput,
		Bounces:     pt.MaxDepth,
		Termination: DepthExceeded,
	}
}
