package material

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3 // Base color/reflectance
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Scatter implements the Material interface for lambertian scattering.
// The target is a uniform point in the unit ball tangent to the surface at P + normal.
func (l *Lambertian) Scatter(rayIn core.Ray, normal core.Vec3, t float64, sampler core.Sampler) ScatterResult {
	point := rayIn.At(t)
	direction := normal.Add(core.SamplePointInUnitSphere(sampler.Get3D()))

	// The sample can cancel the normal exactly
	if direction.NearZero() {
		direction = normal
	}

	return ScatterResult{
		Scattered:   core.NewRay(point, direction),
		Attenuation: l.Albedo,
	}
}

func (l *Lambertian) material() {}
