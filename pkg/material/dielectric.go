package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Dielectric represents a transparent material like glass that refracts, or reflects when it cannot refract
type Dielectric struct {
	// EtaRatio is incident over transmitted refractive index for a ray entering the surface
	// (1/1.5 for glass in air). Rays leaving the surface use the reciprocal.
	EtaRatio float64
}

// NewDielectric creates a new dielectric material from an eta ratio
func NewDielectric(etaRatio float64) *Dielectric {
	return &Dielectric{EtaRatio: etaRatio}
}

// NewGlass creates a dielectric surrounded by air from the material's refractive index
func NewGlass(refractiveIndex float64) *Dielectric {
	return &Dielectric{EtaRatio: 1.0 / refractiveIndex}
}

// Scatter implements the Material interface for dielectric scattering
func (d *Dielectric) Scatter(rayIn core.Ray, normal core.Vec3, t float64, sampler core.Sampler) ScatterResult {
	point := rayIn.At(t)
	unitDirection := rayIn.Direction.Normalize()

	// Determine if we're entering or exiting the material
	etaRatio := d.EtaRatio
	n := normal
	if unitDirection.Dot(normal) > 0 {
		etaRatio = 1.0 / d.EtaRatio
		n = normal.Negate()
	}

	cosTheta := math.Min(-unitDirection.Dot(n), 1.0)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))

	var direction core.Vec3
	if CannotRefract(etaRatio, sinTheta) {
		direction = Reflect(unitDirection, n)
	} else {
		direction = Refract(unitDirection, n, etaRatio)
	}

	return ScatterResult{
		Scattered:   core.NewRay(point, direction),
		Attenuation: core.NewVec3(1.0, 1.0, 1.0),
	}
}

func (d *Dielectric) material() {}
