package material

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// Metal represents a metallic material with specular reflection
type Metal struct {
	Albedo   core.Vec3 // Metal color
	Fuzzness float64   // 0.0 = perfect mirror, 1.0 = very fuzzy
}

// NewMetal creates a new metal material
func NewMetal(albedo core.Vec3, fuzzness float64) *Metal {
	// Clamp fuzzness to valid range
	if fuzzness > 1.0 {
		fuzzness = 1.0
	}
	if fuzzness < 0.0 {
		fuzzness = 0.0
	}
	return &Metal{Albedo: albedo, Fuzzness: fuzzness}
}

// Scatter implements the Material interface for metal scattering
func (m *Metal) Scatter(rayIn core.Ray, normal core.Vec3, t float64, sampler core.Sampler) ScatterResult {
	point := rayIn.At(t)
	reflected := Reflect(rayIn.Direction.Normalize(), normal)

	// Add fuzziness by perturbing the reflection direction
	direction := reflected
	if m.Fuzzness > 0 {
		perturbation := core.SamplePointInUnitSphere(sampler.Get3D()).Multiply(m.Fuzzness)
		direction = reflected.Add(perturbation)
		if direction.NearZero() {
			direction = reflected
		}
	}

	return ScatterResult{
		Scattered:   core.NewRay(point, direction),
		Attenuation: m.Albedo,
	}
}

func (m *Metal) material() {}
