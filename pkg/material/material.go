package material

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ErrInvalidMaterial is returned by Validate for materials that would produce non-physical or NaN results
var ErrInvalidMaterial = errors.New("invalid material")

// Material scatters rays off a surface.
// The set of implementations is closed: Lambertian, Metal and Dielectric.
type Material interface {
	// Scatter maps an incoming ray, the outward surface normal and the hit distance
	// to an attenuation color and an outgoing ray starting at the hit point.
	Scatter(rayIn core.Ray, normal core.Vec3, t float64, sampler core.Sampler) ScatterResult

	material()
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray  // The scattered ray
	Attenuation core.Vec3 // Color attenuation
}

// Validate checks a material's parameters
func Validate(m Material) error {
	switch m := m.(type) {
	case *Lambertian:
		return validateAlbedo("lambertian", m.Albedo)
	case *Metal:
		if err := validateAlbedo("metal", m.Albedo); err != nil {
			return err
		}
		if math.IsNaN(m.Fuzzness) || m.Fuzzness < 0 || m.Fuzzness > 1 {
			return fmt.Errorf("%w: metal fuzzness %v outside [0, 1]", ErrInvalidMaterial, m.Fuzzness)
		}
		return nil
	case *Dielectric:
		if math.IsNaN(m.EtaRatio) || math.IsInf(m.EtaRatio, 0) || m.EtaRatio <= 0 {
			return fmt.Errorf("%w: dielectric eta ratio %v must be positive and finite", ErrInvalidMaterial, m.EtaRatio)
		}
		return nil
	case nil:
		return fmt.Errorf("%w: nil material", ErrInvalidMaterial)
	default:
		return fmt.Errorf("%w: unsupported material %T", ErrInvalidMaterial, m)
	}
}

// Describe returns a short human-readable description, used in logs
func Describe(m Material) string {
	switch m := m.(type) {
	case *Lambertian:
		return fmt.Sprintf("lambertian(albedo=%.2f,%.2f,%.2f)", m.Albedo.X, m.Albedo.Y, m.Albedo.Z)
	case *Metal:
		return fmt.Sprintf("metal(albedo=%.2f,%.2f,%.2f fuzz=%.2f)", m.Albedo.X, m.Albedo.Y, m.Albedo.Z, m.Fuzzness)
	case *Dielectric:
		return fmt.Sprintf("dielectric(eta=%.3f)", m.EtaRatio)
	default:
		return fmt.Sprintf("%T", m)
	}
}

func validateAlbedo(kind string, albedo core.Vec3) error {
	if !albedo.IsFinite() {
		return fmt.Errorf("%w: %s albedo %v is not finite", ErrInvalidMaterial, kind, albedo)
	}
	if albedo.Clamp(0, 1) != albedo {
		return fmt.Errorf("%w: %s albedo %v outside [0, 1]", ErrInvalidMaterial, kind, albedo)
	}
	return nil
}

// Reflect calculates the reflection of a vector v off a surface with normal n
func Reflect(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// Refract calculates the refraction of the unit vector uv using Snell's law.
// n must face against uv and etaRatio is incident over transmitted index.
func Refract(uv, n core.Vec3, etaRatio float64) core.Vec3 {
	cosTheta := math.Min(-uv.Dot(n), 1.0)
	rOutPerp := uv.Add(n.Multiply(cosTheta)).Multiply(etaRatio)
	rOutParallel := n.Multiply(-math.Sqrt(math.Abs(1.0 - rOutPerp.LengthSquared())))
	return rOutPerp.Add(rOutParallel)
}

// CannotRefract reports total internal reflection. Equality still refracts.
func CannotRefract(etaRatio, sinTheta float64) bool {
	return etaRatio*sinTheta > 1.0
}
