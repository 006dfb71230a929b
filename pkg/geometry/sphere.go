package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64) *Sphere {
	return &Sphere{
		Center: center,
		Radius: radius,
	}
}

// Hit tests if a ray intersects with the sphere.
// It solves |d|²t² + 2t(d·(o-c)) + |o-c|² - r² = 0 and prefers the nearer root.
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	// Vector from sphere center to ray origin
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + 2bt + c = 0
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return Hit{}, false
	}

	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	// Written so that a NaN root is never inside the range
	root := (-halfB - sqrtD) / a
	if !(root > tMin && root < tMax) {
		// Try the farther intersection point, needed for rays starting inside
		root = (-halfB + sqrtD) / a
		if !(root > tMin && root < tMax) {
			return Hit{}, false
		}
	}

	point := ray.At(root)
	return Hit{
		T:      root,
		Point:  point,
		Normal: point.Subtract(s.Center).Multiply(1.0 / s.Radius),
	}, true
}

// Validate rejects spheres that would produce NaN or Inf during intersection
func (s *Sphere) Validate() error {
	if !s.Center.IsFinite() {
		return fmt.Errorf("%w: sphere center %v is not finite", ErrDegenerateShape, s.Center)
	}
	if math.IsNaN(s.Radius) || math.IsInf(s.Radius, 0) || s.Radius <= 0 {
		return fmt.Errorf("%w: sphere radius %v must be positive and finite", ErrDegenerateShape, s.Radius)
	}
	return nil
}

func (s *Sphere) shape() {}
