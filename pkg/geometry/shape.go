package geometry

import (
	"errors"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ErrDegenerateShape is returned for shapes whose intersection math would yield NaN or Inf
var ErrDegenerateShape = errors.New("degenerate shape")

// Hit contains information about a ray-object intersection
type Hit struct {
	T      float64   // Parameter t along the ray
	Point  core.Vec3 // Point of intersection
	Normal core.Vec3 // Outward unit surface normal at the intersection
}

// Shape interface for objects that can be hit by rays.
// Sphere is the only implementation.
type Shape interface {
	// Hit returns the first intersection with tMin < t < tMax
	Hit(ray core.Ray, tMin, tMax float64) (Hit, bool)
	Validate() error

	shape()
}
