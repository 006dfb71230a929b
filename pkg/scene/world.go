package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// Epsilon is the minimum ray parameter for a hit. Anything closer is treated as
// self-intersection of a freshly scattered ray with the surface it left.
const Epsilon = 0.001

// Object pairs a shape with the material it is made of.
// Shapes and materials may be shared between objects and must not change during a render.
type Object struct {
	Name     string
	Shape    geometry.Shape
	Material material.Material
}

// SurfaceHit is the nearest intersection found in a world
type SurfaceHit struct {
	geometry.Hit
	Object *Object
	Index  int // Position of Object in World.Objects
}

// World is an ordered collection of objects, read-only for the lifetime of a render
type World struct {
	Objects []Object
}

// NewWorld creates a world from objects
func NewWorld(objects ...Object) *World {
	return &World{Objects: objects}
}

// Add appends an object to the world
func (w *World) Add(name string, shape geometry.Shape, mat material.Material) {
	w.Objects = append(w.Objects, Object{Name: name, Shape: shape, Material: mat})
}

// Hit returns the globally nearest intersection with t > Epsilon.
// Objects are scanned linearly in order; when two hits share the same t the earlier object wins.
func (w *World) Hit(ray core.Ray) (SurfaceHit, bool) {
	var closest SurfaceHit
	closestSoFar := math.Inf(1)
	hitAnything := false

	for i := range w.Objects {
		obj := &w.Objects[i]
		if hit, isHit := obj.Shape.Hit(ray, Epsilon, closestSoFar); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closest = SurfaceHit{Hit: hit, Object: obj, Index: i}
		}
	}

	return closest, hitAnything
}

// Validate checks every shape and material in the world
func (w *World) Validate() error {
	for i, obj := range w.Objects {
		if obj.Shape == nil {
			return fmt.Errorf("object %d (%s): %w: nil shape", i, obj.Name, geometry.ErrDegenerateShape)
		}
		if err := obj.Shape.Validate(); err != nil {
			return fmt.Errorf("object %d (%s): %w", i, obj.Name, err)
		}
		if err := material.Validate(obj.Material); err != nil {
			return fmt.Errorf("object %d (%s): %w", i, obj.Name, err)
		}
	}
	return nil
}
