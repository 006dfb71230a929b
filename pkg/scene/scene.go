package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
)

// ErrInvalidScene is returned when a scene fails validation
var ErrInvalidScene = errors.New("invalid scene")

// DefaultMaxDepth is the bounce budget used when a scene does not set one
const DefaultMaxDepth = 50

// Scene contains all the elements needed for rendering
type Scene struct {
	Name         string
	World        *World
	CameraConfig geometry.CameraConfig
	Background   Background
	MaxDepth     int // Maximum ray bounce depth
}

// Validate checks the world and camera so that a render can fail fast before any worker starts
func (s *Scene) Validate() error {
	if s.World == nil {
		return fmt.Errorf("%w: scene %q has no world", ErrInvalidScene, s.Name)
	}
	if err := s.World.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	if err := s.CameraConfig.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	if s.MaxDepth <= 0 {
		return fmt.Errorf("%w: max depth %d must be positive", ErrInvalidScene, s.MaxDepth)
	}
	if !s.Background.Horizon.IsFinite() || !s.Background.Zenith.IsFinite() {
		return fmt.Errorf("%w: background colors must be finite", ErrInvalidScene)
	}
	return nil
}

// GetPrimitiveCount returns the total number of objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	if s.World == nil {
		return 0
	}
	return len(s.World.Objects)
}

// Background is a vertical gradient between a horizon color and a zenith color
type Background struct {
	Horizon core.Vec3 // Color for rays pointing straight down
	Zenith  core.Vec3 // Color for rays pointing straight up
}

// DefaultBackground returns the white to light blue sky
func DefaultBackground() Background {
	return Background{
		Horizon: core.NewVec3(1.0, 1.0, 1.0),
		Zenith:  core.NewVec3(0.5, 0.7, 1.0),
	}
}

// Evaluate returns the background color seen along direction
func (b Background) Evaluate(direction core.Vec3) core.Vec3 {
	unitDirection := direction.Normalize()

	// Map the y-component from -1,1 to 0,1
	t := 0.5 * (unitDirection.Y + 1.0)

	// Linear interpolation: (1-t)*horizon + t*zenith
	return b.Horizon.Multiply(1.0 - t).Add(b.Zenith.Multiply(t))
}
