package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Overrides are per-render adjustments from the command line or a web request.
// Zero values leave the scene unchanged.
type Overrides struct {
	Width           int
	Height          int
	SamplesPerPixel int
	MaxDepth        int
	Horizon         *core.Vec3
	Zenith          *core.Vec3
}

// Apply changes the scene in place and revalidates it. When only one image
// dimension is given the other keeps the scene's aspect ratio.
func (s *Scene) Apply(o Overrides) error {
	if o.Width < 0 || o.Height < 0 || o.SamplesPerPixel < 0 || o.MaxDepth < 0 {
		return fmt.Errorf("%w: overrides must not be negative: %+v", ErrInvalidScene, o)
	}

	cfg := &s.CameraConfig
	if o.Width != 0 || o.Height != 0 {
		aspect := float64(cfg.Width) / float64(cfg.Height)
		switch {
		case o.Width != 0 && o.Height != 0:
			cfg.Width, cfg.Height = o.Width, o.Height
		case o.Width != 0:
			cfg.Width = o.Width
			cfg.Height = max(1, int(math.Round(float64(o.Width)/aspect)))
		default:
			cfg.Height = o.Height
			cfg.Width = max(1, int(math.Round(float64(o.Height)*aspect)))
		}
		// The image size now defines the aspect
		cfg.AspectRatio = 0
	}
	if o.SamplesPerPixel != 0 {
		cfg.SamplesPerPixel = o.SamplesPerPixel
	}
	if o.MaxDepth != 0 {
		s.MaxDepth = o.MaxDepth
	}
	if o.Horizon != nil {
		s.Background.Horizon = *o.Horizon
	}
	if o.Zenith != nil {
		s.Background.Zenith = *o.Zenith
	}

	return s.Validate()
}
