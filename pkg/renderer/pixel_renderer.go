package renderer

import (
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// PixelRenderer computes the mean radiance estimate of individual pixels.
// It holds only read-only state and may be shared by all workers.
type PixelRenderer struct {
	scene      *scene.Scene
	camera     *geometry.Camera
	integrator integrator.Integrator
	checked    integrator.CheckedIntegrator // Set when the integrator supports checked tracing
	width      int
	height     int
	samples    int
}

// NewPixelRenderer creates a pixel renderer for the camera's image
func NewPixelRenderer(s *scene.Scene, camera *geometry.Camera, integratorInst integrator.Integrator) *PixelRenderer {
	config := camera.Config()
	checked, _ := integratorInst.(integrator.CheckedIntegrator)
	return &PixelRenderer{
		checked:    checked,
		scene:      s,
		camera:     camera,
		integrator: integratorInst,
		width:      config.Width,
		height:     config.Height,
		samples:    config.SamplesPerPixel,
	}
}

// RenderPixel averages SamplesPerPixel jittered camera rays through the pixel.
// Row 0 is the top of the image, so t is measured downward from 1.
// With a checked integrator the first invalid sample stops the pixel with an error.
func (pr *PixelRenderer) RenderPixel(row, col int, sampler core.Sampler) (PixelStats, error) {
	var ps PixelStats
	for sample := 0; sample < pr.samples; sample++ {
		jitter := sampler.Get2D()
		s := (float64(col) + jitter.X) / float64(pr.width)
		t := 1.0 - (float64(row)+jitter.Y)/float64(pr.height)

		ray := pr.camera.GetRay(s, t)
		if pr.checked == nil {
			ps.AddSample(pr.integrator.RayColor(ray, pr.scene, sampler))
			continue
		}
		color, err := pr.checked.RayColorChecked(ray, pr.scene, sampler)
		if err != nil {
			return ps, fmt.Errorf("pixel at row %d, col %d, sample %d: %w", row, col, sample, err)
		}
		ps.AddSample(color)
	}
	return ps, nil
}
