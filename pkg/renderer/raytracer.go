package renderer

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/scene"
	"github.com/df07/go-pathtracer/pkg/sink"
)

// ErrInvalidConfig is returned by NewRaytracer for unusable render settings
var ErrInvalidConfig = errors.New("invalid render config")

// Config contains render settings that are not part of the scene
type Config struct {
	Threads int     // Number of workers (0 = runtime.NumCPU())
	Seed    uint64  // Base seed; each pixel draws from its own stream keyed on (Seed, pixel index)
	Gamma   float64 // Gamma applied before quantization (0 or 1 = linear)

	// Integrator defaults to path tracing with the scene's MaxDepth
	Integrator integrator.Integrator

	// SamplerFactory, when set, supplies the sampler for each pixel instead of the seeded
	// random streams. The returned sampler is used by one worker for one pixel only.
	SamplerFactory func(pixelIndex int) core.Sampler

	Progress *Progress   // Optional completed-pixel counter
	Logger   core.Logger // Defaults to discarding output
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Threads: 0,  // Auto-detect CPU count
		Seed:    42, // Deterministic output
		Gamma:   1.0,
		Logger:  NewDefaultLogger(),
	}
}

// SinkError reports a failed pixel write. Render returns it after all workers have stopped.
type SinkError struct {
	Row, Col int
	Err      error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink write at row %d, col %d: %v", e.Row, e.Col, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Raytracer renders one scene. The scene and camera are read-only once it is built,
// so concurrent Render calls are safe as long as they use different sinks.
type Raytracer struct {
	scene  *scene.Scene
	camera *geometry.Camera
	pixels *PixelRenderer
	config Config
	logger core.Logger
}

// NewRaytracer validates the scene and config and builds the camera
func NewRaytracer(s *scene.Scene, config Config) (*Raytracer, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil scene", scene.ErrInvalidScene)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if config.Threads < 0 {
		return nil, fmt.Errorf("%w: thread count %d is negative", ErrInvalidConfig, config.Threads)
	}
	if math.IsNaN(config.Gamma) || math.IsInf(config.Gamma, 0) || config.Gamma < 0 {
		return nil, fmt.Errorf("%w: gamma %v", ErrInvalidConfig, config.Gamma)
	}

	camera, err := geometry.NewCamera(s.CameraConfig)
	if err != nil {
		return nil, err
	}

	integratorInst := config.Integrator
	if integratorInst == nil {
		integratorInst = integrator.NewPathTracingIntegrator(s.MaxDepth)
	}

	logger := config.Logger
	if logger == nil {
		logger = core.NopLogger{}
	}

	return &Raytracer{
		scene:  s,
		camera: camera,
		pixels: NewPixelRenderer(s, camera, integratorInst),
		config: config,
		logger: logger,
	}, nil
}

// Width returns the image width in pixels
func (rt *Raytracer) Width() int { return rt.camera.Config().Width }

// Height returns the image height in pixels
func (rt *Raytracer) Height() int { return rt.camera.Config().Height }

// Camera returns the camera built from the scene
func (rt *Raytracer) Camera() *geometry.Camera { return rt.camera }

// Render computes every pixel and writes each exactly once to out.
// Work is split across the worker pool; ctx is checked between pixels.
// The first failure stops the remaining workers, and Render returns only after all have exited.
func (rt *Raytracer) Render(ctx context.Context, out sink.Sink) (RenderStats, error) {
	width, height := rt.Width(), rt.Height()
	total := width * height
	pool := NewWorkerPool(rt.config.Threads)
	numWorkers := pool.GetNumWorkers()

	progress := rt.config.Progress
	if progress == nil {
		progress = &Progress{}
	}
	progress.reset(total)

	rt.logger.Printf("Rendering %q: %dx%d, %d samples/pixel, max depth %d, %d workers\n",
		rt.scene.Name, width, height, rt.camera.Config().SamplesPerPixel, rt.scene.MaxDepth, numWorkers)
	start := time.Now()

	// Per-worker counters; each slot is only written by its own worker
	pixelCounts := make([]int, numWorkers)
	sampleCounts := make([]int, numWorkers)

	err := pool.Run(ctx, total, func(workerID int) WorkFunc {
		samplerFor := rt.workerSampler()
		return func(index int) error {
			row, col := index/width, index%width

			ps, err := rt.pixels.RenderPixel(row, col, samplerFor(index))
			sampleCounts[workerID] += ps.SampleCount
			if err != nil {
				return err
			}

			colorVec := ps.GetColor()
			if !colorVec.IsFinite() {
				return fmt.Errorf("pixel at row %d, col %d: %w: %v", row, col, core.ErrNonFinite, colorVec)
			}
			if err := out.WritePixel(row, col, ToColor(colorVec, rt.config.Gamma)); err != nil {
				return &SinkError{Row: row, Col: col, Err: err}
			}

			pixelCounts[workerID]++
			progress.add(1)
			return nil
		}
	})

	stats := RenderStats{
		Width:           width,
		Height:          height,
		SamplesPerPixel: rt.camera.Config().SamplesPerPixel,
		Threads:         numWorkers,
		Elapsed:         time.Since(start),
	}
	for i := range pixelCounts {
		stats.TotalPixels += pixelCounts[i]
		stats.TotalSamples += sampleCounts[i]
	}

	if err != nil {
		rt.logger.Printf("Render stopped after %d/%d pixels: %v\n", stats.TotalPixels, total, err)
		return stats, err
	}

	rt.logger.Printf("Render completed in %v (%d samples, %.0f samples/s)\n",
		stats.Elapsed.Round(time.Millisecond), stats.TotalSamples, stats.SamplesPerSecond())
	return stats, nil
}

// RenderImage renders into a new in-memory image
func (rt *Raytracer) RenderImage(ctx context.Context) (*sink.Image, RenderStats, error) {
	img := sink.NewImage(rt.Width(), rt.Height())
	stats, err := rt.Render(ctx, img)
	if err != nil {
		return nil, stats, err
	}
	return img, stats, nil
}

// workerSampler returns the per-pixel sampler source for one worker. The default reuses a
// single generator, reseeded for each pixel so the stream depends only on the pixel index.
func (rt *Raytracer) workerSampler() func(index int) core.Sampler {
	if rt.config.SamplerFactory != nil {
		return rt.config.SamplerFactory
	}
	seed := rt.config.Seed
	random := core.NewRandomSampler(seed, 0)
	return func(index int) core.Sampler {
		random.Reseed(seed, uint64(index))
		return random
	}
}

// ToColor converts a linear color to 8 bits: optional gamma, clamp to [0, 1], scale by 255
func ToColor(colorVec core.Vec3, gamma float64) color.RGBA {
	if gamma > 0 {
		colorVec = colorVec.GammaCorrect(gamma)
	}

	// Clamp to valid color range
	colorVec = colorVec.Clamp(0.0, 1.0)

	return color.RGBA{
		R: uint8(255 * colorVec.X),
		G: uint8(255 * colorVec.Y),
		B: uint8(255 * colorVec.Z),
		A: 255,
	}
}
