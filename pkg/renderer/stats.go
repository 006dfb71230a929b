package renderer

import (
	"image"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Width           int           // Image width in pixels
	Height          int           // Image height in pixels
	TotalPixels     int           // Pixels written to the sink
	TotalSamples    int           // Camera rays traced
	SamplesPerPixel int           // Samples requested per pixel
	Threads         int           // Workers used
	Elapsed         time.Duration // Wall time of the render
}

// SamplesPerSecond reports throughput, zero for an instantaneous render
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.Elapsed.Seconds()
}

// PixelStats accumulates the samples of a single pixel privately before its one write
type PixelStats struct {
	ColorAccum  core.Vec3 // RGB accumulator for final result
	SampleCount int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of img in [0, 1]
func CalculateAverageLuminance(img *image.RGBA) float64 {
	mean := AverageColor(img)
	return 0.2126*mean.X + 0.7152*mean.Y + 0.0722*mean.Z
}

// AverageColor returns the mean of each 8-bit channel of img, scaled to [0, 1]
func AverageColor(img *image.RGBA) core.Vec3 {
	bounds := img.Bounds()
	count := bounds.Dx() * bounds.Dy()
	if count == 0 {
		return core.Vec3{}
	}

	var r, g, b float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			r += float64(c.R)
			g += float64(c.G)
			b += float64(c.B)
		}
	}
	return core.NewVec3(r, g, b).Multiply(1.0 / (255.0 * float64(count)))
}
