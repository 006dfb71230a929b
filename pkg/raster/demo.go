package raster

import (
	"image/color"

	"github.com/df07/go-pathtracer/pkg/core"
)

// DemoHeight is the default height of the demo render; the width follows from a 16:9 aspect
const DemoHeight = 450

// DemoSize returns the demo image size for a given height at a 16:9 aspect
func DemoSize(height int) (width, h int) {
	return int(float64(height) * 16.0 / 9.0), height
}

// DrawDemo draws a single dark blue triangle
func DrawDemo(r *Rasterizer) {
	r.Triangle(
		core.NewVec3(100, 100, 0),
		core.NewVec3(200, 150, 0),
		core.NewVec3(100, 200, 0),
		color.RGBA{R: 0, G: 0, B: 125, A: 255},
	)
}
