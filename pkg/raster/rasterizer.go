// Package raster scan-converts flat-shaded triangles into pixel fragments.
//
// Coordinates are in screen space: x grows to the right, y grows downward and
// z is a depth value where the greatest z is drawn on top.
package raster

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/sink"
)

// ErrInvalidSize is returned for a rasterizer with a non-positive size
var ErrInvalidSize = errors.New("invalid raster size")

// Fragment is the surviving color and depth at a pixel
type Fragment struct {
	Color color.RGBA
	Depth float64
}

// Rasterizer keeps, for each covered pixel, the fragment with the greatest depth.
// Fragments outside the target are clipped. It is not safe for concurrent use.
type Rasterizer struct {
	width, height int
	fragments     []Fragment
	covered       []bool
	triangles     int
}

// NewRasterizer creates an empty rasterizer for a width x height target
func NewRasterizer(width, height int) (*Rasterizer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Rasterizer{
		width:     width,
		height:    height,
		fragments: make([]Fragment, width*height),
		covered:   make([]bool, width*height),
	}, nil
}

// Triangle scan-converts a triangle. A pixel (x, y) is covered when its integer
// coordinates fall inside the triangle's half-open span on that scanline, so
// triangles sharing an edge never both claim the pixels along it.
func (r *Rasterizer) Triangle(p1, p2, p3 core.Vec3, c color.RGBA) {
	r.triangles++

	// Sort vertices top to bottom
	pts := []core.Vec3{p1, p2, p3}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Y < pts[j].Y })
	top, middle, bottom := pts[0], pts[1], pts[2]

	if bottom.Y == top.Y {
		return // Zero height
	}

	yStart := max(0, int(math.Ceil(top.Y)))
	yEnd := min(r.height, int(math.Ceil(bottom.Y)))
	for y := yStart; y < yEnd; y++ {
		yf := float64(y)

		// Long edge runs top to bottom; the short edge switches at the middle vertex
		long := edgeAt(top, bottom, yf)
		var short core.Vec3
		if yf < middle.Y {
			short = edgeAt(top, middle, yf)
		} else {
			short = edgeAt(middle, bottom, yf)
		}

		r.span(y, long, short, c)
	}
}

// edgeAt returns the point on edge a-b at height y, with x and z interpolated
func edgeAt(a, b core.Vec3, y float64) core.Vec3 {
	if b.Y == a.Y {
		return a
	}
	t := (y - a.Y) / (b.Y - a.Y)
	return core.NewVec3(lerp(a.X, b.X, t), y, lerp(a.Z, b.Z, t))
}

func lerp(start, end, t float64) float64 {
	return end*t + (1-t)*start
}

// span fills scanline y between the x positions of a and b, interpolating depth
func (r *Rasterizer) span(y int, a, b core.Vec3, c color.RGBA) {
	if a.X > b.X {
		a, b = b, a
	}

	xStart := max(0, int(math.Ceil(a.X)))
	xEnd := min(r.width, int(math.Ceil(b.X)))
	for x := xStart; x < xEnd; x++ {
		depth := a.Z
		if b.X != a.X {
			depth = lerp(a.Z, b.Z, (float64(x)-a.X)/(b.X-a.X))
		}
		r.plot(x, y, Fragment{Color: c, Depth: depth})
	}
}

// plot keeps f if it is the first or deepest fragment at (x, y); ties keep the earlier one
func (r *Rasterizer) plot(x, y int, f Fragment) {
	i := y*r.width + x
	if !r.covered[i] || f.Depth > r.fragments[i].Depth {
		r.fragments[i] = f
		r.covered[i] = true
	}
}

// At returns the winning fragment at row, col
func (r *Rasterizer) At(row, col int) (Fragment, bool) {
	if row < 0 || row >= r.height || col < 0 || col >= r.width {
		return Fragment{}, false
	}
	i := row*r.width + col
	return r.fragments[i], r.covered[i]
}

// Covered returns the number of pixels with at least one fragment
func (r *Rasterizer) Covered() int {
	n := 0
	for _, c := range r.covered {
		if c {
			n++
		}
	}
	return n
}

// Triangles returns how many triangles have been drawn
func (r *Rasterizer) Triangles() int {
	return r.triangles
}

// Resolve writes one pixel per covered location, in row-major order
func (r *Rasterizer) Resolve(out sink.Sink) error {
	for i, covered := range r.covered {
		if !covered {
			continue
		}
		row, col := i/r.width, i%r.width
		if err := out.WritePixel(row, col, r.fragments[i].Color); err != nil {
			return fmt.Errorf("resolve pixel at row %d, col %d: %w", row, col, err)
		}
	}
	return nil
}

// Clear removes all fragments
func (r *Rasterizer) Clear() {
	clear(r.fragments)
	clear(r.covered)
	r.triangles = 0
}
