// Package sink holds the destinations a render writes pixels to.
package sink

import (
	"errors"
	"image/color"
)

var (
	// ErrOutOfBounds is returned for a pixel outside the sink
	ErrOutOfBounds = errors.New("pixel out of bounds")
	// ErrClosed is returned for writes after Close
	ErrClosed = errors.New("sink closed")
)

// Sink receives the final color of each pixel. Row 0 is the top of the image.
// WritePixel must be safe to call concurrently for distinct (row, col) pairs.
type Sink interface {
	WritePixel(row, col int, c color.RGBA) error
}

// Func adapts a function to the Sink interface
type Func func(row, col int, c color.RGBA) error

// WritePixel calls f
func (f Func) WritePixel(row, col int, c color.RGBA) error {
	return f(row, col, c)
}

// Discard accepts and drops every pixel
var Discard Sink = Func(func(int, int, color.RGBA) error { return nil })
