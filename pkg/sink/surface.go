package sink

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
)

// ErrInvalidSize is returned when a surface is resized to a non-positive size
var ErrInvalidSize = errors.New("invalid surface size")

// Surface is a live display buffer holding one 32-bit word per pixel,
// laid out in memory as blue, green, red, unused.
type Surface struct {
	mu     sync.RWMutex // Write lock for Resize and Close; pixel writes share the read lock
	width  int
	height int
	pixels []atomic.Uint32 // Atomic so snapshots can run during a render
	closed bool
}

// Pack converts a color to a surface word
func Pack(c color.RGBA) uint32 {
	return uint32(c.B) | uint32(c.G)<<8 | uint32(c.R)<<16
}

// Unpack converts a surface word back to an opaque color
func Unpack(word uint32) color.RGBA {
	return color.RGBA{R: uint8(word >> 16), G: uint8(word >> 8), B: uint8(word), A: 255}
}

// NewSurface creates a cleared surface
func NewSurface(width, height int) (*Surface, error) {
	s := &Surface{}
	if err := s.Resize(width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// WritePixel implements Sink
func (s *Surface) WritePixel(row, col int, c color.RGBA) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}
	if row < 0 || row >= s.height || col < 0 || col >= s.width {
		return fmt.Errorf("%w: (%d, %d) on %dx%d surface", ErrOutOfBounds, row, col, s.width, s.height)
	}
	s.pixels[row*s.width+col].Store(Pack(c))
	return nil
}

// Resize replaces the buffer with a cleared one of the new size
func (s *Surface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.width, s.height = width, height
	s.pixels = make([]atomic.Uint32, width*height)
	return nil
}

// Size returns the current dimensions
func (s *Surface) Size() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// words returns a copy of the packed buffer in row-major order
func (s *Surface) words() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words := make([]uint32, len(s.pixels))
	for i := range s.pixels {
		words[i] = s.pixels[i].Load()
	}
	return words
}

// Snapshot converts the current buffer to an image
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for i := range s.pixels {
		img.SetRGBA(i%s.width, i/s.width, Unpack(s.pixels[i].Load()))
	}
	return img
}

// Close rejects further writes and resizes
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
