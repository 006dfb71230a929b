package sink

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/image/bmp"
)

// Format names an output image encoding
type Format string

const (
	FormatPPM Format = "ppm"
	FormatPNG Format = "png"
	FormatBMP Format = "bmp"
)

// ParseFormat accepts a format name or file extension, with or without the dot
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(name), ".")); f {
	case FormatPPM, FormatPNG, FormatBMP:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", name)
	}
}

// FormatFromPath picks the format from a file name's extension
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatBMP:
		return "image/bmp"
	default:
		return "image/x-portable-pixmap"
	}
}

// Image is an in-memory 8-bit RGB buffer. Distinct pixels occupy distinct bytes,
// so concurrent writes need no locking.
type Image struct {
	img    *image.RGBA
	closed atomic.Bool
}

// NewImage creates a black image
func NewImage(width, height int) *Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return &Image{img: img}
}

// WritePixel implements Sink
func (im *Image) WritePixel(row, col int, c color.RGBA) error {
	if im.closed.Load() {
		return ErrClosed
	}
	if !(image.Point{X: col, Y: row}).In(im.img.Rect) {
		return fmt.Errorf("%w: (%d, %d) in %dx%d image", ErrOutOfBounds, row, col, im.Width(), im.Height())
	}
	c.A = 255
	im.img.SetRGBA(col, row, c)
	return nil
}

// Close rejects further writes
func (im *Image) Close() error {
	im.closed.Store(true)
	return nil
}

// Width returns the image width in pixels
func (im *Image) Width() int { return im.img.Rect.Dx() }

// Height returns the image height in pixels
func (im *Image) Height() int { return im.img.Rect.Dy() }

// At returns the pixel at row, col
func (im *Image) At(row, col int) color.RGBA {
	return im.img.RGBAAt(col, row)
}

// RGBA returns the underlying image; it aliases the sink's buffer
func (im *Image) RGBA() *image.RGBA {
	return im.img
}

// WritePPM writes the image as ASCII PPM: a "P3" header with width, height and
// maximum value 255, then one tab-separated decimal triple per line in row-major order
func (im *Image) WritePPM(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", im.Width(), im.Height()); err != nil {
		return err
	}
	for row := 0; row < im.Height(); row++ {
		for col := 0; col < im.Width(); col++ {
			c := im.img.RGBAAt(col, row)
			if _, err := fmt.Fprintf(bw, "%d\t%d\t%d\n", c.R, c.G, c.B); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WritePNG writes the image as PNG
func (im *Image) WritePNG(w io.Writer) error {
	return png.Encode(w, im.img)
}

// WriteBMP writes the image as an uncompressed BMP
func (im *Image) WriteBMP(w io.Writer) error {
	return bmp.Encode(w, im.img)
}

// Encode writes the image in the given format
func (im *Image) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatPPM:
		return im.WritePPM(w)
	case FormatPNG:
		return im.WritePNG(w)
	case FormatBMP:
		return im.WriteBMP(w)
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
}

// SaveFile writes the image to path, choosing the format from its extension
func (im *Image) SaveFile(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := im.Encode(file, format); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return file.Close()
}
