package sink

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
)

func filledImage(t *testing.T) *Image {
	t.Helper()
	im := NewImage(3, 2)
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			c := color.RGBA{R: uint8(row*3 + col), G: uint8(10 * col), B: 255, A: 255}
			if err := im.WritePixel(row, col, c); err != nil {
				t.Fatalf("WritePixel(%d, %d): %v", row, col, err)
			}
		}
	}
	return im
}

func TestImage_WritePPM(t *testing.T) {
	var buf bytes.Buffer
	if err := filledImage(t).WritePPM(&buf); err != nil {
		t.Fatalf("WritePPM error: %v", err)
	}

	expected := "P3\n3 2\n255\n" +
		"0\t0\t255\n1\t10\t255\n2\t20\t255\n" +
		"3\t0\t255\n4\t10\t255\n5\t20\t255\n"
	if buf.String() != expected {
		t.Errorf("Unexpected PPM output:\n%q\nwant\n%q", buf.String(), expected)
	}
}

func TestImage_OutOfBoundsAndClosed(t *testing.T) {
	im := NewImage(2, 2)

	for _, p := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if err := im.WritePixel(p[0], p[1], color.RGBA{}); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("WritePixel(%d, %d): expected ErrOutOfBounds, got %v", p[0], p[1], err)
		}
	}

	im.Close()
	if err := im.WritePixel(0, 0, color.RGBA{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
}

func TestImage_ConcurrentDistinctWrites(t *testing.T) {
	const width, height = 64, 48
	im := NewImage(width, height)

	var wg sync.WaitGroup
	for worker := 0; worker < 4; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := worker; i < width*height; i += 4 {
				im.WritePixel(i/width, i%width, color.RGBA{R: uint8(worker), G: 1, B: 2})
			}
		}(worker)
	}
	wg.Wait()

	for i := 0; i < width*height; i++ {
		if got := im.At(i/width, i%width); got.R != uint8(i%4) || got.A != 255 {
			t.Fatalf("Pixel %d: got %v", i, got)
		}
	}
}

func TestImage_EncodeFormats(t *testing.T) {
	im := filledImage(t)

	var pngBuf bytes.Buffer
	if err := im.Encode(&pngBuf, FormatPNG); err != nil {
		t.Fatalf("PNG encode error: %v", err)
	}
	decoded, err := png.Decode(&pngBuf)
	if err != nil {
		t.Fatalf("PNG decode error: %v", err)
	}
	if r, g, b, _ := decoded.At(2, 1).RGBA(); r>>8 != 5 || g>>8 != 20 || b>>8 != 255 {
		t.Errorf("PNG pixel mismatch: %d %d %d", r>>8, g>>8, b>>8)
	}

	var bmpBuf bytes.Buffer
	if err := im.Encode(&bmpBuf, FormatBMP); err != nil {
		t.Fatalf("BMP encode error: %v", err)
	}
	decoded, err = bmp.Decode(&bmpBuf)
	if err != nil {
		t.Fatalf("BMP decode error: %v", err)
	}
	if decoded.Bounds().Dx() != 3 || decoded.Bounds().Dy() != 2 {
		t.Errorf("BMP size mismatch: %v", decoded.Bounds())
	}

	if err := im.Encode(&bytes.Buffer{}, Format("gif")); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"ppm", FormatPPM, false},
		{".PNG", FormatPNG, false},
		{"bmp", FormatBMP, false},
		{"jpeg", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.input, got, err)
			}
		})
	}
}

func TestImage_SaveFile(t *testing.T) {
	dir := t.TempDir()
	im := filledImage(t)

	path := filepath.Join(dir, "out", "image.ppm")
	if err := im.SaveFile(path); err != nil {
		t.Fatalf("SaveFile error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("P3\n3 2\n255\n")) {
		t.Errorf("Unexpected file header %q", data[:12])
	}

	if err := im.SaveFile(filepath.Join(dir, "image.tiff")); err == nil {
		t.Error("Expected error for unknown extension")
	}
}

func TestFunc(t *testing.T) {
	var got [3]int
	s := Func(func(row, col int, c color.RGBA) error {
		got = [3]int{row, col, int(c.R)}
		return nil
	})
	if err := s.WritePixel(4, 5, color.RGBA{R: 6}); err != nil {
		t.Fatal(err)
	}
	if got != [3]int{4, 5, 6} {
		t.Errorf("Func received %v", got)
	}
	if err := Discard.WritePixel(-1, -1, color.RGBA{}); err != nil {
		t.Errorf("Discard returned %v", err)
	}
}
