package main

import (
	"context"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/scene"
	"github.com/df07/go-pathtracer/pkg/sink"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectError bool
		check       func(t *testing.T, o *options)
	}{
		{"defaults", nil, false, func(t *testing.T, o *options) {
			if o.mode != modeRaytrace || o.sceneName != "default" || o.seed != 42 || o.gamma != 1 {
				t.Errorf("Unexpected defaults %+v", o)
			}
		}},
		{"all render flags", []string{"-scene", "glass", "-width", "64", "-height", "36", "-samples", "2",
			"-depth", "3", "-threads", "4", "-seed", "7", "-gamma", "2.2", "-out", "x.ppm"}, false,
			func(t *testing.T, o *options) {
				if o.sceneName != "glass" || o.width != 64 || o.height != 36 || o.samples != 2 ||
					o.depth != 3 || o.threads != 4 || o.seed != 7 || o.gamma != 2.2 || o.out != "x.ppm" {
					t.Errorf("Flags not applied: %+v", o)
				}
			}},
		{"raster mode", []string{"-mode", "raster"}, false, func(t *testing.T, o *options) {
			if o.mode != modeRaster {
				t.Errorf("Expected raster mode, got %s", o.mode)
			}
		}},
		{"unknown mode", []string{"-mode", "scanline"}, true, nil},
		{"unknown flag", []string{"-bogus"}, true, nil},
		{"bad number", []string{"-width", "wide"}, true, nil},
		{"stray argument", []string{"default"}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _, err := parseFlags(tt.args, io.Discard)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %v", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.check(t, o)
		})
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		name        string
		opts        options
		expected    sink.Format
		expectError bool
	}{
		{"raytrace default", options{mode: modeRaytrace}, sink.FormatPNG, false},
		{"raster default", options{mode: modeRaster}, sink.FormatPPM, false},
		{"from flag", options{mode: modeRaytrace, format: "BMP"}, sink.FormatBMP, false},
		{"from path", options{mode: modeRaytrace, out: "a/b.ppm"}, sink.FormatPPM, false},
		{"flag agrees with path", options{mode: modeRaytrace, out: "a.png", format: "png"}, sink.FormatPNG, false},
		{"dotted flag agrees with path", options{mode: modeRaytrace, out: "a.png", format: ".PNG"}, sink.FormatPNG, false},
		{"flag disagrees with path", options{mode: modeRaytrace, out: "a.png", format: "ppm"}, "", true},
		{"unknown extension", options{mode: modeRaytrace, out: "a.gif"}, "", true},
		{"unknown format", options{mode: modeRaytrace, format: "tiff"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := tt.opts.outputFormat()
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error, got %s", format)
				}
				return
			}
			if err != nil || format != tt.expected {
				t.Errorf("Expected %s, got %s (%v)", tt.expected, format, err)
			}
		})
	}
}

func TestCreateOutputDir(t *testing.T) {
	tests := []struct {
		sceneName string
		expected  string
	}{
		{"default", filepath.Join("output", "default")},
		{"random-spheres", filepath.Join("output", "random-spheres")},
		{"file:three-spheres", filepath.Join("output", "three-spheres")},
		{"scenes/subdir/my-scene.json", filepath.Join("output", "my-scene")},
		{"", filepath.Join("output", "scene")},
	}

	for _, tt := range tests {
		t.Run(tt.sceneName, func(t *testing.T) {
			if got := createOutputDir(tt.sceneName); got != tt.expected {
				t.Errorf("createOutputDir(%q) = %q, want %q", tt.sceneName, got, tt.expected)
			}
		})
	}
}

func TestOutputPath_Timestamped(t *testing.T) {
	o := &options{mode: modeRaytrace, sceneName: "glass"}
	now := time.Date(2024, 3, 5, 14, 30, 15, 0, time.UTC)

	got := o.outputPath(sink.FormatPNG, now)
	want := filepath.Join("output", "glass", "render_20240305_143015.png")
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	o.out = "explicit.ppm"
	if got := o.outputPath(sink.FormatPPM, now); got != "explicit.ppm" {
		t.Errorf("Expected -out to win, got %s", got)
	}
}

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		opts        options
		expectError bool
	}{
		{"default scene", options{sceneName: "default"}, false},
		{"random spheres", options{sceneName: "random-spheres"}, false},
		{"single sphere", options{sceneName: "single-sphere"}, false},
		{"glass", options{sceneName: "glass"}, false},
		{"sized", options{sceneName: "default", width: 32, samples: 1}, false},
		{"named sky", options{sceneName: "default", skyHorizon: "black", skyZenith: "navy"}, false},
		{"unknown scene", options{sceneName: "nonexistent"}, true},
		{"empty scene name", options{sceneName: ""}, true},
		{"missing scene file", options{sceneName: "scenes/nonexistent.json"}, true},
		{"unknown sky color", options{sceneName: "default", skyZenith: "octarine"}, true},
		{"negative samples", options{sceneName: "default", samples: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := createScene(&tt.opts)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %+v", tt.opts)
				}
				if s != nil {
					t.Errorf("Expected nil scene, got %q", s.Name)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s.CameraConfig.Width <= 0 || s.CameraConfig.Height <= 0 {
				t.Errorf("Scene size should be positive, got %dx%d", s.CameraConfig.Width, s.CameraConfig.Height)
			}
		})
	}
}

func TestCreateScene_SkyColors(t *testing.T) {
	s, err := createScene(&options{sceneName: "default", skyHorizon: "black", skyZenith: "white"})
	if err != nil {
		t.Fatal(err)
	}
	if s.Background.Horizon != core.NewVec3(0, 0, 0) || s.Background.Zenith != core.NewVec3(1, 1, 1) {
		t.Errorf("Unexpected background %+v", s.Background)
	}
}

func TestRun_Raytrace(t *testing.T) {
	out := filepath.Join(t.TempDir(), "render.png")
	o := &options{mode: modeRaytrace, sceneName: "single-sphere", width: 20, height: 10, samples: 1,
		depth: 4, seed: 1, gamma: 1, out: out}

	path, err := run(context.Background(), o, core.NopLogger{}, time.Now())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if path != out {
		t.Errorf("Expected %s, got %s", out, path)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("PNG decode error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("Expected 20x10 image, got %v", b)
	}
}

func TestRun_Raster(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rasterized.ppm")
	o := &options{mode: modeRaster, out: out}

	if _, err := run(context.Background(), o, core.NopLogger{}, time.Now()); err != nil {
		t.Fatalf("run error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "P3\n800 450\n255\n") {
		t.Errorf("Unexpected header %q", data[:20])
	}
	if !strings.Contains(string(data), "0\t0\t125\n") {
		t.Error("Expected demo triangle pixels")
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := &options{mode: modeRaytrace, sceneName: "single-sphere", gamma: 1,
		out: filepath.Join(t.TempDir(), "never.png")}
	if _, err := run(ctx, o, core.NopLogger{}, time.Now()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestPrintScenes(t *testing.T) {
	var buf strings.Builder
	if err := printScenes(&buf); err != nil {
		t.Fatal(err)
	}
	for _, name := range scene.BuiltinNames() {
		if !strings.Contains(buf.String(), name) {
			t.Errorf("Expected %s in scene list", name)
		}
	}
}
