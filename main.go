package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/raster"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
	"github.com/df07/go-pathtracer/pkg/sink"
)

// Render modes
const (
	modeRaytrace = "raytrace"
	modeRaster   = "raster"
)

// options holds the parsed command line
type options struct {
	mode       string
	sceneName  string
	width      int
	height     int
	samples    int
	depth      int
	threads    int
	seed       uint64
	gamma      float64
	out        string
	format     string
	skyHorizon string
	skyZenith  string
	list       bool
	help       bool
}

// parseFlags parses args (without the program name)
func parseFlags(args []string, output io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.mode, "mode", modeRaytrace, "Render mode: 'raytrace' or 'raster'")
	fs.StringVar(&opts.sceneName, "scene", "default", "Scene name, file:<id> or path to a .json scene file")
	fs.IntVar(&opts.width, "width", 0, "Image width (0 = scene default)")
	fs.IntVar(&opts.height, "height", 0, "Image height (0 = scene default)")
	fs.IntVar(&opts.samples, "samples", 0, "Samples per pixel (0 = scene default)")
	fs.IntVar(&opts.depth, "depth", 0, "Maximum bounce depth (0 = scene default)")
	fs.IntVar(&opts.threads, "threads", 0, "Worker count (0 = number of CPUs)")
	fs.Uint64Var(&opts.seed, "seed", 42, "Sampling seed")
	fs.Float64Var(&opts.gamma, "gamma", 1.0, "Output gamma (0 or 1 = linear)")
	fs.StringVar(&opts.out, "out", "", "Output file (default output/<scene>/render_<timestamp>.<format>)")
	fs.StringVar(&opts.format, "format", "", "Output format: ppm, png or bmp (default from -out, else png)")
	fs.StringVar(&opts.skyHorizon, "sky-horizon", "", "Background color looking down, as a color name")
	fs.StringVar(&opts.skyZenith, "sky-zenith", "", "Background color looking up, as a color name")
	fs.BoolVar(&opts.list, "list", false, "List available scenes and exit")
	fs.BoolVar(&opts.help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	if fs.NArg() > 0 {
		return nil, fs, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.mode != modeRaytrace && opts.mode != modeRaster {
		return nil, fs, fmt.Errorf("unknown mode %q", opts.mode)
	}
	return opts, fs, nil
}

// outputFormat resolves -format against the -out extension
func (o *options) outputFormat() (sink.Format, error) {
	if o.out != "" {
		format, err := sink.FormatFromPath(o.out)
		if err != nil {
			return "", err
		}
		if o.format != "" {
			requested, err := sink.ParseFormat(o.format)
			if err != nil {
				return "", err
			}
			if requested != format {
				return "", fmt.Errorf("-format %s does not match output file %s", o.format, o.out)
			}
		}
		return format, nil
	}
	if o.format != "" {
		return sink.ParseFormat(o.format)
	}
	if o.mode == modeRaster {
		return sink.FormatPPM, nil
	}
	return sink.FormatPNG, nil
}

// outputPath returns -out, or a timestamped file under the scene's output directory
func (o *options) outputPath(format sink.Format, now time.Time) string {
	if o.out != "" {
		return o.out
	}
	name := o.sceneName
	if o.mode == modeRaster {
		name = "rasterized"
	}
	timestamp := now.Format("20060102_150405")
	return filepath.Join(createOutputDir(name), fmt.Sprintf("render_%s.%s", timestamp, format))
}

// createOutputDir returns the output directory for a scene name or scene file path
func createOutputDir(sceneName string) string {
	base := strings.TrimPrefix(sceneName, "file:")
	base = strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "scene"
	}
	return filepath.Join("output", base)
}

// overrides converts the scene flags, resolving sky color names
func (o *options) overrides() (scene.Overrides, error) {
	result := scene.Overrides{
		Width:           o.width,
		Height:          o.height,
		SamplesPerPixel: o.samples,
		MaxDepth:        o.depth,
	}
	if o.skyHorizon != "" {
		c, err := scene.ParseColor(o.skyHorizon)
		if err != nil {
			return result, fmt.Errorf("-sky-horizon: %w", err)
		}
		result.Horizon = &c
	}
	if o.skyZenith != "" {
		c, err := scene.ParseColor(o.skyZenith)
		if err != nil {
			return result, fmt.Errorf("-sky-zenith: %w", err)
		}
		result.Zenith = &c
	}
	return result, nil
}

// createScene loads a scene and applies the command line overrides
func createScene(o *options) (*scene.Scene, error) {
	s, err := scene.Create(o.sceneName)
	if err != nil {
		return nil, err
	}
	overrides, err := o.overrides()
	if err != nil {
		return nil, err
	}
	if err := s.Apply(overrides); err != nil {
		return nil, err
	}
	return s, nil
}

// renderScene path traces the selected scene into an image
func renderScene(ctx context.Context, o *options, logger core.Logger) (*sink.Image, error) {
	s, err := createScene(o)
	if err != nil {
		return nil, err
	}

	config := renderer.DefaultConfig()
	config.Threads = o.threads
	config.Seed = o.seed
	config.Gamma = o.gamma
	config.Logger = logger
	config.Progress = &renderer.Progress{
		OnUpdate: renderer.NewProgressReporter(logger, 10).Report,
	}

	raytracer, err := renderer.NewRaytracer(s, config)
	if err != nil {
		return nil, err
	}

	img, stats, err := raytracer.RenderImage(ctx)
	if err != nil {
		return nil, err
	}
	logger.Printf("Average luminance: %.4f\n", renderer.CalculateAverageLuminance(img.RGBA()))
	logger.Printf("Samples per pixel: %d (%d total)\n", stats.SamplesPerPixel, stats.TotalSamples)
	return img, nil
}

// rasterizeDemo draws the demo triangle
func rasterizeDemo(o *options, logger core.Logger) (*sink.Image, error) {
	width, height := raster.DemoSize(raster.DemoHeight)
	if o.height > 0 {
		width, height = raster.DemoSize(o.height)
	}
	if o.width > 0 {
		width = o.width
	}

	r, err := raster.NewRasterizer(width, height)
	if err != nil {
		return nil, err
	}
	raster.DrawDemo(r)

	img := sink.NewImage(width, height)
	if err := r.Resolve(img); err != nil {
		return nil, err
	}
	logger.Printf("Rasterized %d triangle(s), %d pixels covered\n", r.Triangles(), r.Covered())
	return img, nil
}

// run executes one invocation and returns the written file
func run(ctx context.Context, o *options, logger core.Logger, now time.Time) (string, error) {
	format, err := o.outputFormat()
	if err != nil {
		return "", err
	}

	var img *sink.Image
	if o.mode == modeRaster {
		img, err = rasterizeDemo(o, logger)
	} else {
		img, err = renderScene(ctx, o, logger)
	}
	if err != nil {
		return "", err
	}

	path := o.outputPath(format, now)
	if err := img.SaveFile(path); err != nil {
		return "", err
	}
	return path, nil
}

// printScenes writes the scene list, grouped
func printScenes(w io.Writer) error {
	response, err := scene.List()
	if err != nil {
		return err
	}
	for _, group := range response.Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			if info.Description != "" {
				fmt.Fprintf(w, "  %-20s %s\n", info.ID, info.Description)
			} else {
				fmt.Fprintf(w, "  %s\n", info.ID)
			}
		}
	}
	return nil
}

func main() {
	opts, fs, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Show help if requested
	if opts.help {
		fmt.Println("Path Tracer")
		fmt.Println("Usage: pathtracer [options]")
		fmt.Println()
		fmt.Println("Options:")
		fs.SetOutput(os.Stdout)
		fs.PrintDefaults()
		fmt.Println()
		if err := printScenes(os.Stdout); err != nil {
			fmt.Printf("Error listing scenes: %v\n", err)
		}
		fmt.Println()
		fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.<format> unless -out is set")
		return
	}
	if opts.list {
		if err := printScenes(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing scenes: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := renderer.NewDefaultLogger()
	path, err := run(ctx, opts, logger, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", path)
}
