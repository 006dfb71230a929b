package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// Material kinds understood by scene files
const (
	MaterialLambertian = "lambertian"
	MaterialMetal      = "metal"
	MaterialDielectric = "dielectric"
	MaterialGlass      = "glass" // dielectric given as a refractive index in air
)

// File is the JSON representation of a scene.
// Objects refer to materials by ID so one material can be shared by many spheres.
type File struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Camera      CameraFile      `json:"camera"`
	Background  *BackgroundFile `json:"background,omitempty"`
	MaxDepth    int             `json:"maxDepth,omitempty"`
	Materials   []MaterialFile  `json:"materials"`
	Objects     []ObjectFile    `json:"objects"`
}

// CameraFile holds camera parameters; absent fields take the values of DefaultFileCamera
type CameraFile struct {
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	Origin          *Vector `json:"origin,omitempty"`
	LookAt          *Vector `json:"lookAt,omitempty"`
	Up              *Vector `json:"up,omitempty"`
	VFov            float64 `json:"vfov,omitempty"`
	AspectRatio     float64 `json:"aspectRatio,omitempty"`
	SamplesPerPixel int     `json:"samplesPerPixel,omitempty"`
}

// BackgroundFile holds the sky gradient colors
type BackgroundFile struct {
	Horizon Color `json:"horizon"`
	Zenith  Color `json:"zenith"`
}

// MaterialFile describes one material
type MaterialFile struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Albedo          *Color  `json:"albedo,omitempty"`          // lambertian, metal
	Fuzz            float64 `json:"fuzz,omitempty"`            // metal
	EtaRatio        float64 `json:"etaRatio,omitempty"`        // dielectric
	RefractiveIndex float64 `json:"refractiveIndex,omitempty"` // glass
}

// ObjectFile is a sphere and the ID of its material
type ObjectFile struct {
	Name     string  `json:"name,omitempty"`
	Center   Vector  `json:"center"`
	Radius   float64 `json:"radius"`
	Material string  `json:"material"`
}

// Vector is encoded as a three element array
type Vector [3]float64

// Vec3 converts to the core vector type
func (v Vector) Vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// UnmarshalJSON rejects arrays that do not have exactly three elements
func (v *Vector) UnmarshalJSON(data []byte) error {
	components, err := decodeTriple(data, "vector")
	if err != nil {
		return err
	}
	*v = components
	return nil
}

// decodeTriple decodes a JSON array that must hold exactly three numbers
func decodeTriple(data []byte, kind string) ([3]float64, error) {
	var components []float64
	if err := json.Unmarshal(data, &components); err != nil {
		return [3]float64{}, err
	}
	if len(components) != 3 {
		return [3]float64{}, fmt.Errorf("%s must have 3 components, got %d", kind, len(components))
	}
	return [3]float64(components), nil
}

func vectorOf(v core.Vec3) *Vector {
	return &Vector{v.X, v.Y, v.Z}
}

// Color is a linear 0-1 color. It decodes from an [r, g, b] array or from a
// CSS/SVG color name such as "skyblue"; it always encodes as an array.
type Color core.Vec3

// UnmarshalJSON accepts either form
func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		v, err := ParseColor(name)
		if err != nil {
			return err
		}
		*c = Color(v)
		return nil
	}

	rgb, err := decodeTriple(data, "color")
	if err != nil {
		return fmt.Errorf("color must be a name or an [r, g, b] array: %w", err)
	}
	*c = Color(core.NewVec3(rgb[0], rgb[1], rgb[2]))
	return nil
}

// MarshalJSON encodes the color as an array
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{c.X, c.Y, c.Z})
}

// ParseColor resolves a named color (case-insensitive) to a linear 0-1 color
func ParseColor(name string) (core.Vec3, error) {
	rgba, ok := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return core.Vec3{}, fmt.Errorf("unknown color name %q", name)
	}
	return core.NewColorRGB8(rgba.R, rgba.G, rgba.B), nil
}

// DefaultFileCamera is the camera used for fields a scene file leaves out
func DefaultFileCamera() geometry.CameraConfig {
	return geometry.CameraConfig{
		Width:           400,
		Height:          225,
		Origin:          core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		Up:              core.NewVec3(0, 1, 0),
		VFov:            90.0,
		SamplesPerPixel: 100,
	}
}

// Load reads and validates a scene from a JSON file
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s, nil
}

// Save writes a scene to a JSON file
func Save(path string, s *Scene) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scene: %w", err)
	}
	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Decode reads a scene from JSON and validates it
func Decode(r io.Reader) (*Scene, error) {
	var file File
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return file.Scene()
}

// Encode writes a scene as indented JSON
func Encode(w io.Writer, s *Scene) error {
	file, err := NewFile(s)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return nil
}

// Scene builds and validates the scene the file describes
func (f *File) Scene() (*Scene, error) {
	materials := make(map[string]material.Material, len(f.Materials))
	for i, mf := range f.Materials {
		if mf.ID == "" {
			return nil, fmt.Errorf("%w: material %d has no id", ErrInvalidScene, i)
		}
		if _, exists := materials[mf.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate material id %q", ErrInvalidScene, mf.ID)
		}
		mat, err := mf.build()
		if err != nil {
			return nil, fmt.Errorf("%w: material %q: %w", ErrInvalidScene, mf.ID, err)
		}
		materials[mf.ID] = mat
	}

	world := NewWorld()
	for i, of := range f.Objects {
		mat, ok := materials[of.Material]
		if !ok {
			return nil, fmt.Errorf("%w: object %d refers to unknown material %q", ErrInvalidScene, i, of.Material)
		}
		name := of.Name
		if name == "" {
			name = fmt.Sprintf("sphere-%d", i)
		}
		world.Add(name, geometry.NewSphere(of.Center.Vec3(), of.Radius), mat)
	}

	s := &Scene{
		Name:         f.Name,
		World:        world,
		CameraConfig: f.Camera.config(),
		Background:   DefaultBackground(),
		MaxDepth:     DefaultMaxDepth,
	}
	if f.Background != nil {
		s.Background = Background{
			Horizon: core.Vec3(f.Background.Horizon),
			Zenith:  core.Vec3(f.Background.Zenith),
		}
	}
	if f.MaxDepth != 0 {
		s.MaxDepth = f.MaxDepth
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (mf MaterialFile) build() (material.Material, error) {
	var mat material.Material
	switch strings.ToLower(mf.Type) {
	case MaterialLambertian:
		if mf.Albedo == nil {
			return nil, errors.New("lambertian requires albedo")
		}
		mat = material.NewLambertian(core.Vec3(*mf.Albedo))
	case MaterialMetal:
		if mf.Albedo == nil {
			return nil, errors.New("metal requires albedo")
		}
		if mf.Fuzz < 0 || mf.Fuzz > 1 {
			return nil, fmt.Errorf("metal fuzz %v outside [0, 1]", mf.Fuzz)
		}
		mat = material.NewMetal(core.Vec3(*mf.Albedo), mf.Fuzz)
	case MaterialDielectric:
		mat = material.NewDielectric(mf.EtaRatio)
	case MaterialGlass:
		if mf.RefractiveIndex <= 0 {
			return nil, fmt.Errorf("glass refractive index %v must be positive", mf.RefractiveIndex)
		}
		mat = material.NewGlass(mf.RefractiveIndex)
	default:
		return nil, fmt.Errorf("unknown material type %q", mf.Type)
	}
	if err := material.Validate(mat); err != nil {
		return nil, err
	}
	return mat, nil
}

func (c CameraFile) config() geometry.CameraConfig {
	config := DefaultFileCamera()
	if c.Width != 0 {
		config.Width = c.Width
	}
	if c.Height != 0 {
		config.Height = c.Height
	}
	if c.Origin != nil {
		config.Origin = c.Origin.Vec3()
	}
	if c.LookAt != nil {
		config.LookAt = c.LookAt.Vec3()
	}
	if c.Up != nil {
		config.Up = c.Up.Vec3()
	}
	if c.VFov != 0 {
		config.VFov = c.VFov
	}
	config.AspectRatio = c.AspectRatio
	if c.SamplesPerPixel != 0 {
		config.SamplesPerPixel = c.SamplesPerPixel
	}
	return config
}

// NewFile converts a scene to its JSON representation.
// Materials shared between objects are written once.
func NewFile(s *Scene) (*File, error) {
	if s.World == nil {
		return nil, fmt.Errorf("%w: scene %q has no world", ErrInvalidScene, s.Name)
	}

	cfg := s.CameraConfig
	background := BackgroundFile{Horizon: Color(s.Background.Horizon), Zenith: Color(s.Background.Zenith)}
	file := &File{
		Name: s.Name,
		Camera: CameraFile{
			Width:           cfg.Width,
			Height:          cfg.Height,
			Origin:          vectorOf(cfg.Origin),
			LookAt:          vectorOf(cfg.LookAt),
			Up:              vectorOf(cfg.Up),
			VFov:            cfg.VFov,
			AspectRatio:     cfg.AspectRatio,
			SamplesPerPixel: cfg.SamplesPerPixel,
		},
		Background: &background,
		MaxDepth:   s.MaxDepth,
	}

	ids := make(map[material.Material]string)
	for i, obj := range s.World.Objects {
		sphere, ok := obj.Shape.(*geometry.Sphere)
		if !ok {
			return nil, fmt.Errorf("%w: object %d (%s) has unsupported shape %T", ErrInvalidScene, i, obj.Name, obj.Shape)
		}

		id, seen := ids[obj.Material]
		if !seen {
			id = fmt.Sprintf("m%d", len(ids))
			mf, err := materialFile(id, obj.Material)
			if err != nil {
				return nil, fmt.Errorf("object %d (%s): %w", i, obj.Name, err)
			}
			ids[obj.Material] = id
			file.Materials = append(file.Materials, mf)
		}

		file.Objects = append(file.Objects, ObjectFile{
			Name:     obj.Name,
			Center:   *vectorOf(sphere.Center),
			Radius:   sphere.Radius,
			Material: id,
		})
	}
	return file, nil
}

func materialFile(id string, m material.Material) (MaterialFile, error) {
	switch m := m.(type) {
	case *material.Lambertian:
		albedo := Color(m.Albedo)
		return MaterialFile{ID: id, Type: MaterialLambertian, Albedo: &albedo}, nil
	case *material.Metal:
		albedo := Color(m.Albedo)
		return MaterialFile{ID: id, Type: MaterialMetal, Albedo: &albedo, Fuzz: m.Fuzzness}, nil
	case *material.Dielectric:
		return MaterialFile{ID: id, Type: MaterialDielectric, EtaRatio: m.EtaRatio}, nil
	default:
		return MaterialFile{}, fmt.Errorf("%w: unsupported material %T", ErrInvalidScene, m)
	}
}
