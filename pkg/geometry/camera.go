package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ErrInvalidCamera is returned for camera configurations that cannot produce a valid image plane
var ErrInvalidCamera = errors.New("invalid camera")

// aspectTolerance is the relative slack allowed between AspectRatio and Width/Height,
// which covers integer rounding of the image height.
const aspectTolerance = 0.01

// CameraConfig contains all parameters needed to create a camera
type CameraConfig struct {
	Width           int       // Image width in pixels
	Height          int       // Image height in pixels
	Origin          core.Vec3 // Camera position
	LookAt          core.Vec3 // Point the camera is looking at
	Up              core.Vec3 // Up direction (usually (0,1,0))
	VFov            float64   // Vertical field of view in degrees
	AspectRatio     float64   // Optional; when set it must agree with Width/Height
	SamplesPerPixel int       // Number of rays per pixel
}

// Validate checks the configuration before any ray is generated
func (c CameraConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: image dimensions %dx%d must be positive", ErrInvalidCamera, c.Width, c.Height)
	}
	if c.SamplesPerPixel <= 0 {
		return fmt.Errorf("%w: samples per pixel %d must be positive", ErrInvalidCamera, c.SamplesPerPixel)
	}
	if math.IsNaN(c.VFov) || c.VFov <= 0 || c.VFov >= 180 {
		return fmt.Errorf("%w: vertical fov %v must be in (0, 180) degrees", ErrInvalidCamera, c.VFov)
	}
	if !c.Origin.IsFinite() || !c.LookAt.IsFinite() || !c.Up.IsFinite() {
		return fmt.Errorf("%w: camera vectors must be finite", ErrInvalidCamera)
	}
	view := c.Origin.Subtract(c.LookAt)
	if view.NearZero() {
		return fmt.Errorf("%w: origin and look-at point coincide at %v", ErrInvalidCamera, c.Origin)
	}
	if c.Up.NearZero() || c.Up.Normalize().Cross(view.Normalize()).NearZero() {
		return fmt.Errorf("%w: up vector %v is zero or parallel to the view direction", ErrInvalidCamera, c.Up)
	}
	if c.AspectRatio != 0 {
		imageAspect := float64(c.Width) / float64(c.Height)
		if math.Abs(c.AspectRatio-imageAspect) > aspectTolerance*imageAspect {
			return fmt.Errorf("%w: aspect ratio %.4f does not match image %dx%d (%.4f)",
				ErrInvalidCamera, c.AspectRatio, c.Width, c.Height, imageAspect)
		}
	}
	return nil
}

// Camera generates rays for rendering. It is immutable once built.
type Camera struct {
	config          CameraConfig
	u, v, w         core.Vec3 // Orthonormal basis, w points from look-at toward origin
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
}

// NewCamera validates the configuration and derives the view basis and image plane
func NewCamera(config CameraConfig) (*Camera, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	aspectRatio := float64(config.Width) / float64(config.Height)

	w := config.Origin.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	theta := config.VFov * math.Pi / 180.0
	halfHeight := math.Tan(theta / 2)
	viewportHeight := 2.0 * halfHeight
	viewportWidth := aspectRatio * viewportHeight

	horizontal := u.Multiply(viewportWidth)
	vertical := v.Multiply(viewportHeight)
	lowerLeftCorner := config.Origin.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w)

	return &Camera{
		config:          config,
		u:               u,
		v:               v,
		w:               w,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
	}, nil
}

// GetRay generates a ray through the image plane at (s, t) where 0 <= s,t <= 1.
// s grows to the right and t grows upward.
func (c *Camera) GetRay(s, t float64) core.Ray {
	target := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t))

	return core.NewRayFromPoints(c.config.Origin, target)
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}

// basis returns the camera's orthonormal basis
func (c *Camera) basis() (u, v, w core.Vec3) {
	return c.u, c.v, c.w
}

// imagePlane returns the lower-left corner and the horizontal and vertical extents of the image plane
func (c *Camera) imagePlane() (lowerLeft, horizontal, vertical core.Vec3) {
	return c.lowerLeftCorner, c.horizontal, c.vertical
}

// MergeCameraConfig returns base with every non-zero field of override applied on top
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	var zero core.Vec3

	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.Height != 0 {
		result.Height = override.Height
	}
	if override.Origin != zero {
		result.Origin = override.Origin
	}
	if override.LookAt != zero {
		result.LookAt = override.LookAt
	}
	if override.Up != zero {
		result.Up = override.Up
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.SamplesPerPixel != 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}

	return result
}
