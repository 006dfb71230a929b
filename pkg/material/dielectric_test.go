package material

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
)

func TestDielectric_AttenuationIsWhite(t *testing.T) {
	glass := NewGlass(1.5)
	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(1, -1, 0))
	normal := core.NewVec3(0, 1, 0)

	result := glass.Scatter(ray, normal, 1.0, core.NewRandomSampler(42, 0))

	if result.Attenuation != core.NewVec3(1, 1, 1) {
		t.Errorf("Expected white attenuation, got %v", result.Attenuation)
	}
	if result.Scattered.Origin.Subtract(core.NewVec3(1, 0, 0)).Length() > 1e-12 {
		t.Errorf("Expected scattered origin at hit point, got %v", result.Scattered.Origin)
	}
}

func TestDielectric_RefractionEnteringBendsTowardNormal(t *testing.T) {
	glass := NewGlass(1.5)
	incoming := core.NewVec3(1, -1, 0).Normalize() // 45 degrees
	ray := core.NewRay(core.NewVec3(-1, 1, 0), incoming)
	normal := core.NewVec3(0, 1, 0)

	result := glass.Scatter(ray, normal, math.Sqrt2, core.NewRandomSampler(42, 0))
	out := result.Scattered.Direction.Normalize()

	if out.Y >= 0 {
		t.Fatalf("Expected refracted ray to continue into the surface, got %v", out)
	}

	// Snell: sin(theta_t) = sin(theta_i) / 1.5
	expectedSin := math.Sin(math.Pi/4) / 1.5
	if math.Abs(out.X-expectedSin) > 1e-9 {
		t.Errorf("Expected sin(theta_t) = %f, got %f", expectedSin, out.X)
	}
}

func TestDielectric_NormalIncidencePassesStraightThrough(t *testing.T) {
	glass := NewGlass(1.5)
	ray := core.NewRay(core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -1))
	normal := core.NewVec3(0, 0, 1)

	result := glass.Scatter(ray, normal, 1.0, core.NewRandomSampler(1, 0))
	if result.Scattered.Direction.Subtract(core.NewVec3(0, 0, -1)).Length() > 1e-9 {
		t.Errorf("Expected undeflected direction, got %v", result.Scattered.Direction)
	}
}

// The reflect/refract choice is governed exactly by etaRatio * sin(theta) compared to 1.
func TestDielectric_TotalInternalReflectionThreshold(t *testing.T) {
	glass := NewGlass(1.5)
	normal := core.NewVec3(0, 1, 0) // outward normal; the ray travels inside, upward
	criticalAngle := math.Asin(1.0 / 1.5)

	tests := []struct {
		name        string
		angle       float64
		wantReflect bool
	}{
		{"well below critical", criticalAngle * 0.5, false},
		{"just below critical", criticalAngle - 1e-6, false},
		{"just above critical", criticalAngle + 1e-6, true},
		{"grazing", math.Pi/2 - 0.01, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			direction := core.NewVec3(math.Sin(tt.angle), math.Cos(tt.angle), 0)
			ray := core.NewRay(core.NewVec3(0, -1, 0), direction)

			sinTheta := math.Sin(tt.angle)
			if got := CannotRefract(1.5, sinTheta); got != tt.wantReflect {
				t.Fatalf("CannotRefract(1.5, %f) = %t, expected %t", sinTheta, got, tt.wantReflect)
			}

			result := glass.Scatter(ray, normal, 1.0/math.Cos(tt.angle), core.NewRandomSampler(3, 0))
			out := result.Scattered.Direction
			reflected := out.Dot(normal) < 0

			if reflected != tt.wantReflect {
				t.Errorf("Angle %f: reflected = %t, expected %t (direction %v)", tt.angle, reflected, tt.wantReflect, out)
			}
			if out.NearZero() {
				t.Error("Scattered direction must not be zero")
			}
		})
	}
}

func TestCannotRefract_EqualityRefracts(t *testing.T) {
	if CannotRefract(2.0, 0.5) {
		t.Error("Expected equality to refract")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mat     Material
		wantErr bool
	}{
		{"lambertian", NewLambertian(core.NewVec3(0.5, 0.5, 0.5)), false},
		{"lambertian albedo above one", NewLambertian(core.NewVec3(1.5, 0.5, 0.5)), true},
		{"lambertian nan albedo", NewLambertian(core.NewVec3(math.NaN(), 0, 0)), true},
		{"metal", NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.3), false},
		{"metal negative albedo", NewMetal(core.NewVec3(-0.1, 0.8, 0.8), 0.3), true},
		{"metal fuzz set directly", &Metal{Albedo: core.NewVec3(0.5, 0.5, 0.5), Fuzzness: 2}, true},
		{"glass", NewGlass(1.5), false},
		{"zero eta", NewDielectric(0), true},
		{"negative eta", NewDielectric(-0.5), true},
		{"infinite eta", NewDielectric(math.Inf(1)), true},
		{"nil", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mat)
			if tt.wantErr && !errors.Is(err, ErrInvalidMaterial) {
				t.Errorf("Expected ErrInvalidMaterial, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(NewGlass(2)); got != "dielectric(eta=0.500)" {
		t.Errorf("Unexpected description %q", got)
	}
}
