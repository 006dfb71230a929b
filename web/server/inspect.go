package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	Object       string                 `json:"object,omitempty"`
	ObjectIndex  int                    `json:"objectIndex"`
	MaterialType string                 `json:"materialType,omitempty"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Background   [3]float64             `json:"background"` // Sky color along the ray
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColor(v core.Vec3) string {
	c := v.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// extractMaterialInfo extracts detailed material information with type assertions
func extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["albedo"] = vecArray(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		return "lambertian", properties

	case *material.Metal:
		properties["albedo"] = vecArray(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		properties["fuzzness"] = m.Fuzzness
		return "metal", properties

	case *material.Dielectric:
		properties["etaRatio"] = m.EtaRatio
		if m.EtaRatio > 0 {
			properties["refractiveIndex"] = 1 / m.EtaRatio
		}
		properties["color"] = "#ffffff" // Clear glass
		return "dielectric", properties

	default:
		return "unknown", properties
	}
}

// extractGeometryInfo extracts detailed geometry information
func extractGeometryInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = vecArray(geom.Center)
		properties["radius"] = geom.Radius
		return "sphere", properties

	default:
		return "unknown", properties
	}
}

// inspectPixel casts an unjittered ray through the center of a pixel
func inspectPixel(s *scene.Scene, row, col int) (InspectResponse, error) {
	camera, err := geometry.NewCamera(s.CameraConfig)
	if err != nil {
		return InspectResponse{}, err
	}

	cfg := camera.Config()
	u := (float64(col) + 0.5) / float64(cfg.Width)
	v := 1 - (float64(row)+0.5)/float64(cfg.Height)
	ray := camera.GetRay(u, v)

	response := InspectResponse{
		ObjectIndex: -1,
		Background:  vecArray(s.Background.Evaluate(ray.Direction)),
	}

	hit, isHit := s.World.Hit(ray)
	if !isHit {
		return response, nil
	}

	materialType, materialProps := extractMaterialInfo(hit.Object.Material)
	geometryType, geometryProps := extractGeometryInfo(hit.Object.Shape)

	response.Hit = true
	response.Object = hit.Object.Name
	response.ObjectIndex = hit.Index
	response.MaterialType = materialType
	response.GeometryType = geometryType
	response.Point = vecArray(hit.Point)
	response.Normal = vecArray(hit.Normal)
	response.Distance = hit.T * ray.Direction.Length()
	response.FrontFace = ray.Direction.Dot(hit.Normal) < 0
	response.Properties = map[string]interface{}{
		"material": materialProps,
		"geometry": geometryProps,
	}
	return response, nil
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	sceneObj, err := createScene(req)
	if err != nil {
		writeError(w, sceneErrorStatus(err), err.Error())
		return
	}

	// Parse pixel coordinates
	col, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	row, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	cfg := sceneObj.CameraConfig
	if col < 0 || col >= cfg.Width || row < 0 || row >= cfg.Height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	response, err := inspectPixel(sceneObj, row, col)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}
