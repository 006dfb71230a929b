package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/df07/go-pathtracer/pkg/scene"
	"github.com/df07/go-pathtracer/pkg/sink"
)

// Request limits
const (
	maxImageSize = 2000
	maxSamples   = 10000
	maxDepth     = 1000
)

// Server handles web requests for the path tracer
type Server struct {
	port int
	mux  *http.ServeMux
}

// NewServer creates a new web server with all routes registered
func NewServer(port int) *Server {
	s := &Server{port: port, mux: http.NewServeMux()}

	// API endpoints
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/render/stream", s.handleRenderStream)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)
	return s
}

// Handler returns the server's request router
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene   string      // Scene name or file:<id>
	Width   int         // Image width (0 = scene default)
	Height  int         // Image height (0 = scene default)
	Samples int         // Samples per pixel (0 = scene default)
	Depth   int         // Maximum bounce depth (0 = scene default)
	Seed    uint64      // Sampling seed
	Gamma   float64     // Output gamma (0 or 1 = linear)
	Format  sink.Format // Output encoding for /api/render
}

// handleIndex lists the API endpoints
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found: "+r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"/api/health":        "health check",
		"/api/scenes":        "available scenes",
		"/api/render":        "render an image (scene, width, height, samples, depth, seed, gamma, format)",
		"/api/render/stream": "render with progress, previews and the final PNG as server-sent events",
		"/api/inspect":       "describe the object under pixel x, y",
	})
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and discovered scene files
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.List()
	if err != nil {
		log.Printf("Error listing scenes: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list scenes")
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// parseRenderRequest parses and validates query parameters
func parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: "default"}

	if name := query.Get("scene"); name != "" {
		req.Scene = name
	}
	// Only registered names; arbitrary file paths stay a command-line feature
	if strings.HasSuffix(strings.ToLower(req.Scene), ".json") {
		return nil, fmt.Errorf("scene must be a scene name, got %q", req.Scene)
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, 1, maxImageSize); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 0, 1, maxImageSize); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(query, "samples", 0, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.Depth, err = parseIntParam(query, "depth", 0, 1, maxDepth); err != nil {
		return nil, err
	}
	if req.Gamma, err = parseFloatParam(query, "gamma", 1, 0, 10); err != nil {
		return nil, err
	}

	req.Seed = 42
	if value := query.Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseUint(value, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed: %s", value)
		}
	}

	req.Format = sink.FormatPNG
	if value := query.Get("format"); value != "" {
		if req.Format, err = sink.ParseFormat(value); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// createScene loads the requested scene and applies the request's overrides
func createScene(req *RenderRequest) (*scene.Scene, error) {
	s, err := scene.Create(req.Scene)
	if err != nil {
		return nil, err
	}
	err = s.Apply(scene.Overrides{
		Width:           req.Width,
		Height:          req.Height,
		SamplesPerPixel: req.Samples,
		MaxDepth:        req.Depth,
	})
	if err != nil {
		return nil, err
	}

	// Performance warning
	cfg := s.CameraConfig
	if cfg.Width*cfg.Height > 800*600 && cfg.SamplesPerPixel > 100 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}
	return s, nil
}

// sceneErrorStatus maps scene creation failures to HTTP status codes
func sceneErrorStatus(err error) int {
	if errors.Is(err, scene.ErrUnknownScene) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
