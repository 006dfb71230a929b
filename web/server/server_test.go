package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/bmp"
)

const smallScene = "scene=single-sphere&width=20&height=10&samples=1&depth=5"

func serve(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	s := NewServer(0)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleHealth(t *testing.T) {
	rec := serve(t, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["status"] != "ok" {
		t.Errorf("Unexpected health body %v (%v)", body, err)
	}
}

func TestHandleScenes(t *testing.T) {
	rec := serve(t, "/api/scenes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Groups []struct {
			Name   string `json:"name"`
			Scenes []struct {
				ID string `json:"id"`
			} `json:"scenes"`
		} `json:"groups"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(body.Groups) == 0 || len(body.Groups[0].Scenes) < 4 {
		t.Errorf("Expected built-in scenes, got %+v", body.Groups)
	}
}

func TestHandleRender_Formats(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		check       func(t *testing.T, body []byte)
	}{
		{"png", "image/png", func(t *testing.T, body []byte) {
			img, err := png.Decode(bytes.NewReader(body))
			if err != nil {
				t.Fatalf("PNG decode error: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
				t.Errorf("Expected 20x10, got %v", b)
			}
		}},
		{"ppm", "image/x-portable-pixmap", func(t *testing.T, body []byte) {
			if !bytes.HasPrefix(body, []byte("P3\n20 10\n255\n")) {
				t.Errorf("Unexpected PPM header %q", body[:min(len(body), 16)])
			}
			lines := strings.Count(string(body), "\n")
			if lines != 3+200 {
				t.Errorf("Expected %d lines, got %d", 3+200, lines)
			}
		}},
		{"bmp", "image/bmp", func(t *testing.T, body []byte) {
			img, err := bmp.Decode(bytes.NewReader(body))
			if err != nil {
				t.Fatalf("BMP decode error: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
				t.Errorf("Expected 20x10, got %v", b)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := serve(t, "/api/render?"+smallScene+"&format="+tt.format)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Expected content type %s, got %s", tt.contentType, got)
			}
			if rec.Header().Get("X-Render-Samples") != "200" {
				t.Errorf("Expected 200 samples, got %s", rec.Header().Get("X-Render-Samples"))
			}
			tt.check(t, rec.Body.Bytes())
		})
	}
}

func TestHandleRender_Deterministic(t *testing.T) {
	first := serve(t, "/api/render?"+smallScene+"&format=ppm&seed=9")
	second := serve(t, "/api/render?"+smallScene+"&format=ppm&seed=9")
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("Expected identical images for the same seed")
	}
}

func TestHandleRender_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"width not a number", "width=abc", http.StatusBadRequest},
		{"width too large", "width=5000", http.StatusBadRequest},
		{"zero samples", "samples=0", http.StatusBadRequest},
		{"negative seed", "seed=-1", http.StatusBadRequest},
		{"unknown format", "format=gif", http.StatusBadRequest},
		{"gamma out of range", "gamma=11", http.StatusBadRequest},
		{"file path", "scene=../secret.json", http.StatusBadRequest},
		{"unknown scene", "scene=nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, "/api/render?"+tt.query)
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Errorf("Expected JSON error body, got %v (%v)", body, err)
			}
		})
	}
}

// sseEvents parses an event stream into (type, data) pairs
func sseEvents(body string) [][2]string {
	var events [][2]string
	for _, block := range strings.Split(body, "\n\n") {
		var eventType, data string
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				eventType = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
		if eventType != "" {
			events = append(events, [2]string{eventType, data})
		}
	}
	return events
}

func TestHandleRenderStream(t *testing.T) {
	rec := serve(t, "/api/render/stream?"+smallScene)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Expected event stream, got %s", got)
	}

	events := sseEvents(rec.Body.String())
	if len(events) == 0 {
		t.Fatal("Expected events")
	}

	last := events[len(events)-1]
	if last[0] != "complete" {
		t.Fatalf("Expected final complete event, got %s: %s", last[0], last[1])
	}

	var complete CompleteUpdate
	if err := json.Unmarshal([]byte(last[1]), &complete); err != nil {
		t.Fatalf("Complete event decode error: %v", err)
	}
	if complete.Stats.TotalPixels != 200 || complete.Stats.PrimitiveCount != 1 {
		t.Errorf("Unexpected stats %+v", complete.Stats)
	}
	raw, err := base64.StdEncoding.DecodeString(complete.ImageData)
	if err != nil {
		t.Fatalf("Base64 decode error: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Errorf("PNG decode error: %v", err)
	}

	seen := map[string]bool{}
	for _, e := range events {
		seen[e[0]] = true
	}
	if !seen["console"] || !seen["progress"] {
		t.Errorf("Expected console and progress events, got %v", seen)
	}
}

func TestHandleRenderStream_Error(t *testing.T) {
	rec := serve(t, "/api/render/stream?scene=nope")
	events := sseEvents(rec.Body.String())
	if len(events) != 1 || events[0][0] != "error" {
		t.Errorf("Expected a single error event, got %v", events)
	}
}

func TestHandleInspect(t *testing.T) {
	// Center of the single sphere scene looks straight at the sphere
	rec := serve(t, "/api/inspect?scene=single-sphere&x=100&y=50")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var hit InspectResponse
	if err := json.NewDecoder(rec.Body).Decode(&hit); err != nil {
		t.Fatal(err)
	}
	if !hit.Hit || hit.Object != "sphere" || hit.MaterialType != "lambertian" || hit.GeometryType != "sphere" {
		t.Errorf("Unexpected inspection %+v", hit)
	}
	if hit.Distance < 0.49 || hit.Distance > 0.51 || !hit.FrontFace {
		t.Errorf("Expected front face hit at distance 0.5, got %+v", hit)
	}

	// Top-left corner sees only sky
	rec = serve(t, "/api/inspect?scene=single-sphere&x=0&y=0")
	var miss InspectResponse
	if err := json.NewDecoder(rec.Body).Decode(&miss); err != nil {
		t.Fatal(err)
	}
	if miss.Hit || miss.ObjectIndex != -1 {
		t.Errorf("Expected a miss, got %+v", miss)
	}

	rec = serve(t, "/api/inspect?scene=single-sphere&x=500&y=0")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out of bounds pixel, got %d", rec.Code)
	}
}

func TestWebLogger(t *testing.T) {
	events := make(chan SSEEvent, 1)
	logger := NewWebLogger("test-render", events)

	logger.Printf("Render warning: %s\n", "slow")
	logger.Printf("dropped when full\n")

	select {
	case event := <-events:
		var msg ConsoleMessage
		if err := json.Unmarshal([]byte(event.Data), &msg); err != nil {
			t.Fatal(err)
		}
		if event.Type != "console" || msg.Level != "warning" || msg.RenderID != "test-render" {
			t.Errorf("Unexpected console event %+v", msg)
		}
		if msg.Message != "Render warning: slow\n" {
			t.Errorf("Unexpected message %q", msg.Message)
		}
		if time.Since(msg.Timestamp) > time.Minute {
			t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
		}
	default:
		t.Fatal("Expected a console event")
	}

	select {
	case event := <-events:
		t.Errorf("Expected full channel to drop message, got %+v", event)
	default:
	}

	// A nil channel only writes to the server log
	NewWebLogger("quiet", nil).Printf("hello\n")
}

func TestLevelOf(t *testing.T) {
	tests := map[string]string{
		"Rendered 50% (1/2 pixels)\n":           "info",
		"Render warning: big\n":                 "warning",
		"Render stopped after 3/10 pixels: x\n": "error",
		"Error: boom":                           "error",
	}
	for message, want := range tests {
		if got := levelOf(message); got != want {
			t.Errorf("levelOf(%q) = %s, want %s", message, got, want)
		}
	}
}

func TestHandleIndex(t *testing.T) {
	rec := serve(t, "/")
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if _, ok := body["/api/render"]; !ok || rec.Code != http.StatusOK {
		t.Errorf("Expected endpoint listing, got %d %v", rec.Code, body)
	}

	if rec := serve(t, "/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}
