package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
	"github.com/df07/go-pathtracer/pkg/sink"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "preview", "complete", "error"
	Data string `json:"data"` // JSON-encoded data
}

// previewStep is the percentage between partial image events
const previewStep = 25

// ProgressUpdate is sent each time another percent of the image is done
type ProgressUpdate struct {
	Done    int `json:"done"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// PreviewUpdate carries a partial image every previewStep percent
type PreviewUpdate struct {
	Percent   int    `json:"percent"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
}

// CompleteUpdate carries the finished image
type CompleteUpdate struct {
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
}

// Stats represents render statistics
type Stats struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	TotalPixels      int     `json:"totalPixels"`
	TotalSamples     int     `json:"totalSamples"`
	SamplesPerPixel  int     `json:"samplesPerPixel"`
	Threads          int     `json:"threads"`
	ElapsedMs        int64   `json:"elapsedMs"`
	SamplesPerSecond float64 `json:"samplesPerSecond"`
	PrimitiveCount   int     `json:"primitiveCount"`
}

func newStats(stats renderer.RenderStats, s *scene.Scene) Stats {
	return Stats{
		Width:            stats.Width,
		Height:           stats.Height,
		TotalPixels:      stats.TotalPixels,
		TotalSamples:     stats.TotalSamples,
		SamplesPerPixel:  stats.SamplesPerPixel,
		Threads:          stats.Threads,
		ElapsedMs:        stats.Elapsed.Milliseconds(),
		SamplesPerSecond: stats.SamplesPerSecond(),
		PrimitiveCount:   s.GetPrimitiveCount(),
	}
}

// newRaytracer builds the scene and raytracer for a request
func newRaytracer(req *RenderRequest, logger *WebLogger, progress *renderer.Progress) (*scene.Scene, *renderer.Raytracer, int, error) {
	s, err := createScene(req)
	if err != nil {
		return nil, nil, sceneErrorStatus(err), err
	}

	config := renderer.DefaultConfig()
	config.Seed = req.Seed
	config.Gamma = req.Gamma
	config.Logger = logger
	config.Progress = progress

	rt, err := renderer.NewRaytracer(s, config)
	if err != nil {
		return nil, nil, http.StatusBadRequest, err
	}
	return s, rt, http.StatusOK, nil
}

func newRenderID() string {
	return fmt.Sprintf("render-%d", time.Now().UnixNano())
}

// handleRender renders the whole image and returns it encoded
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	_, rt, status, err := newRaytracer(req, NewWebLogger(newRenderID(), nil), nil)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	img, stats, err := rt.RenderImage(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client disconnected
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Render error: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := img.Encode(&buf, req.Format); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Encode error: %v", err))
		return
	}

	w.Header().Set("Content-Type", req.Format.ContentType())
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Samples", strconv.Itoa(stats.TotalSamples))
	w.Header().Set("X-Render-Elapsed-Ms", strconv.FormatInt(stats.Elapsed.Milliseconds(), 10))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing image: %v", err)
	}
}

// handleRenderStream renders with progress and console lines streamed via SSE,
// finishing with the PNG image
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	ctx := r.Context()

	// Single writer goroutine; the handler waits for it before returning
	events := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeSSEEvents(ctx, w, flusher, events)
	}()
	defer func() {
		close(events)
		<-writerDone
	}()

	req, err := parseRenderRequest(r)
	if err != nil {
		sendEvent(ctx, events, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	logger := NewWebLogger(newRenderID(), events)
	reporter := renderer.NewProgressReporter(logger, 25)
	progress := &renderer.Progress{}

	sceneObj, rt, _, err := newRaytracer(req, logger, progress)
	if err != nil {
		sendEvent(ctx, events, "error", err.Error())
		return
	}

	// Workers write straight into a shared surface; previews are snapshots of it
	surface, err := sink.NewSurface(rt.Width(), rt.Height())
	if err != nil {
		sendEvent(ctx, events, "error", err.Error())
		return
	}

	var lastPercent, lastPreview atomic.Int64
	lastPercent.Store(-1)
	progress.OnUpdate = func(done, total int) {
		reporter.Report(done, total)

		percent := int64(done * 100 / total)
		if last := lastPercent.Load(); percent > last && lastPercent.CompareAndSwap(last, percent) {
			data, _ := json.Marshal(ProgressUpdate{Done: done, Total: total, Percent: int(percent)})
			trySend(events, SSEEvent{Type: "progress", Data: string(data)})
		}

		step := percent / previewStep * previewStep
		if last := lastPreview.Load(); step > last && percent < 100 && lastPreview.CompareAndSwap(last, step) {
			if imageData, err := encodeSnapshot(surface); err == nil {
				data, _ := json.Marshal(PreviewUpdate{Percent: int(step), ImageData: imageData})
				trySend(events, SSEEvent{Type: "preview", Data: string(data)})
			}
		}
	}

	stats, err := rt.Render(ctx, surface)
	if err != nil {
		sendEvent(ctx, events, "error", fmt.Sprintf("Rendering failed: %v", err))
		return
	}
	surface.Close()

	imageData, err := encodeSnapshot(surface)
	if err != nil {
		sendEvent(ctx, events, "error", fmt.Sprintf("Encode error: %v", err))
		return
	}
	data, err := json.Marshal(CompleteUpdate{ImageData: imageData, Stats: newStats(stats, sceneObj)})
	if err != nil {
		log.Printf("Error marshaling complete update: %v", err)
		return
	}
	sendEvent(ctx, events, "complete", string(data))
}

// encodeSnapshot converts the surface's current contents to a base64 PNG
func encodeSnapshot(surface *sink.Surface) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, surface.Snapshot()); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes events until the channel is closed. After the client
// disconnects it keeps draining so senders never block.
func writeSSEEvents(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, events <-chan SSEEvent) {
	connected := true
	for event := range events {
		if !connected || ctx.Err() != nil {
			connected = false
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			connected = false
			continue
		}
		flusher.Flush()
	}
}

// trySend queues an event unless the buffer is full
func trySend(events chan<- SSEEvent, event SSEEvent) {
	select {
	case events <- event:
	default:
	}
}

// sendEvent queues an event, giving up if the client is gone
func sendEvent(ctx context.Context, events chan<- SSEEvent, eventType, data string) {
	select {
	case events <- SSEEvent{Type: eventType, Data: data}:
	case <-ctx.Done():
	}
}
