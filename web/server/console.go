package server

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by writing to the server log and, when events is
// set, forwarding each message to a client as a console event
type WebLogger struct {
	renderID string
	events   chan<- SSEEvent
}

// NewWebLogger creates a new web logger for a specific render
func NewWebLogger(renderID string, events chan<- SSEEvent) *WebLogger {
	return &WebLogger{renderID: renderID, events: events}
}

var _ core.Logger = (*WebLogger)(nil)

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", wl.renderID, strings.TrimRight(message, "\n"))

	if wl.events == nil {
		return
	}
	data, err := json.Marshal(ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   message,
		Timestamp: time.Now(),
		Level:     levelOf(message),
	})
	if err != nil {
		return
	}

	// Non-blocking: a slow client loses console lines, never render time
	select {
	case wl.events <- SSEEvent{Type: "console", Data: string(data)}:
	default:
	}
}

// levelOf classifies a log line by its leading word
func levelOf(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.HasPrefix(lower, "error"), strings.Contains(lower, "stopped after"):
		return "error"
	case strings.HasPrefix(lower, "warning"), strings.HasPrefix(lower, "render warning"):
		return "warning"
	default:
		return "info"
	}
}
