package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sdrao/facemark/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler pushes live pipeline events (matches, marks, mode
// changes, QR scans) to WebSocket clients.
type EventsHandler struct {
	app *app.App
}

// NewEventsHandler creates a new EventsHandler for the given app.
func NewEventsHandler(a *app.App) *EventsHandler {
	return &EventsHandler{app: a}
}

// ServeHTTP handles WebSocket upgrade requests. Each client gets its
// own event subscription; slow clients miss events rather than stall
// the pipeline.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.app.Subscribe()
	defer cancel()

	// Drain client messages so pings and close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
