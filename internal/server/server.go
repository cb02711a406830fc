// Package server provides the HTTP server for the Facemark attendance system.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sdrao/facemark/internal/app"
	"github.com/sdrao/facemark/internal/server/api"
	"github.com/sdrao/facemark/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
}

// Server represents the HTTP server for the Facemark application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		studentHandler := api.NewStudentHandler(s.config.Store, s.config.App)
		s.mux.Handle("/api/students", studentHandler)
		s.mux.Handle("/api/students/", studentHandler)

		attendanceHandler := api.NewAttendanceHandler(s.config.Store)
		s.mux.Handle("/api/attendance", attendanceHandler)
		s.mux.Handle("/api/attendance/", attendanceHandler)

		s.mux.Handle("/api/courses", api.NewCoursesHandler(s.config.Store))
	}

	if s.config.App != nil {
		sessionHandler := api.NewSessionHandler(s.config.App)
		s.mux.Handle("/api/session", sessionHandler)
		s.mux.Handle("/api/session/", sessionHandler)

		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App.Camera()))
		s.mux.Handle("/api/events", NewEventsHandler(s.config.App))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
