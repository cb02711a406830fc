package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sdrao/facemark/internal/app"
)

// SessionHandler controls the recognition session over HTTP.
type SessionHandler struct {
	app *app.App
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(a *app.App) *SessionHandler {
	return &SessionHandler{app: a}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/session, /api/session/{action}
	path := strings.TrimPrefix(r.URL.Path, "/api/session")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, h.app.Status())
		case http.MethodDelete:
			h.app.Deactivate()
			writeJSON(w, http.StatusOK, h.app.Status())
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch path {
	case "group":
		h.activateGroup(w)
	case "course":
		h.activateCourse(w, r)
	case "single":
		h.activateSingle(w, r)
	case "scan":
		h.app.StartScan()
		writeJSON(w, http.StatusOK, h.app.Status())
	case "enabled":
		h.setEnabled(w, r)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

type activateCourseRequest struct {
	Course string `json:"course"`
}

type activateSingleRequest struct {
	RegNo string `json:"reg_no"`
}

type setEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// activateGroup handles POST /api/session/group and starts a session
// over every enrolled student.
func (h *SessionHandler) activateGroup(w http.ResponseWriter) {
	if err := h.app.ActivateGroup(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.app.Status())
}

// activateCourse handles POST /api/session/course and starts a session
// restricted to one course.
func (h *SessionHandler) activateCourse(w http.ResponseWriter, r *http.Request) {
	var req activateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Course == "" {
		writeError(w, http.StatusBadRequest, "Course is required")
		return
	}

	if err := h.app.ActivateCourse(req.Course); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.app.Status())
}

// activateSingle handles POST /api/session/single and starts a session
// for one registration number.
func (h *SessionHandler) activateSingle(w http.ResponseWriter, r *http.Request) {
	var req activateSingleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.RegNo == "" {
		writeError(w, http.StatusBadRequest, "Registration number is required")
		return
	}

	if err := h.app.ActivateSingle(req.RegNo); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.app.Status())
}

// setEnabled handles POST /api/session/enabled and pauses or resumes
// recognition without losing session state.
func (h *SessionHandler) setEnabled(w http.ResponseWriter, r *http.Request) {
	var req setEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.app.SetEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, h.app.Status())
}
