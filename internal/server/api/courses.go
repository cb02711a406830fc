package api

import (
	"net/http"

	"github.com/sdrao/facemark/internal/store"
)

// CoursesHandler serves the list of distinct course names, used to
// populate course pickers and report filters.
type CoursesHandler struct {
	store *store.Store
}

// NewCoursesHandler creates a new CoursesHandler.
func NewCoursesHandler(s *store.Store) *CoursesHandler {
	return &CoursesHandler{store: s}
}

// ServeHTTP handles GET /api/courses.
func (h *CoursesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	courses, err := h.store.Students().Courses()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list courses")
		return
	}
	if courses == nil {
		courses = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"courses": courses})
}
