// Package api provides HTTP API handlers for the Facemark attendance system.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sdrao/facemark/internal/app"
	"github.com/sdrao/facemark/internal/export"
	"github.com/sdrao/facemark/internal/store"
)

// maxPhotoSize caps the enrollment photo upload.
const maxPhotoSize = 10 << 20

// StudentHandler handles HTTP requests for student resources.
type StudentHandler struct {
	store *store.Store
	app   *app.App
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(s *store.Store, a *app.App) *StudentHandler {
	return &StudentHandler{store: s, app: a}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *StudentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/students, /api/students/export, /api/students/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/students")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.enroll(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if path == "export" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.exportRoster(w, r)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type updateStudentRequest struct {
	Name   string `json:"name"`
	Course string `json:"course"`
	Mobile string `json:"mobile"`
}

type studentResponse struct {
	ID        string `json:"id"`
	RegNo     string `json:"reg_no"`
	Name      string `json:"name"`
	Course    string `json:"course"`
	Mobile    string `json:"mobile"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type listStudentsResponse struct {
	Students []studentResponse `json:"students"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func toResponse(st *store.Student) studentResponse {
	return studentResponse{
		ID:        st.ID,
		RegNo:     st.RegNo,
		Name:      st.Name,
		Course:    st.Course,
		Mobile:    st.Mobile,
		CreatedAt: st.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: st.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/students and returns the roster, optionally
// filtered by ?search= or ?course=.
func (h *StudentHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		students []*store.Student
		err      error
	)
	if course := r.URL.Query().Get("course"); course != "" {
		students, err = h.store.Students().ListByCourse(course)
	} else {
		students, err = h.store.Students().List(r.URL.Query().Get("search"))
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students")
		return
	}

	response := listStudentsResponse{
		Students: make([]studentResponse, 0, len(students)),
	}
	for _, st := range students {
		response.Students = append(response.Students, toResponse(st))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/students/{id} and returns a single student.
func (h *StudentHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	st, err := h.store.Students().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get student")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(st))
}

// enroll handles POST /api/students. The request is multipart form data
// with reg_no, name, course, mobile fields and a photo file; the photo
// must contain exactly one detectable face.
func (h *StudentHandler) enroll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "A face photo is required")
		return
	}
	defer file.Close()

	photo, err := io.ReadAll(io.LimitReader(file, maxPhotoSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read photo")
		return
	}

	st, err := h.app.Enroll(app.EnrollRequest{
		RegNo:  r.FormValue("reg_no"),
		Name:   r.FormValue("name"),
		Course: r.FormValue("course"),
		Mobile: r.FormValue("mobile"),
		Photo:  photo,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(st))
}

// update handles PUT /api/students/{id} and updates editable fields.
func (h *StudentHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	st, err := h.store.Students().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get student")
		return
	}

	var req updateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		st.Name = req.Name
	}
	if req.Course != "" {
		st.Course = req.Course
	}
	if req.Mobile != "" {
		st.Mobile = req.Mobile
	}

	if err := h.store.Students().Update(st); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update student")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(st))
}

// delete handles DELETE /api/students/{id}; the student's encoding and
// attendance rows go with it.
func (h *StudentHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Students().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete student")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// exportRoster handles GET /api/students/export and streams the roster as CSV.
func (h *StudentHandler) exportRoster(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.Students().List(r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="students.csv"`)
	if err := export.StudentsCSV(w, students); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export students")
	}
}
