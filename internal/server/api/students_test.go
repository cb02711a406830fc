package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdrao/facemark/internal/app"
	"github.com/sdrao/facemark/internal/capture"
	"github.com/sdrao/facemark/internal/embed"
	"github.com/sdrao/facemark/internal/recognize"
	"github.com/sdrao/facemark/internal/store"
)

func recognizeConfig() recognize.Config {
	return recognize.Config{
		Tolerance:      0.4,
		RequiredConsec: 3,
		ProcessEveryN:  2,
		GraceFrames:    15,
	}
}

// newTestApp builds a store-backed app with mock camera and embedder.
func newTestApp(t *testing.T) (*store.Store, *app.App, *embed.MockEmbedder) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "facemark-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	st, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})

	embedder := embed.NewMockEmbedder()
	a, err := app.New(app.Config{
		Store:       st,
		Camera:      capture.NewMockCamera(nil, false),
		Embedder:    embedder,
		Recognition: recognizeConfig(),
		PhotoDir:    filepath.Join(tmpDir, "photos"),
		QRDir:       filepath.Join(tmpDir, "qrcodes"),
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	return st, a, embedder
}

func enrollStudent(t *testing.T, h *StudentHandler, embedder *embed.MockEmbedder, regNo, name, course string, seed int) studentResponse {
	t.Helper()

	embedder.SetImageEmbedding(embed.FixtureEmbedding(seed))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("reg_no", regNo)
	mw.WriteField("name", name)
	mw.WriteField("course", course)
	fw, err := mw.CreateFormFile("photo", "face.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	fw.Write([]byte("fake-jpeg-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/students", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("enroll %s: expected status %d, got %d: %s", regNo, http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp studentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode enroll response: %v", err)
	}
	return resp
}

func TestStudentHandler_EnrollAndList(t *testing.T) {
	st, a, embedder := newTestApp(t)
	h := NewStudentHandler(st, a)

	created := enrollStudent(t, h, embedder, "R001", "Alice", "CS", 1)
	if created.RegNo != "R001" || created.Name != "Alice" {
		t.Errorf("unexpected created student: %+v", created)
	}
	if created.ID == "" {
		t.Error("expected a generated student ID")
	}

	// The enrollment stored a usable encoding.
	if _, err := st.Students().GetEncoding(created.ID); err != nil {
		t.Errorf("expected stored encoding: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var list listStudentsResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(list.Students) != 1 || list.Students[0].RegNo != "R001" {
		t.Errorf("unexpected student list: %+v", list.Students)
	}
}

func TestStudentHandler_EnrollWithoutPhoto(t *testing.T) {
	st, a, _ := newTestApp(t)
	h := NewStudentHandler(st, a)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("reg_no", "R001")
	mw.WriteField("name", "Alice")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/students", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestStudentHandler_EnrollFaceless(t *testing.T) {
	st, a, embedder := newTestApp(t)
	h := NewStudentHandler(st, a)

	// The embedder finds no face in the photo; enrollment must fail and
	// leave no student behind.
	embedder.SetImageEmbedding(nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("reg_no", "R001")
	mw.WriteField("name", "Alice")
	fw, _ := mw.CreateFormFile("photo", "face.jpg")
	fw.Write([]byte("fake-jpeg-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/students", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	students, err := st.Students().List("")
	if err != nil {
		t.Fatalf("failed to list students: %v", err)
	}
	if len(students) != 0 {
		t.Errorf("expected no students after failed enrollment, got %d", len(students))
	}
}

func TestStudentHandler_GetUpdateDelete(t *testing.T) {
	st, a, embedder := newTestApp(t)
	h := NewStudentHandler(st, a)

	created := enrollStudent(t, h, embedder, "R001", "Alice", "CS", 1)

	// Get
	req := httptest.NewRequest(http.MethodGet, "/api/students/"+created.ID, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Update
	body := strings.NewReader(`{"name": "Alice B", "mobile": "5550100"}`)
	req = httptest.NewRequest(http.MethodPut, "/api/students/"+created.ID, body)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var updated studentResponse
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode update response: %v", err)
	}
	if updated.Name != "Alice B" || updated.Mobile != "5550100" {
		t.Errorf("unexpected updated student: %+v", updated)
	}

	// Delete
	req = httptest.NewRequest(http.MethodDelete, "/api/students/"+created.ID, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	// Gone
	req = httptest.NewRequest(http.MethodGet, "/api/students/"+created.ID, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d after delete, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestStudentHandler_NotFound(t *testing.T) {
	st, a, _ := newTestApp(t)
	h := NewStudentHandler(st, a)

	req := httptest.NewRequest(http.MethodGet, "/api/students/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestStudentHandler_ExportCSV(t *testing.T) {
	st, a, embedder := newTestApp(t)
	h := NewStudentHandler(st, a)

	enrollStudent(t, h, embedder, "R001", "Alice", "CS", 1)

	req := httptest.NewRequest(http.MethodGet, "/api/students/export", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected Content-Type text/csv, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "R001") {
		t.Errorf("expected csv to contain R001, got %q", rec.Body.String())
	}
}

func TestCoursesHandler(t *testing.T) {
	st, a, embedder := newTestApp(t)
	studentHandler := NewStudentHandler(st, a)
	enrollStudent(t, studentHandler, embedder, "R001", "Alice", "CS", 1)
	enrollStudent(t, studentHandler, embedder, "R002", "Bob", "EE", 2)

	h := NewCoursesHandler(st)
	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	courses := resp["courses"]
	if len(courses) != 2 || courses[0] != "CS" || courses[1] != "EE" {
		t.Errorf("expected sorted courses [CS EE], got %v", courses)
	}
}
