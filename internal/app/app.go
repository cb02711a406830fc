// Package app provides the main application logic for the Facemark
// attendance system: it owns the camera, the embedding service, and the
// recognition session, and drives the frame pipeline.
package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sdrao/facemark/internal/capture"
	"github.com/sdrao/facemark/internal/embed"
	"github.com/sdrao/facemark/internal/qr"
	"github.com/sdrao/facemark/internal/recognize"
	"github.com/sdrao/facemark/internal/store"
)

// Config holds configuration options for the application.
type Config struct {
	Store       *store.Store
	Camera      capture.Camera
	Embedder    embed.Embedder
	Recognition recognize.Config
	CameraID    int
	FPS         int
	PhotoDir    string
	QRDir       string
}

// Status is a snapshot of the pipeline state for UI feedback.
type Status struct {
	Mode       string `json:"mode"`
	Course     string `json:"course,omitempty"`
	Target     string `json:"target,omitempty"`
	Candidates int    `json:"candidates"`
	Marked     int    `json:"marked"`
	Enabled    bool   `json:"enabled"`
	Scanning   bool   `json:"scanning"`
}

// App orchestrates frame capture, face embedding, and the recognition
// session. The mutex serializes every touch of the session, so mode
// switches always land between frames, never mid-frame.
type App struct {
	config   Config
	camera   capture.Camera
	embedder embed.Embedder
	session  *recognize.Session
	events   *broadcaster

	mu         sync.Mutex
	enabled    bool
	scanning   bool
	frameIndex int
	stopCh     chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	camera := config.Camera
	if camera == nil {
		camera = capture.NewCamera(config.CameraID)
	}

	embedder := config.Embedder
	if embedder == nil {
		if dlib, err := embed.NewDlibEmbedder(embed.DefaultConfig()); err == nil {
			embedder = dlib
			log.Println("Using dlib embedding service")
		} else {
			log.Printf("Embedding service not available (%v), using mock embedder", err)
			embedder = embed.NewMockEmbedder()
		}
	}

	session, err := recognize.NewSession(
		config.Recognition,
		&storeSource{students: config.Store.Students()},
		&storeRecorder{attendance: config.Store.Attendance()},
	)
	if err != nil {
		return nil, err
	}

	if config.FPS <= 0 {
		config.FPS = 15
	}

	return &App{
		config:   config,
		camera:   camera,
		embedder: embedder,
		session:  session,
		events:   newBroadcaster(),
		enabled:  true,
	}, nil
}

// SetEnabled enables or disables recognition without touching the
// session state.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether recognition is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Subscribe returns a channel of pipeline events and a cancel function.
func (a *App) Subscribe() (<-chan Event, func()) {
	return a.events.Subscribe()
}

// ActivateGroup starts a group session over every enrolled student.
func (a *App) ActivateGroup() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.session.ActivateGroup(); err != nil {
		return err
	}
	a.frameIndex = 0
	a.scanning = false
	a.publishStatusLocked()
	return nil
}

// ActivateCourse starts a course-scoped session.
func (a *App) ActivateCourse(course string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.session.ActivateCourse(course); err != nil {
		return err
	}
	a.frameIndex = 0
	a.scanning = false
	a.publishStatusLocked()
	return nil
}

// ActivateSingle starts a single-identity session for the given
// registration number.
func (a *App) ActivateSingle(regNo string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.session.ActivateSingle(regNo); err != nil {
		return err
	}
	a.frameIndex = 0
	a.scanning = false
	a.publishStatusLocked()
	return nil
}

// StartScan puts the pipeline into QR scanning: frames are searched for
// a QR code and the decoded registration number activates single mode.
func (a *App) StartScan() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scanning = true
	a.publishStatusLocked()
}

// Deactivate releases the candidate set and returns to idle.
func (a *App) Deactivate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.Deactivate()
	a.scanning = false
	a.publishStatusLocked()
}

// Status returns a snapshot of the pipeline state.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statusLocked()
}

func (a *App) statusLocked() Status {
	return Status{
		Mode:       string(a.session.Mode()),
		Course:     a.session.Course(),
		Target:     a.session.Target(),
		Candidates: a.session.CandidateCount(),
		Marked:     a.session.MarkedCount(),
		Enabled:    a.enabled,
		Scanning:   a.scanning,
	}
}

func (a *App) publishStatusLocked() {
	st := a.statusLocked()
	a.events.Publish(Event{
		Type:       EventStatus,
		At:         time.Now(),
		Mode:       st.Mode,
		Course:     st.Course,
		RegNo:      st.Target,
		Candidates: st.Candidates,
		Marked:     st.Marked,
	})
}

// EnrollRequest carries the details for enrolling a new student.
type EnrollRequest struct {
	RegNo  string
	Name   string
	Course string
	Mobile string
	Photo  []byte // encoded JPEG/PNG of the student's face
}

// Enroll registers a student: stores the photo, computes and stores the
// face embedding, and generates the QR code for the registration number.
func (a *App) Enroll(req EnrollRequest) (*store.Student, error) {
	if req.RegNo == "" || req.Name == "" {
		return nil, fmt.Errorf("registration number and name are required")
	}
	if len(req.Photo) == 0 {
		return nil, fmt.Errorf("a face photo is required")
	}

	embedding, err := a.embedder.EncodeImage(req.Photo)
	if err != nil {
		return nil, fmt.Errorf("encode face: %w", err)
	}

	photoPath := ""
	if a.config.PhotoDir != "" {
		if err := os.MkdirAll(a.config.PhotoDir, 0755); err != nil {
			return nil, fmt.Errorf("create photo directory: %w", err)
		}
		photoPath = filepath.Join(a.config.PhotoDir, req.RegNo+".jpg")
		if err := os.WriteFile(photoPath, req.Photo, 0644); err != nil {
			return nil, fmt.Errorf("save photo: %w", err)
		}
	}

	qrPath := ""
	if a.config.QRDir != "" {
		qrPath, err = qr.Generate(a.config.QRDir, req.RegNo)
		if err != nil {
			return nil, err
		}
	}

	st := &store.Student{
		ID:        uuid.NewString(),
		RegNo:     req.RegNo,
		Name:      req.Name,
		Course:    req.Course,
		Mobile:    req.Mobile,
		PhotoPath: photoPath,
		QRPath:    qrPath,
	}
	if err := a.config.Store.Students().Create(st); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	if err := a.config.Store.Students().SetEncoding(st.ID, embedding); err != nil {
		return nil, fmt.Errorf("store encoding: %w", err)
	}

	return st, nil
}

// Start begins the frame pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Recognition pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	a.session.Deactivate()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	if a.embedder != nil {
		if err := a.embedder.Close(); err != nil {
			log.Printf("Error closing embedder: %v", err)
		}
	}

	log.Println("Recognition pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Embedder returns the face embedder.
func (a *App) Embedder() embed.Embedder {
	return a.embedder
}

// Store returns the persistence store.
func (a *App) Store() *store.Store {
	return a.config.Store
}
