package embed

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrNoFace is returned by EncodeImage when the image contains no
// detectable face.
var ErrNoFace = errors.New("no face found in image")

// DlibEmbedder implements Embedder using a Python face_recognition (dlib)
// subprocess. Frames are sent as length-prefixed JPEG bytes and face
// embeddings come back as one JSON line per frame.
type DlibEmbedder struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewDlibEmbedder creates a new dlib embedder. The Python process is
// started lazily on first use.
func NewDlibEmbedder(config Config) (*DlibEmbedder, error) {
	if config.ScriptPath == "" {
		config.ScriptPath = findEmbedScript()
	}
	if config.ScriptPath == "" {
		return nil, fmt.Errorf("embed_service.py not found")
	}

	return &DlibEmbedder{
		config: config,
	}, nil
}

// DetectFaces encodes the frame as JPEG, hands it to the embedding
// service, and returns the detected faces.
func (d *DlibEmbedder) DetectFaces(frame *gocv.Mat) ([]Face, error) {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return d.roundTrip(buf.GetBytes())
}

// EncodeImage computes the embedding for the most prominent face in the
// given encoded image bytes.
func (d *DlibEmbedder) EncodeImage(data []byte) (Embedding, error) {
	faces, err := d.roundTrip(data)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, ErrNoFace
	}

	// The service orders faces by area, largest first.
	return faces[0].Embedding, nil
}

func (d *DlibEmbedder) roundTrip(data []byte) ([]Face, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Faces []Face `json:"faces"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return response.Faces, nil
}

// Close shuts down the Python process.
func (d *DlibEmbedder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *DlibEmbedder) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.config.ScriptPath,
		fmt.Sprintf("--upsample=%d", d.config.Upsample),
		fmt.Sprintf("--jitter=%d", d.config.Jitter))

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start embed service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *DlibEmbedder) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *DlibEmbedder) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(30*time.Second, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findEmbedScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/embed_service.py",
		"../scripts/embed_service.py",
		filepath.Join(execDir, "scripts/embed_service.py"),
		filepath.Join(os.Getenv("HOME"), ".facemark/scripts/embed_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".facemark/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
