package embed

import "gocv.io/x/gocv"

// Embedder defines the interface to the face-embedding service.
type Embedder interface {
	// DetectFaces analyzes a video frame and returns every detected face
	// with its embedding. Returns an empty slice if no faces are found.
	DetectFaces(frame *gocv.Mat) ([]Face, error)

	// EncodeImage computes the embedding for the single most prominent
	// face in an encoded image (JPEG/PNG bytes). Used at enrollment time.
	EncodeImage(data []byte) (Embedding, error)

	// Close releases any resources held by the embedder.
	Close() error
}

// Config holds configuration options for face detection.
type Config struct {
	// ScriptPath is the location of the embedding service script.
	// Empty means search the usual locations.
	ScriptPath string

	// Upsample is how many times the detector upsamples the frame when
	// searching for small faces. Higher is slower.
	Upsample int

	// Jitter is the number of re-sampled crops averaged per embedding.
	Jitter int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Upsample: 1,
		Jitter:   1,
	}
}
