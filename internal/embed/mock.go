package embed

import (
	"math"

	"gocv.io/x/gocv"
)

// MockEmbedder is a test implementation of the Embedder interface.
// It allows tests to control the detection results.
type MockEmbedder struct {
	faces []Face
	image Embedding
	err   error
}

// NewMockEmbedder creates a new MockEmbedder instance.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// SetFaces sets the faces that will be returned by DetectFaces.
func (m *MockEmbedder) SetFaces(faces []Face) {
	m.faces = faces
}

// SetImageEmbedding sets the embedding returned by EncodeImage.
func (m *MockEmbedder) SetImageEmbedding(e Embedding) {
	m.image = e
}

// SetError sets the error that will be returned by DetectFaces.
func (m *MockEmbedder) SetError(err error) {
	m.err = err
}

// DetectFaces returns the pre-configured faces or error.
func (m *MockEmbedder) DetectFaces(frame *gocv.Mat) ([]Face, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// EncodeImage returns the pre-configured image embedding.
func (m *MockEmbedder) EncodeImage(data []byte) (Embedding, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.image == nil {
		return nil, ErrNoFace
	}
	return m.image, nil
}

// Close is a no-op for the mock embedder.
func (m *MockEmbedder) Close() error {
	return nil
}

// FixtureEmbedding returns a deterministic unit-length embedding derived
// from the given seed. Different seeds produce embeddings far apart, so
// tests can treat each seed as a distinct person.
func FixtureEmbedding(seed int) Embedding {
	e := make(Embedding, Dim)
	var norm float64
	for i := range e {
		// A fixed pseudo-random pattern, stable across runs.
		v := math.Sin(float64(seed*31+i*7) * 0.73)
		e[i] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range e {
		e[i] /= norm
	}
	return e
}

// Perturb returns a copy of e shifted so that its Euclidean distance
// from the original is exactly d. Useful for building frames at a known
// match distance.
func Perturb(e Embedding, d float64) Embedding {
	out := e.Clone()
	step := d / math.Sqrt(float64(len(out)))
	for i := range out {
		out[i] += step
	}
	return out
}
