// Package embed provides face embedding types and the interface to the
// external face-embedding service.
package embed

import "math"

// Dim is the length of a face embedding vector, following the dlib
// face-recognition convention.
const Dim = 128

// Embedding is a fixed-length numeric vector encoding a face's
// identifying features. Two embeddings of the same person are close
// in Euclidean distance.
type Embedding []float64

// Face represents one face detected in a video frame.
type Face struct {
	// Left, Top, Right, Bottom bound the face in frame pixels.
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`

	Embedding Embedding `json:"embedding"`
}

// Distance calculates the Euclidean distance between two embeddings.
// Lower distance means more similar faces. Embeddings of different
// lengths, or empty ones, are corrupt or truncated vectors; they
// return +Inf so they can never look close to anything.
func Distance(a, b Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Confidence converts a match distance into a 0-1 confidence figure.
// Distances of 1.0 or more clamp to zero.
func Confidence(distance float64) float64 {
	c := 1.0 - distance
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Clone returns an independent copy of the embedding.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}
