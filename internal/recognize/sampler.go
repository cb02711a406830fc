// Package recognize implements the attendance recognition and decision
// engine: frame sampling, embedding matching, consecutive-match
// confirmation, and idempotent session marking.
package recognize

import "fmt"

// Sampler throttles which camera frames are analyzed. With a stride of N,
// only every Nth frame (by index) is processed, bounding CPU cost when
// many candidates must be compared per frame.
type Sampler struct {
	stride int
}

// NewSampler creates a Sampler with the given stride. A stride of 1
// processes every frame.
func NewSampler(stride int) (*Sampler, error) {
	if stride < 1 {
		return nil, fmt.Errorf("%w: sampler stride must be >= 1, got %d", ErrInvalidConfig, stride)
	}
	return &Sampler{stride: stride}, nil
}

// ShouldProcess reports whether the frame with the given index should be
// analyzed. Pure function of the index and the stride.
func (s *Sampler) ShouldProcess(frameIndex int) bool {
	return frameIndex%s.stride == 0
}

// Stride returns the configured stride.
func (s *Sampler) Stride() int {
	return s.stride
}
