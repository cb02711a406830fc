package recognize

import (
	"errors"
	"fmt"

	"github.com/sdrao/facemark/internal/embed"
)

// ErrInvalidConfig is returned when a recognition tunable is out of range.
// It is fatal at startup; recognition never starts with a bad config.
var ErrInvalidConfig = errors.New("invalid recognition configuration")

// distanceEpsilon is the floating-point slack within which two candidate
// distances are considered equal. Ties go to the candidate seen first in
// the set's iteration order.
const distanceEpsilon = 1e-9

// MatchResult is the outcome of matching one detected face against the
// candidate set. When Matched is false the face resembled no candidate
// closely enough and Candidate is nil.
type MatchResult struct {
	Matched    bool
	Candidate  *Candidate
	Distance   float64
	Confidence float64
}

// Matcher finds the best candidate for each detected face embedding
// using Euclidean distance and a tolerance threshold.
type Matcher struct {
	tolerance float64
}

// NewMatcher creates a Matcher with the given tolerance. Lower tolerance
// means fewer false positives and more false negatives.
func NewMatcher(tolerance float64) (*Matcher, error) {
	if tolerance <= 0 || tolerance > 1 {
		return nil, fmt.Errorf("%w: tolerance must be in (0, 1], got %v", ErrInvalidConfig, tolerance)
	}
	return &Matcher{tolerance: tolerance}, nil
}

// Tolerance returns the configured tolerance.
func (m *Matcher) Tolerance() float64 {
	return m.tolerance
}

// MatchFrame matches every detected face embedding in a frame against the
// candidate set. An empty or nil candidate set yields a no-match result
// for every face, never an error. Cost is O(faces x candidates), which is
// why course-scoped sessions run faster than whole-roster ones.
func (m *Matcher) MatchFrame(faces []embed.Embedding, set *CandidateSet) []MatchResult {
	results := make([]MatchResult, len(faces))
	for i, face := range faces {
		results[i] = m.matchOne(face, set)
	}
	return results
}

func (m *Matcher) matchOne(face embed.Embedding, set *CandidateSet) MatchResult {
	candidates := set.Candidates()
	if len(candidates) == 0 {
		return MatchResult{}
	}

	bestIdx := 0
	bestDist := embed.Distance(face, candidates[0].Embedding)
	for i := 1; i < len(candidates); i++ {
		d := embed.Distance(face, candidates[i].Embedding)
		// Strictly-smaller beyond epsilon keeps the earlier candidate on
		// equidistant ties.
		if d < bestDist-distanceEpsilon {
			bestIdx = i
			bestDist = d
		}
	}

	if bestDist > m.tolerance {
		return MatchResult{Distance: bestDist, Confidence: embed.Confidence(bestDist)}
	}

	return MatchResult{
		Matched:    true,
		Candidate:  &candidates[bestIdx],
		Distance:   bestDist,
		Confidence: embed.Confidence(bestDist),
	}
}
