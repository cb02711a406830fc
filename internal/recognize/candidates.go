package recognize

import (
	"fmt"

	"github.com/sdrao/facemark/internal/embed"
)

// ScopeKind selects which identities are eligible for matching.
type ScopeKind string

const (
	// ScopeAll matches against every enrolled student (group mode).
	ScopeAll ScopeKind = "all"
	// ScopeCourse matches against the students of one course.
	ScopeCourse ScopeKind = "course"
	// ScopeSingle matches against a single student.
	ScopeSingle ScopeKind = "single"
)

// Scope describes the candidate universe for a recognition session.
type Scope struct {
	Kind   ScopeKind
	Course string // set when Kind == ScopeCourse
	RegNo  string // set when Kind == ScopeSingle
}

// AllScope returns a scope covering every enrolled student.
func AllScope() Scope {
	return Scope{Kind: ScopeAll}
}

// CourseScope returns a scope covering the students of one course.
func CourseScope(course string) Scope {
	return Scope{Kind: ScopeCourse, Course: course}
}

// SingleScope returns a scope covering one student by registration number.
func SingleScope(regNo string) Scope {
	return Scope{Kind: ScopeSingle, RegNo: regNo}
}

// Candidate is one enrolled identity eligible for matching.
type Candidate struct {
	StudentID string
	RegNo     string
	Name      string
	Course    string
	Embedding embed.Embedding
}

// Label returns the display label used in match feedback.
func (c Candidate) Label() string {
	if c.Name == "" {
		return c.RegNo
	}
	return fmt.Sprintf("%s | %s", c.RegNo, c.Name)
}

// CandidateSet is the set of candidates the matcher may consider.
// Iteration order is the load order and is stable for the lifetime of
// the set, which makes equidistant tie-breaks deterministic.
type CandidateSet struct {
	scope      Scope
	candidates []Candidate
	byID       map[string]int
}

// NewCandidateSet builds a candidate set preserving the given order.
func NewCandidateSet(scope Scope, candidates []Candidate) *CandidateSet {
	s := &CandidateSet{
		scope:      scope,
		candidates: candidates,
		byID:       make(map[string]int, len(candidates)),
	}
	for i, c := range candidates {
		if _, ok := s.byID[c.StudentID]; !ok {
			s.byID[c.StudentID] = i
		}
	}
	return s
}

// Scope returns the scope this set was loaded for.
func (s *CandidateSet) Scope() Scope {
	return s.scope
}

// Len returns the number of candidates.
func (s *CandidateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.candidates)
}

// Candidates returns the candidates in stable iteration order.
func (s *CandidateSet) Candidates() []Candidate {
	if s == nil {
		return nil
	}
	return s.candidates
}

// ByID returns the candidate with the given student ID.
func (s *CandidateSet) ByID(studentID string) (Candidate, bool) {
	if s == nil {
		return Candidate{}, false
	}
	i, ok := s.byID[studentID]
	if !ok {
		return Candidate{}, false
	}
	return s.candidates[i], true
}
