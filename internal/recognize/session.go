package recognize

import (
	"fmt"
	"time"

	"github.com/sdrao/facemark/internal/embed"
)

// Mode identifies the active recognition mode.
type Mode string

const (
	// ModeIdle means no candidate set is loaded; frames are ignored.
	ModeIdle Mode = "idle"
	// ModeGroup matches against every enrolled student.
	ModeGroup Mode = "group"
	// ModeCourse matches against the students of one course.
	ModeCourse Mode = "course"
	// ModeSingle matches one fetched student; a deliberate operator
	// action already provided confirmation, so one matching frame marks.
	ModeSingle Mode = "single"
)

// Config holds the recognition tunables. They are set at startup and
// immutable for the duration of a session.
type Config struct {
	// Tolerance is the maximum embedding distance accepted as a match,
	// in (0, 1].
	Tolerance float64

	// RequiredConsec is how many consecutive sampled frames must match
	// before group/course mode commits an identity. Single mode always
	// uses 1.
	RequiredConsec int

	// ProcessEveryN analyzes one frame in N in group/course mode. Single
	// mode processes every frame since the candidate set has size 1.
	ProcessEveryN int

	// GraceFrames is how many sampled frames an identity may go unmatched
	// before its counter state is evicted.
	GraceFrames int
}

// Validate checks every tunable, wrapping ErrInvalidConfig on failure.
func (c Config) Validate() error {
	if c.Tolerance <= 0 || c.Tolerance > 1 {
		return fmt.Errorf("%w: tolerance must be in (0, 1], got %v", ErrInvalidConfig, c.Tolerance)
	}
	if c.RequiredConsec < 1 {
		return fmt.Errorf("%w: required consecutive matches must be >= 1, got %d", ErrInvalidConfig, c.RequiredConsec)
	}
	if c.ProcessEveryN < 1 {
		return fmt.Errorf("%w: process-every-n must be >= 1, got %d", ErrInvalidConfig, c.ProcessEveryN)
	}
	if c.GraceFrames < 0 {
		return fmt.Errorf("%w: grace frames must be >= 0, got %d", ErrInvalidConfig, c.GraceFrames)
	}
	return nil
}

// EncodingSource loads candidate identities and their embeddings for a
// scope. Implemented by the persistence layer.
type EncodingSource interface {
	LoadCandidates(scope Scope) ([]Candidate, error)
}

// MarkEvent reports one ledger decision made while processing a frame.
type MarkEvent struct {
	Candidate  Candidate
	Outcome    MarkOutcome
	Confidence float64
	At         time.Time
	Err        error
}

// FrameReport summarizes what happened to one camera frame.
type FrameReport struct {
	FrameIndex int
	// Processed is false when the sampler dropped the frame or the
	// session is idle.
	Processed bool
	Matches   []MatchResult
	Marks     []MarkEvent
}

// Session is the mode controller: it owns the active candidate set and
// the per-session tracker and ledger, and drives the sampler-matcher-
// tracker-ledger pipeline for each incoming frame. All methods must be
// called from a single goroutine.
type Session struct {
	cfg      Config
	source   EncodingSource
	recorder Recorder

	mode       Mode
	course     string
	target     string // reg no in single mode
	candidates *CandidateSet
	sampler    *Sampler
	matcher    *Matcher
	tracker    *Tracker
	ledger     *Ledger
}

// NewSession creates an idle session. Activating a mode loads candidates
// and starts recognition.
func NewSession(cfg Config, source EncodingSource, recorder Recorder) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	matcher, err := NewMatcher(cfg.Tolerance)
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:      cfg,
		source:   source,
		recorder: recorder,
		mode:     ModeIdle,
		matcher:  matcher,
	}, nil
}

// ActivateGroup loads every enrolled student and starts a group session.
// Any prior tracker and ledger state is discarded.
func (s *Session) ActivateGroup() error {
	return s.activate(ModeGroup, AllScope(), s.cfg.RequiredConsec, s.cfg.ProcessEveryN)
}

// ActivateCourse loads the students of one course and starts a
// course-scoped session.
func (s *Session) ActivateCourse(course string) error {
	if course == "" {
		return fmt.Errorf("course must not be empty")
	}
	if err := s.activate(ModeCourse, CourseScope(course), s.cfg.RequiredConsec, s.cfg.ProcessEveryN); err != nil {
		return err
	}
	s.course = course
	return nil
}

// ActivateSingle loads one student by registration number. Confirmation
// is immediate (one matching frame) and every frame is processed.
func (s *Session) ActivateSingle(regNo string) error {
	if regNo == "" {
		return fmt.Errorf("registration number must not be empty")
	}
	if err := s.activate(ModeSingle, SingleScope(regNo), 1, 1); err != nil {
		return err
	}
	if s.candidates.Len() == 0 {
		s.reset()
		return fmt.Errorf("no usable face encoding for %s", regNo)
	}
	s.target = regNo
	return nil
}

// Deactivate releases the candidate set and returns the session to idle.
func (s *Session) Deactivate() {
	s.reset()
}

func (s *Session) activate(mode Mode, scope Scope, required, stride int) error {
	candidates, err := s.source.LoadCandidates(scope)
	if err != nil {
		return fmt.Errorf("load candidates: %w", err)
	}

	sampler, err := NewSampler(stride)
	if err != nil {
		return err
	}
	tracker, err := NewTracker(required, s.cfg.GraceFrames)
	if err != nil {
		return err
	}

	s.reset()
	s.mode = mode
	s.candidates = NewCandidateSet(scope, candidates)
	s.sampler = sampler
	s.tracker = tracker
	s.ledger = NewLedger(s.recorder)
	return nil
}

func (s *Session) reset() {
	s.mode = ModeIdle
	s.course = ""
	s.target = ""
	s.candidates = nil
	s.sampler = nil
	s.tracker = nil
	s.ledger = nil
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Course returns the active course in course mode, otherwise "".
func (s *Session) Course() string {
	return s.course
}

// Target returns the fetched registration number in single mode.
func (s *Session) Target() string {
	return s.target
}

// CandidateCount returns the size of the active candidate set.
func (s *Session) CandidateCount() int {
	return s.candidates.Len()
}

// MarkedCount returns how many identities were marked this session.
func (s *Session) MarkedCount() int {
	if s.ledger == nil {
		return 0
	}
	return s.ledger.MarkedCount()
}

// ProcessFrame runs one camera frame through the pipeline: sampler gate,
// matcher, confirmation tracker, ledger. Persistence failures are carried
// in the returned mark events rather than halting recognition. Safe to
// interleave with activation calls from the owning goroutine; state
// changes only happen between frames.
func (s *Session) ProcessFrame(frameIndex int, faces []embed.Embedding, now time.Time) FrameReport {
	report := FrameReport{FrameIndex: frameIndex}

	if s.mode == ModeIdle {
		return report
	}
	if !s.sampler.ShouldProcess(frameIndex) {
		return report
	}
	report.Processed = true

	report.Matches = s.matcher.MatchFrame(faces, s.candidates)

	// Best confidence per matched identity on this frame; used for the
	// attendance record when the identity confirms.
	matchedIDs := make([]string, 0, len(report.Matches))
	confidence := make(map[string]float64)
	for _, m := range report.Matches {
		if !m.Matched {
			continue
		}
		id := m.Candidate.StudentID
		if c, ok := confidence[id]; !ok || m.Confidence > c {
			confidence[id] = m.Confidence
		}
		matchedIDs = append(matchedIDs, id)
	}

	for _, id := range s.tracker.Observe(matchedIDs) {
		candidate, ok := s.candidates.ByID(id)
		if !ok {
			continue
		}

		mark := Mark{
			StudentID:  id,
			Course:     candidate.Course,
			Confidence: confidence[id],
			At:         now,
		}
		outcome, err := s.ledger.TryMark(mark)
		report.Marks = append(report.Marks, MarkEvent{
			Candidate:  candidate,
			Outcome:    outcome,
			Confidence: mark.Confidence,
			At:         now,
			Err:        err,
		})

		if outcome == OutcomeFailed {
			// Allow the tracker to fire again so the next confirmed frame
			// retries the commit once.
			if !s.ledger.IsMarked(id) {
				s.tracker.Unconfirm(id)
			}
		}
	}

	return report
}
