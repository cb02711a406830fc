package recognize

import "time"

// MarkOutcome is the result of attempting to mark an identity present.
type MarkOutcome string

const (
	// OutcomeCommitted means a new attendance record was emitted.
	OutcomeCommitted MarkOutcome = "committed"
	// OutcomeAlreadyMarked means the identity was marked earlier in this
	// session; no record was emitted.
	OutcomeAlreadyMarked MarkOutcome = "already_marked"
	// OutcomeFailed means the persistence collaborator rejected the write.
	// The first failure leaves the identity unmarked so the next confirmed
	// frame retries; a second failure parks the identity and the session
	// continues without it.
	OutcomeFailed MarkOutcome = "failed"
)

// Mark is one attendance commit forwarded to the persistence collaborator.
type Mark struct {
	StudentID  string
	Course     string
	Confidence float64
	At         time.Time
}

// Recorder is the external persistence collaborator. It owns durability
// and the at-most-once-per-day constraint; the Ledger only guarantees
// at-most-once per session.
type Recorder interface {
	RecordAttendance(mark Mark) error
}

// Ledger tracks which identities have already been marked present during
// the current session. It must only ever be touched from the single
// goroutine that owns the session; it performs no locking of its own.
type Ledger struct {
	recorder Recorder
	marked   map[string]bool
	failures map[string]int
}

// NewLedger creates an empty Ledger writing through the given recorder.
func NewLedger(recorder Recorder) *Ledger {
	return &Ledger{
		recorder: recorder,
		marked:   make(map[string]bool),
		failures: make(map[string]int),
	}
}

// TryMark marks the identity present if it has not been marked in this
// session. Calling it repeatedly for the same identity emits at most one
// attendance record.
func (l *Ledger) TryMark(mark Mark) (MarkOutcome, error) {
	if l.marked[mark.StudentID] {
		return OutcomeAlreadyMarked, nil
	}

	if err := l.recorder.RecordAttendance(mark); err != nil {
		l.failures[mark.StudentID]++
		if l.failures[mark.StudentID] >= 2 {
			// Give up on this identity for the rest of the session so a
			// persistence outage cannot stall the pipeline with retries.
			l.marked[mark.StudentID] = true
		}
		return OutcomeFailed, err
	}

	l.marked[mark.StudentID] = true
	delete(l.failures, mark.StudentID)
	return OutcomeCommitted, nil
}

// IsMarked reports whether the identity was already marked this session.
func (l *Ledger) IsMarked(studentID string) bool {
	return l.marked[studentID]
}

// MarkedCount returns how many identities were marked this session.
func (l *Ledger) MarkedCount() int {
	return len(l.marked)
}
