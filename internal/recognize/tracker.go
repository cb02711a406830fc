package recognize

import "fmt"

// Tracker smooths out single-frame recognition noise by requiring a
// number of consecutive matching sampled frames before an identity is
// considered confirmed. A single missed frame resets the count to zero;
// non-consecutive matches never accumulate.
type Tracker struct {
	required int
	grace    int

	counts    map[string]int // consecutive matches per identity
	missed    map[string]int // consecutive misses since last match
	confirmed map[string]bool
}

// NewTracker creates a Tracker that confirms an identity after required
// consecutive matches. Identities missing for more than grace sampled
// frames are evicted to bound memory.
func NewTracker(required, grace int) (*Tracker, error) {
	if required < 1 {
		return nil, fmt.Errorf("%w: required consecutive matches must be >= 1, got %d", ErrInvalidConfig, required)
	}
	if grace < 0 {
		return nil, fmt.Errorf("%w: grace window must be >= 0, got %d", ErrInvalidConfig, grace)
	}
	return &Tracker{
		required:  required,
		grace:     grace,
		counts:    make(map[string]int),
		missed:    make(map[string]int),
		confirmed: make(map[string]bool),
	}, nil
}

// Observe processes one sampled frame's set of matched identities and
// returns the identities that became confirmed on this frame. The
// confirmation transition fires at most once per identity per session;
// later frames where the identity keeps matching return nothing for it.
func (t *Tracker) Observe(matched []string) []string {
	seen := make(map[string]bool, len(matched))
	var newlyConfirmed []string

	for _, id := range matched {
		if seen[id] {
			continue
		}
		seen[id] = true

		t.counts[id]++
		t.missed[id] = 0

		if t.counts[id] >= t.required && !t.confirmed[id] {
			t.confirmed[id] = true
			newlyConfirmed = append(newlyConfirmed, id)
		}
	}

	for id := range t.counts {
		if seen[id] {
			continue
		}
		t.counts[id] = 0
		t.missed[id]++
		if t.missed[id] > t.grace {
			delete(t.counts, id)
			delete(t.missed, id)
		}
	}

	return newlyConfirmed
}

// Unconfirm clears the confirmed flag for an identity so the transition
// may fire again. Used when a commit failed and should be retried on the
// next confirmed frame.
func (t *Tracker) Unconfirm(id string) {
	delete(t.confirmed, id)
}

// Count returns the current consecutive-match count for an identity.
// Unseen or evicted identities report zero.
func (t *Tracker) Count(id string) int {
	return t.counts[id]
}

// Confirmed reports whether the identity has reached the confirmed state
// during this session.
func (t *Tracker) Confirmed(id string) bool {
	return t.confirmed[id]
}

// Required returns the configured consecutive-match requirement.
func (t *Tracker) Required() int {
	return t.required
}

// Tracked returns the number of identities currently holding counter
// state. Exposed for observability; eviction keeps this bounded.
func (t *Tracker) Tracked() int {
	return len(t.counts)
}
