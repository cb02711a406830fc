package app

import (
	"sync"
	"time"
)

// EventType identifies a pipeline event.
type EventType string

const (
	// EventMark is emitted when an identity is committed (or a commit is
	// refused or fails) by the session ledger.
	EventMark EventType = "mark"
	// EventMatch is emitted for each processed frame that matched at
	// least one candidate.
	EventMatch EventType = "match"
	// EventStatus is emitted on mode changes.
	EventStatus EventType = "status"
	// EventScan is emitted when a QR scan resolves a registration number.
	EventScan EventType = "scan"
)

// MatchInfo is the per-face feedback carried by match events.
type MatchInfo struct {
	RegNo      string  `json:"regNo"`
	Name       string  `json:"name"`
	Distance   float64 `json:"distance"`
	Confidence float64 `json:"confidence"`
}

// Event is one observable pipeline occurrence, fanned out to the
// WebSocket clients and the system tray.
type Event struct {
	Type       EventType   `json:"type"`
	At         time.Time   `json:"at"`
	Mode       string      `json:"mode,omitempty"`
	Course     string      `json:"course,omitempty"`
	RegNo      string      `json:"regNo,omitempty"`
	Name       string      `json:"name,omitempty"`
	Outcome    string      `json:"outcome,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	Error      string      `json:"error,omitempty"`
	Matches    []MatchInfo `json:"matches,omitempty"`
	Candidates int         `json:"candidates,omitempty"`
	Marked     int         `json:"marked,omitempty"`
}

// broadcaster fans events out to subscribers without ever blocking the
// pipeline; slow subscribers drop events.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan Event]bool)}
}

// Subscribe returns a buffered event channel and a cancel function.
func (b *broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)

	b.mu.Lock()
	b.subs[ch] = true
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if b.subs[ch] {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber that has buffer space.
func (b *broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
