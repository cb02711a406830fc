package app

import (
	"errors"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/sdrao/facemark/internal/embed"
	"github.com/sdrao/facemark/internal/qr"
	"github.com/sdrao/facemark/internal/recognize"
)

// runPipeline is the main loop that feeds camera frames through the
// recognition engine.
//
// Pipeline logic:
// 1. Tick at the configured FPS; frames that arrive faster are dropped,
//    never queued.
// 2. In QR-scan state, look for a QR code and switch to single mode on a hit.
// 3. Otherwise detect face embeddings and hand them to the session, which
//    applies its own sampling stride, matching, confirmation, and marking.
// 4. Fan out match and mark events to subscribers.
//
// All session access happens under the app mutex, so a mode switch from
// the HTTP API always lands between frames.
func (a *App) runPipeline(stopCh <-chan struct{}) {
	interval := time.Second / time.Duration(a.config.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			a.handleFrame(frame)
			frame.Close()
		}
	}
}

func (a *App) handleFrame(frame *gocv.Mat) {
	a.mu.Lock()
	scanning := a.scanning
	idle := a.session.Mode() == recognize.ModeIdle
	a.mu.Unlock()

	if scanning {
		a.scanFrame(frame)
		return
	}
	if idle {
		return
	}

	faces, err := a.embedder.DetectFaces(frame)
	if err != nil {
		log.Printf("Error detecting faces: %v", err)
		return
	}

	embeddings := make([]embed.Embedding, len(faces))
	for i, f := range faces {
		embeddings[i] = f.Embedding
	}

	a.mu.Lock()
	index := a.frameIndex
	a.frameIndex++
	report := a.session.ProcessFrame(index, embeddings, time.Now())
	a.mu.Unlock()

	a.publishReport(report)
}

// scanFrame looks for a QR code in the frame and activates single mode
// for the decoded registration number.
func (a *App) scanFrame(frame *gocv.Mat) {
	img, err := frame.ToImage()
	if err != nil {
		log.Printf("Error converting frame: %v", err)
		return
	}

	regNo, err := qr.Decode(img)
	if err != nil {
		if !errors.Is(err, qr.ErrNoCode) {
			log.Printf("Error decoding qr: %v", err)
		}
		return
	}

	a.events.Publish(Event{Type: EventScan, At: time.Now(), RegNo: regNo})

	if err := a.ActivateSingle(regNo); err != nil {
		log.Printf("QR scan: cannot activate %s: %v", regNo, err)
	}
}

func (a *App) publishReport(report recognize.FrameReport) {
	if !report.Processed {
		return
	}

	var matches []MatchInfo
	for _, m := range report.Matches {
		if !m.Matched {
			continue
		}
		matches = append(matches, MatchInfo{
			RegNo:      m.Candidate.RegNo,
			Name:       m.Candidate.Name,
			Distance:   m.Distance,
			Confidence: m.Confidence,
		})
	}
	if len(matches) > 0 {
		a.events.Publish(Event{Type: EventMatch, At: time.Now(), Matches: matches})
	}

	for _, mark := range report.Marks {
		ev := Event{
			Type:       EventMark,
			At:         mark.At,
			RegNo:      mark.Candidate.RegNo,
			Name:       mark.Candidate.Name,
			Course:     mark.Candidate.Course,
			Outcome:    string(mark.Outcome),
			Confidence: mark.Confidence,
		}
		if mark.Err != nil {
			ev.Error = mark.Err.Error()
			log.Printf("Attendance write failed for %s: %v", mark.Candidate.RegNo, mark.Err)
		} else if mark.Outcome == recognize.OutcomeCommitted {
			log.Printf("Marked present: %s (%.1f%%)", mark.Candidate.Label(), mark.Confidence*100)
		}
		a.events.Publish(ev)
	}
}
