package app

import (
	"errors"
	"fmt"

	"github.com/sdrao/facemark/internal/recognize"
	"github.com/sdrao/facemark/internal/store"
)

// storeSource adapts the student repository to the engine's
// EncodingSource interface.
type storeSource struct {
	students *store.StudentRepository
}

func (s *storeSource) LoadCandidates(scope recognize.Scope) ([]recognize.Candidate, error) {
	switch scope.Kind {
	case recognize.ScopeAll:
		return s.listEncoded("")

	case recognize.ScopeCourse:
		return s.listEncoded(scope.Course)

	case recognize.ScopeSingle:
		st, err := s.students.GetByRegNo(scope.RegNo)
		if err != nil {
			return nil, fmt.Errorf("student %s: %w", scope.RegNo, err)
		}
		vector, err := s.students.GetEncoding(st.ID)
		if errors.Is(err, store.ErrNotFound) {
			// Enrolled but the stored photo had no usable face; the
			// session reports this as an activation failure.
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []recognize.Candidate{{
			StudentID: st.ID,
			RegNo:     st.RegNo,
			Name:      st.Name,
			Course:    st.Course,
			Embedding: vector,
		}}, nil

	default:
		return nil, fmt.Errorf("unknown scope kind %q", scope.Kind)
	}
}

func (s *storeSource) listEncoded(course string) ([]recognize.Candidate, error) {
	encoded, err := s.students.ListEncoded(course)
	if err != nil {
		return nil, err
	}

	candidates := make([]recognize.Candidate, 0, len(encoded))
	for _, es := range encoded {
		candidates = append(candidates, recognize.Candidate{
			StudentID: es.ID,
			RegNo:     es.RegNo,
			Name:      es.Name,
			Course:    es.Course,
			Embedding: es.Vector,
		})
	}
	return candidates, nil
}

// storeRecorder adapts the attendance repository to the engine's
// Recorder interface. The table's per-day uniqueness makes a repeat
// commit across sessions a silent no-op.
type storeRecorder struct {
	attendance *store.AttendanceRepository
}

func (r *storeRecorder) RecordAttendance(mark recognize.Mark) error {
	_, err := r.attendance.Mark(mark.StudentID, mark.At, mark.Confidence)
	return err
}
