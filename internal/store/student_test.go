package store

import (
	"errors"
	"testing"
)

func TestStudentRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Students()

	st := &Student{
		ID:     "student-1",
		RegNo:  "R001",
		Name:   "Alice",
		Course: "CS",
		Mobile: "5550100",
	}

	if err := repo.Create(st); err != nil {
		t.Fatalf("failed to create student: %v", err)
	}
	if st.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set after create")
	}
	if st.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set after create")
	}

	retrieved, err := repo.GetByID("student-1")
	if err != nil {
		t.Fatalf("failed to get student by ID: %v", err)
	}
	if retrieved.RegNo != st.RegNo {
		t.Errorf("RegNo mismatch: got %q, want %q", retrieved.RegNo, st.RegNo)
	}
	if retrieved.Name != st.Name {
		t.Errorf("Name mismatch: got %q, want %q", retrieved.Name, st.Name)
	}
	if retrieved.Course != st.Course {
		t.Errorf("Course mismatch: got %q, want %q", retrieved.Course, st.Course)
	}

	byRegNo, err := repo.GetByRegNo("R001")
	if err != nil {
		t.Fatalf("failed to get student by reg no: %v", err)
	}
	if byRegNo.ID != st.ID {
		t.Errorf("GetByRegNo returned wrong student: got ID %q, want %q", byRegNo.ID, st.ID)
	}
}

func TestStudentRepository_DuplicateRegNo(t *testing.T) {
	s := newTestStore(t)
	repo := s.Students()

	if err := repo.Create(&Student{ID: "s1", RegNo: "R001", Name: "Alice"}); err != nil {
		t.Fatalf("failed to create first student: %v", err)
	}
	if err := repo.Create(&Student{ID: "s2", RegNo: "R001", Name: "Bob"}); err == nil {
		t.Fatal("expected duplicate reg_no to fail")
	}
}

func TestStudentRepository_GetNotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Students()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByRegNo("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStudentRepository_ListAndSearch(t *testing.T) {
	s := newTestStore(t)
	repo := s.Students()

	students := []*Student{
		{ID: "s1", RegNo: "R002", Name: "Bob", Course: "EE"},
		{ID: "s2", RegNo: "R001", Name: "Alice", Course: "CS"},
		{ID: "s3", RegNo: "R003", Name: "Alina", Course: "CS"},
	}
	for _, st := range students {
		if err := repo.Create(st); err != nil {
			t.Fatalf("failed to create student %s: %v", st.RegNo, err)
		}
	}

	all, err := repo.List("")
	if err != nil {
		t.Fatalf("failed to list students: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 students, got %d", len(all))
	}
	// Ordered by registration number.
	if all[0].RegNo != "R001" || all[2].RegNo != "R003" {
		t.Errorf("expected reg no ordering, got %q ... %q", all[0].RegNo, all[2].RegNo)
	}

	// Substring search matches names.
	found, err := repo.List("Ali")
	if err != nil {
		t.Fatalf("failed to search students: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("expected 2 students matching 'Ali', got %d", len(found))
	}

	cs, err := repo.ListByCourse("CS")
	if err != nil {
		t.Fatalf("failed to list by course: %v", err)
	}
	if len(cs) != 2 {
		t.Errorf("expected 2 CS students, got %d", len(cs))
	}

	courses, err := repo.Courses()
	if err != nil {
		t.Fatalf("failed to list courses: %v", err)
	}
	if len(courses) != 2 || courses[0] != "CS" || courses[1] != "EE" {
		t.Errorf("expected sorted courses [CS EE], got %v", courses)
	}
}

func TestStudentRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Students()

	st := &Student{ID: "s1", RegNo: "R001", Name: "Alice"}
	if err := repo.Create(st); err != nil {
		t.Fatalf("failed to create student: %v", err)
	}

	st.Name = "Alice B"
	st.Course = "CS"
	if err := repo.Update(st); err != nil {
		t.Fatalf("failed to update student: %v", err)
	}

	retrieved, err := repo.GetByID("s1")
	if err != nil {
		t.Fatalf("failed to get student: %v", err)
	}
	if retrieved.Name != "Alice B" || retrieved.Course != "CS" {
		t.Errorf("update not persisted: got %q / %q", retrieved.Name, retrieved.Course)
	}

	if err := repo.Update(&Student{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound updating missing student, got %v", err)
	}
}

func TestStudentRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	repo := s.Students()

	st := &Student{ID: "s1", RegNo: "R001", Name: "Alice"}
	if err := repo.Create(st); err != nil {
		t.Fatalf("failed to create student: %v", err)
	}
	if err := repo.SetEncoding("s1", []float64{0.1, 0.2}); err != nil {
		t.Fatalf("failed to set encoding: %v", err)
	}

	if err := repo.Delete("s1"); err != nil {
		t.Fatalf("failed to delete student: %v", err)
	}

	if _, err := repo.GetByID("s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected student gone, got %v", err)
	}
	// The encoding row went with the student.
	if _, err := repo.GetEncoding("s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected encoding gone after delete, got %v", err)
	}

	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting missing student, got %v", err)
	}
}

func TestStudentRepository_Encodings(t *testing.T) {
	s := newTestStore(t)
	repo := s.Students()

	if err := repo.Create(&Student{ID: "s1", RegNo: "R001", Name: "Alice", Course: "CS"}); err != nil {
		t.Fatalf("failed to create student: %v", err)
	}

	vector := []float64{0.25, -0.5, 0.75}
	if err := repo.SetEncoding("s1", vector); err != nil {
		t.Fatalf("failed to set encoding: %v", err)
	}

	got, err := repo.GetEncoding("s1")
	if err != nil {
		t.Fatalf("failed to get encoding: %v", err)
	}
	if len(got) != len(vector) {
		t.Fatalf("expected %d components, got %d", len(vector), len(got))
	}
	for i := range vector {
		if got[i] != vector[i] {
			t.Errorf("component %d mismatch: got %f, want %f", i, got[i], vector[i])
		}
	}

	// Re-enrolling replaces the embedding in place.
	replacement := []float64{1, 2, 3}
	if err := repo.SetEncoding("s1", replacement); err != nil {
		t.Fatalf("failed to replace encoding: %v", err)
	}
	got, err = repo.GetEncoding("s1")
	if err != nil {
		t.Fatalf("failed to get replaced encoding: %v", err)
	}
	if got[0] != 1 {
		t.Errorf("expected replacement encoding, got %v", got)
	}
}

func TestStudentRepository_ListEncoded(t *testing.T) {
	s := newTestStore(t)
	repo := s.Students()

	// Two encoded students and one without an encoding.
	for _, st := range []*Student{
		{ID: "s1", RegNo: "R001", Name: "Alice", Course: "CS"},
		{ID: "s2", RegNo: "R002", Name: "Bob", Course: "EE"},
		{ID: "s3", RegNo: "R003", Name: "Carol", Course: "CS"},
	} {
		if err := repo.Create(st); err != nil {
			t.Fatalf("failed to create student %s: %v", st.RegNo, err)
		}
	}
	if err := repo.SetEncoding("s1", []float64{0.1}); err != nil {
		t.Fatalf("failed to set encoding: %v", err)
	}
	if err := repo.SetEncoding("s2", []float64{0.2}); err != nil {
		t.Fatalf("failed to set encoding: %v", err)
	}

	encoded, err := repo.ListEncoded("")
	if err != nil {
		t.Fatalf("failed to list encoded students: %v", err)
	}
	if len(encoded) != 2 {
		t.Fatalf("expected 2 encoded students, got %d", len(encoded))
	}
	if encoded[0].RegNo != "R001" || encoded[0].Vector[0] != 0.1 {
		t.Errorf("unexpected first encoded student: %+v", encoded[0])
	}

	cs, err := repo.ListEncoded("CS")
	if err != nil {
		t.Fatalf("failed to list encoded CS students: %v", err)
	}
	if len(cs) != 1 || cs[0].RegNo != "R001" {
		t.Errorf("expected only the encoded CS student, got %d", len(cs))
	}
}
