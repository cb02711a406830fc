package store

import (
	"testing"
	"time"
)

func seedStudent(t *testing.T, s *Store, id, regNo, name, course string) {
	t.Helper()
	err := s.Students().Create(&Student{ID: id, RegNo: regNo, Name: name, Course: course})
	if err != nil {
		t.Fatalf("failed to seed student %s: %v", regNo, err)
	}
}

func TestAttendanceRepository_MarkOncePerDay(t *testing.T) {
	s := newTestStore(t)
	seedStudent(t, s, "s1", "R001", "Alice", "CS")
	repo := s.Attendance()

	at := time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)

	inserted, err := repo.Mark("s1", at, 0.82)
	if err != nil {
		t.Fatalf("failed to mark attendance: %v", err)
	}
	if !inserted {
		t.Fatal("expected first mark to insert a row")
	}

	// Marking again on the same date is a silent no-op.
	inserted, err = repo.Mark("s1", at.Add(2*time.Hour), 0.90)
	if err != nil {
		t.Fatalf("repeat mark errored: %v", err)
	}
	if inserted {
		t.Fatal("expected repeat mark on the same day to be ignored")
	}

	// A different day inserts a fresh row.
	inserted, err = repo.Mark("s1", at.AddDate(0, 0, 1), 0.75)
	if err != nil {
		t.Fatalf("next-day mark errored: %v", err)
	}
	if !inserted {
		t.Fatal("expected next-day mark to insert a row")
	}

	records, err := repo.Records(Filter{})
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestAttendanceRepository_RecordFields(t *testing.T) {
	s := newTestStore(t)
	seedStudent(t, s, "s1", "R001", "Alice", "CS")
	repo := s.Attendance()

	at := time.Date(2026, 3, 10, 9, 15, 30, 0, time.UTC)
	if _, err := repo.Mark("s1", at, 0.82); err != nil {
		t.Fatalf("failed to mark attendance: %v", err)
	}

	records, err := repo.Records(Filter{})
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.RegNo != "R001" || rec.Name != "Alice" || rec.Course != "CS" {
		t.Errorf("unexpected student fields: %+v", rec)
	}
	if rec.Date != "2026-03-10" {
		t.Errorf("expected date 2026-03-10, got %q", rec.Date)
	}
	if rec.Time != "09:15:30" {
		t.Errorf("expected time 09:15:30, got %q", rec.Time)
	}
	if rec.Confidence != 0.82 {
		t.Errorf("expected confidence 0.82, got %f", rec.Confidence)
	}
}

func TestAttendanceRepository_RecordFilters(t *testing.T) {
	s := newTestStore(t)
	seedStudent(t, s, "s1", "R001", "Alice", "CS")
	seedStudent(t, s, "s2", "R002", "Bob", "EE")
	repo := s.Attendance()

	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	for _, m := range []struct {
		id string
		at time.Time
	}{
		{"s1", day1}, {"s2", day1}, {"s1", day2},
	} {
		if _, err := repo.Mark(m.id, m.at, 0.8); err != nil {
			t.Fatalf("failed to mark %s: %v", m.id, err)
		}
	}

	byDate, err := repo.Records(Filter{Date: "2026-03-10"})
	if err != nil {
		t.Fatalf("failed to filter by date: %v", err)
	}
	if len(byDate) != 2 {
		t.Errorf("expected 2 records on day 1, got %d", len(byDate))
	}

	bySearch, err := repo.Records(Filter{Search: "Ali"})
	if err != nil {
		t.Fatalf("failed to filter by search: %v", err)
	}
	if len(bySearch) != 2 {
		t.Errorf("expected 2 records for Alice, got %d", len(bySearch))
	}

	byCourse, err := repo.Records(Filter{Course: "EE"})
	if err != nil {
		t.Fatalf("failed to filter by course: %v", err)
	}
	if len(byCourse) != 1 || byCourse[0].RegNo != "R002" {
		t.Errorf("expected only Bob's record for EE, got %d", len(byCourse))
	}

	combined, err := repo.Records(Filter{Date: "2026-03-11", Course: "CS"})
	if err != nil {
		t.Fatalf("failed to filter combined: %v", err)
	}
	if len(combined) != 1 || combined[0].Date != "2026-03-11" {
		t.Errorf("expected 1 CS record on day 2, got %d", len(combined))
	}
}

func TestAttendanceRepository_MarkedOn(t *testing.T) {
	s := newTestStore(t)
	seedStudent(t, s, "s1", "R001", "Alice", "CS")
	seedStudent(t, s, "s2", "R002", "Bob", "EE")
	repo := s.Attendance()

	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if _, err := repo.Mark("s1", at, 0.8); err != nil {
		t.Fatalf("failed to mark s1: %v", err)
	}
	if _, err := repo.Mark("s2", at, 0.8); err != nil {
		t.Fatalf("failed to mark s2: %v", err)
	}

	marked, err := repo.MarkedOn("2026-03-10", "")
	if err != nil {
		t.Fatalf("failed to query marked: %v", err)
	}
	if len(marked) != 2 || !marked["s1"] || !marked["s2"] {
		t.Errorf("expected both students marked, got %v", marked)
	}

	csOnly, err := repo.MarkedOn("2026-03-10", "CS")
	if err != nil {
		t.Fatalf("failed to query marked by course: %v", err)
	}
	if len(csOnly) != 1 || !csOnly["s1"] {
		t.Errorf("expected only s1 marked for CS, got %v", csOnly)
	}
}

func TestAttendanceRepository_SummaryAndDates(t *testing.T) {
	s := newTestStore(t)
	seedStudent(t, s, "s1", "R001", "Alice", "CS")
	seedStudent(t, s, "s2", "R002", "Bob", "EE")
	repo := s.Attendance()

	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	if _, err := repo.Mark("s1", day1, 0.8); err != nil {
		t.Fatalf("failed to mark: %v", err)
	}
	if _, err := repo.Mark("s2", day1, 0.8); err != nil {
		t.Fatalf("failed to mark: %v", err)
	}
	if _, err := repo.Mark("s1", day2, 0.8); err != nil {
		t.Fatalf("failed to mark: %v", err)
	}

	summaries, err := repo.Summary()
	if err != nil {
		t.Fatalf("failed to summarize: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summary rows, got %d", len(summaries))
	}
	// Newest first.
	if summaries[0].Date != "2026-03-11" || summaries[0].Present != 1 {
		t.Errorf("unexpected first summary row: %+v", summaries[0])
	}
	if summaries[1].Date != "2026-03-10" || summaries[1].Present != 2 {
		t.Errorf("unexpected second summary row: %+v", summaries[1])
	}

	dates, err := repo.Dates(0)
	if err != nil {
		t.Fatalf("failed to list dates: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2026-03-11" {
		t.Errorf("expected dates newest first, got %v", dates)
	}

	limited, err := repo.Dates(1)
	if err != nil {
		t.Fatalf("failed to list limited dates: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 date with limit, got %d", len(limited))
	}
}
