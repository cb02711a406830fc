package store

import (
	"database/sql"
	"time"
)

// DateLayout is the storage format for attendance dates.
const DateLayout = "2006-01-02"

// TimeLayout is the storage format for attendance times.
const TimeLayout = "15:04:05"

// Record is one attendance row joined with student details.
type Record struct {
	StudentID  string
	RegNo      string
	Name       string
	Course     string
	Date       string
	Time       string
	Confidence float64
}

// DaySummary is the number of students marked present on one date.
type DaySummary struct {
	Date    string
	Present int
}

// Filter narrows report queries. Zero values mean no constraint.
type Filter struct {
	Date   string // exact date, DateLayout
	Search string // reg no or name substring
	Course string // exact course
}

// AttendanceRepository provides attendance marking and report queries.
type AttendanceRepository struct {
	db *sql.DB
}

// Attendance returns the attendance repository for this store.
func (s *Store) Attendance() *AttendanceRepository {
	return &AttendanceRepository{db: s.db}
}

// Mark records the student present at the given moment. The table's
// per-day uniqueness makes this idempotent across sessions: it returns
// false when the student was already marked on that date.
func (r *AttendanceRepository) Mark(studentID string, at time.Time, confidence float64) (bool, error) {
	result, err := r.db.Exec(
		`INSERT OR IGNORE INTO attendance (student_id, date, time, confidence)
		 VALUES (?, ?, ?, ?)`,
		studentID, at.Format(DateLayout), at.Format(TimeLayout), confidence,
	)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// MarkedOn returns the IDs of students already marked on the given date,
// optionally restricted to one course.
func (r *AttendanceRepository) MarkedOn(date, course string) (map[string]bool, error) {
	query := `SELECT a.student_id FROM attendance a`
	args := []any{date}
	if course != "" {
		query += ` JOIN students s ON s.id = a.student_id WHERE a.date = ? AND s.course = ?`
		args = append(args, course)
	} else {
		query += ` WHERE a.date = ?`
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	marked := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		marked[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return marked, nil
}

// Records returns attendance rows matching the filter, newest first.
func (r *AttendanceRepository) Records(f Filter) ([]*Record, error) {
	query := `SELECT s.id, s.reg_no, s.name, s.course, a.date, a.time, a.confidence
		 FROM attendance a JOIN students s ON s.id = a.student_id`

	var conds []string
	var args []any
	if f.Date != "" {
		conds = append(conds, "a.date = ?")
		args = append(args, f.Date)
	}
	if f.Search != "" {
		conds = append(conds, "(s.reg_no LIKE ? OR s.name LIKE ?)")
		q := "%" + f.Search + "%"
		args = append(args, q, q)
	}
	if f.Course != "" {
		conds = append(conds, "s.course = ?")
		args = append(args, f.Course)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY a.date DESC, a.time DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		err := rows.Scan(&rec.StudentID, &rec.RegNo, &rec.Name, &rec.Course,
			&rec.Date, &rec.Time, &rec.Confidence)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Summary returns per-day present counts, newest first.
func (r *AttendanceRepository) Summary() ([]*DaySummary, error) {
	rows, err := r.db.Query(
		`SELECT date, COUNT(*) FROM attendance GROUP BY date ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*DaySummary
	for rows.Next() {
		s := &DaySummary{}
		if err := rows.Scan(&s.Date, &s.Present); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Dates returns the distinct attendance dates, newest first, capped at
// the given limit (0 means no cap).
func (r *AttendanceRepository) Dates(limit int) ([]string, error) {
	query := `SELECT DISTINCT date FROM attendance ORDER BY date DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}
