package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Student represents an enrolled identity. Students are created by
// enrollment and never mutated by the recognition engine.
type Student struct {
	ID        string
	RegNo     string
	Name      string
	Course    string
	Mobile    string
	PhotoPath string
	QRPath    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StudentRepository provides CRUD operations for students and their
// face encodings.
type StudentRepository struct {
	db *sql.DB
}

// Students returns the student repository for this store.
func (s *Store) Students() *StudentRepository {
	return &StudentRepository{db: s.db}
}

// Create inserts a new student into the database.
func (r *StudentRepository) Create(st *Student) error {
	now := time.Now()
	st.CreatedAt = now
	st.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO students (id, reg_no, name, course, mobile, photo_path, qr_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.RegNo, st.Name, st.Course, st.Mobile, st.PhotoPath, st.QRPath, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

const studentColumns = `id, reg_no, name, course, mobile, photo_path, qr_path, created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }) (*Student, error) {
	st := &Student{}
	err := row.Scan(&st.ID, &st.RegNo, &st.Name, &st.Course, &st.Mobile,
		&st.PhotoPath, &st.QRPath, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(id string) (*Student, error) {
	row := r.db.QueryRow(
		`SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	return scanStudent(row)
}

// GetByRegNo retrieves a student by registration number.
func (r *StudentRepository) GetByRegNo(regNo string) (*Student, error) {
	row := r.db.QueryRow(
		`SELECT `+studentColumns+` FROM students WHERE reg_no = ?`, regNo)
	return scanStudent(row)
}

// List retrieves all students ordered by registration number. A search
// term filters by registration number or name substring; empty returns
// everything.
func (r *StudentRepository) List(search string) ([]*Student, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if search != "" {
		q := "%" + search + "%"
		rows, err = r.db.Query(
			`SELECT `+studentColumns+` FROM students
			 WHERE reg_no LIKE ? OR name LIKE ? ORDER BY reg_no`, q, q)
	} else {
		rows, err = r.db.Query(
			`SELECT ` + studentColumns + ` FROM students ORDER BY reg_no`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStudents(rows)
}

// ListByCourse retrieves the students of one course ordered by
// registration number.
func (r *StudentRepository) ListByCourse(course string) ([]*Student, error) {
	rows, err := r.db.Query(
		`SELECT `+studentColumns+` FROM students WHERE course = ? ORDER BY reg_no`, course)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStudents(rows)
}

func collectStudents(rows *sql.Rows) ([]*Student, error) {
	var students []*Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return students, nil
}

// Courses returns the distinct non-empty course names, sorted.
func (r *StudentRepository) Courses() ([]string, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT course FROM students
		 WHERE course IS NOT NULL AND TRIM(course) <> '' ORDER BY course`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}

// Update updates an existing student.
func (r *StudentRepository) Update(st *Student) error {
	st.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE students SET reg_no = ?, name = ?, course = ?, mobile = ?,
		 photo_path = ?, qr_path = ?, updated_at = ? WHERE id = ?`,
		st.RegNo, st.Name, st.Course, st.Mobile, st.PhotoPath, st.QRPath, st.UpdatedAt, st.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a student and, via cascade, their encoding and
// attendance records.
func (r *StudentRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetEncoding stores or replaces the student's active face embedding.
func (r *StudentRepository) SetEncoding(studentID string, vector []float64) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal encoding: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO encodings (student_id, dim, vector, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(student_id) DO UPDATE SET dim = excluded.dim,
		 vector = excluded.vector, updated_at = excluded.updated_at`,
		studentID, len(vector), string(data), time.Now(),
	)
	return err
}

// GetEncoding retrieves the student's active face embedding.
func (r *StudentRepository) GetEncoding(studentID string) ([]float64, error) {
	var data string
	err := r.db.QueryRow(
		`SELECT vector FROM encodings WHERE student_id = ?`, studentID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var vector []float64
	if err := json.Unmarshal([]byte(data), &vector); err != nil {
		return nil, fmt.Errorf("unmarshal encoding: %w", err)
	}
	return vector, nil
}

// EncodedStudent is a student joined with their stored face embedding.
type EncodedStudent struct {
	Student
	Vector []float64
}

// ListEncoded returns every student that has a stored embedding,
// optionally filtered to one course, ordered by registration number.
// Students without an embedding are skipped, not errors.
func (r *StudentRepository) ListEncoded(course string) ([]*EncodedStudent, error) {
	query := `SELECT s.id, s.reg_no, s.name, s.course, s.mobile, s.photo_path,
		 s.qr_path, s.created_at, s.updated_at, e.vector
		 FROM students s JOIN encodings e ON e.student_id = s.id`
	args := []any{}
	if course != "" {
		query += ` WHERE s.course = ?`
		args = append(args, course)
	}
	query += ` ORDER BY s.reg_no`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EncodedStudent
	for rows.Next() {
		es := &EncodedStudent{}
		var data string
		err := rows.Scan(&es.ID, &es.RegNo, &es.Name, &es.Course, &es.Mobile,
			&es.PhotoPath, &es.QRPath, &es.CreatedAt, &es.UpdatedAt, &data)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &es.Vector); err != nil {
			return nil, fmt.Errorf("unmarshal encoding for %s: %w", es.RegNo, err)
		}
		out = append(out, es)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
