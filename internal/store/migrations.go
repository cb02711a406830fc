package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Students table - one row per enrolled identity
		`CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			reg_no TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			course TEXT NOT NULL DEFAULT '',
			mobile TEXT NOT NULL DEFAULT '',
			photo_path TEXT NOT NULL DEFAULT '',
			qr_path TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Encodings table - the one active face embedding per student
		`CREATE TABLE IF NOT EXISTS encodings (
			student_id TEXT PRIMARY KEY REFERENCES students(id) ON DELETE CASCADE,
			dim INTEGER NOT NULL,
			vector TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Attendance table - at most one record per student per day,
		// enforced here rather than in the recognition engine
		`CREATE TABLE IF NOT EXISTS attendance (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			confidence REAL NOT NULL DEFAULT 0,
			UNIQUE(student_id, date) ON CONFLICT IGNORE
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_students_course ON students(course)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_student_date ON attendance(student_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
