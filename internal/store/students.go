package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Adey1400/library-management/internal/model"
)

const studentColumns = `id, name, email, roll_no, department, year, semester, joined_date, user_id`

// CreateStudent creates a new student profile. userID optionally links the
// profile to an authentication account.
func CreateStudent(ctx context.Context, db *sql.DB, name, email, rollNo, department string, year, semester int, userID *int64) (*model.Student, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO students (name, email, roll_no, department, year, semester, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, email, rollNo, nullString(department), nullInt(year), nullInt(semester), userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("student with email %q or roll number %q: %w", email, rollNo, ErrDuplicate)
		}
		return nil, fmt.Errorf("creating student: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting student id: %w", err)
	}

	return GetStudent(ctx, db, id)
}

// GetStudent returns a student by ID.
func GetStudent(ctx context.Context, db *sql.DB, id int64) (*model.Student, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	return scanStudent(row)
}

// GetStudentByRoll returns a student by roll number. Staff workflows identify
// students this way.
func GetStudentByRoll(ctx context.Context, db *sql.DB, rollNo string) (*model.Student, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE roll_no = ?`, rollNo)
	return scanStudent(row)
}

// GetStudentByEmail returns a student by email. Profile workflows resolve the
// authenticated identity's email to its student record.
func GetStudentByEmail(ctx context.Context, db *sql.DB, email string) (*model.Student, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE email = ?`, email)
	return scanStudent(row)
}

// ListStudents returns all students ordered by roll number.
func ListStudents(ctx context.Context, db *sql.DB) ([]model.Student, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM students ORDER BY roll_no`)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		s, err := scanStudentRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning student: %w", err)
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// UpdateStudent merges the provided fields into a student profile.
// Nil fields are left untouched.
func UpdateStudent(ctx context.Context, db *sql.DB, id int64, name, department *string, year, semester *int) error {
	var sets []string
	var args []any

	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if department != nil {
		sets = append(sets, "department = ?")
		args = append(args, *department)
	}
	if year != nil {
		sets = append(sets, "year = ?")
		args = append(args, *year)
	}
	if semester != nil {
		sets = append(sets, "semester = ?")
		args = append(args, *semester)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	result, err := db.ExecContext(ctx,
		`UPDATE students SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating student: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("student %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteStudent removes a student and soft-deletes the linked authentication
// account in one transaction. Fails while the student has active loans.
func DeleteStudent(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Write first so the transaction holds the write lock while we check
	// the loan ledger; doubles as the existence check.
	result, err := tx.ExecContext(ctx,
		`UPDATE students SET name = name WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("locking student: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("student %d: %w", id, ErrNotFound)
	}

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE student_id = ? AND status IN (?, ?)`,
		id, model.LoanRequested, model.LoanIssued,
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("checking student loans: %w", err)
	}
	if active > 0 {
		return fmt.Errorf("student %d has %d active loans: %w", id, active, ErrConflict)
	}

	var userID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM students WHERE id = ?`, id).Scan(&userID)
	if err != nil {
		return fmt.Errorf("getting linked account: %w", err)
	}

	// Terminal loans go with the student row via ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting student: %w", err)
	}

	if userID.Valid {
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
			userID.Int64)
		if err != nil {
			return fmt.Errorf("deleting linked account: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing student delete: %w", err)
	}
	return nil
}

// RegisterStudentAccount creates an authentication account and its linked
// student profile in one transaction (both or neither).
func RegisterStudentAccount(ctx context.Context, db *sql.DB, email, passwordHash, firstName, lastName, rollNo, department string, year, semester int) (*model.User, *model.Student, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, role) VALUES (?, ?, ?, ?, ?)`,
		email, passwordHash, firstName, lastName, model.RoleStudent,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("account with email %q: %w", email, ErrDuplicate)
		}
		return nil, nil, fmt.Errorf("creating account: %w", err)
	}
	userID, err := result.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("getting account id: %w", err)
	}

	name := strings.TrimSpace(firstName + " " + lastName)
	result, err = tx.ExecContext(ctx,
		`INSERT INTO students (name, email, roll_no, department, year, semester, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, email, rollNo, nullString(department), nullInt(year), nullInt(semester), userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("student with email %q or roll number %q: %w", email, rollNo, ErrDuplicate)
		}
		return nil, nil, fmt.Errorf("creating student profile: %w", err)
	}
	studentID, err := result.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("getting student id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing registration: %w", err)
	}

	user, err := GetUser(ctx, db, userID)
	if err != nil {
		return nil, nil, err
	}
	student, err := GetStudent(ctx, db, studentID)
	if err != nil {
		return nil, nil, err
	}
	return user, student, nil
}

func scanStudent(row *sql.Row) (*model.Student, error) {
	s, err := scanStudentRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting student: %w", err)
	}
	return s, nil
}

func scanStudentRow(scan func(...any) error) (*model.Student, error) {
	s := &model.Student{}
	var department sql.NullString
	var year, semester sql.NullInt64
	err := scan(&s.ID, &s.Name, &s.Email, &s.RollNo, &department, &year, &semester, &s.JoinedDate, &s.UserID)
	if err != nil {
		return nil, err
	}
	s.Department = department.String
	s.Year = int(year.Int64)
	s.Semester = int(semester.Int64)
	return s, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
