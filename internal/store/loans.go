package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adey1400/library-management/internal/model"
)

// LoanPeriodDays is the fixed loan period applied when a loan is issued.
const LoanPeriodDays = 14

// dueDateModifier is the SQLite date() modifier for the loan period.
var dueDateModifier = fmt.Sprintf("+%d days", LoanPeriodDays)

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CountActiveLoans returns the number of loans for a book in the requested
// or issued state. These count against the book's copy limit.
func CountActiveLoans(ctx context.Context, q rowQuerier, bookID int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE book_id = ? AND status IN (?, ?)`,
		bookID, model.LoanRequested, model.LoanIssued,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting active loans: %w", err)
	}
	return count, nil
}

// studentRef identifies a student by internal ID or by roll number.
type studentRef struct {
	id     int64
	rollNo string
}

// RequestLoan creates a requested loan for a student identified by ID.
func RequestLoan(ctx context.Context, db *sql.DB, studentID, bookID int64) (*model.Loan, error) {
	return createLoan(ctx, db, studentRef{id: studentID}, bookID, false)
}

// RequestLoanByRoll creates a requested loan for a student identified by
// roll number.
func RequestLoanByRoll(ctx context.Context, db *sql.DB, rollNo string, bookID int64) (*model.Loan, error) {
	return createLoan(ctx, db, studentRef{rollNo: rollNo}, bookID, false)
}

// IssueLoan creates a loan directly in the issued state (staff walk-up
// issuance, skipping the request/approve handshake).
func IssueLoan(ctx context.Context, db *sql.DB, studentID, bookID int64) (*model.Loan, error) {
	return createLoan(ctx, db, studentRef{id: studentID}, bookID, true)
}

// IssueLoanByRoll is IssueLoan for a student identified by roll number.
func IssueLoanByRoll(ctx context.Context, db *sql.DB, rollNo string, bookID int64) (*model.Loan, error) {
	return createLoan(ctx, db, studentRef{rollNo: rollNo}, bookID, true)
}

// createLoan runs the availability check and the insert in one write
// transaction. Both identity paths (ID and roll number) share it, so the
// check is identical for either.
func createLoan(ctx context.Context, db *sql.DB, ref studentRef, bookID int64, direct bool) (*model.Loan, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Write to the book row first: the transaction takes the write lock
	// for the rest of the check-and-insert, so two concurrent requests
	// for the last copy serialize here. Doubles as the existence check.
	result, err := tx.ExecContext(ctx,
		`UPDATE books SET updated_at = updated_at WHERE id = ?`, bookID)
	if err != nil {
		return nil, fmt.Errorf("locking book: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("book %d: %w", bookID, ErrNotFound)
	}

	var studentID int64
	if ref.rollNo != "" {
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM students WHERE roll_no = ?`, ref.rollNo).Scan(&studentID)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("student with roll number %q: %w", ref.rollNo, ErrNotFound)
		}
	} else {
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM students WHERE id = ?`, ref.id).Scan(&studentID)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("student %d: %w", ref.id, ErrNotFound)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("resolving student: %w", err)
	}

	var copies int
	err = tx.QueryRowContext(ctx,
		`SELECT copies FROM books WHERE id = ?`, bookID).Scan(&copies)
	if err != nil {
		return nil, fmt.Errorf("getting book copies: %w", err)
	}

	active, err := CountActiveLoans(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if active >= copies {
		return nil, fmt.Errorf("book %d (%d of %d copies out): %w", bookID, active, copies, ErrUnavailable)
	}

	if direct {
		result, err = tx.ExecContext(ctx,
			`INSERT INTO loans (student_id, book_id, status, issue_date, due_date)
			 VALUES (?, ?, ?, date('now'), date('now', ?))`,
			studentID, bookID, model.LoanIssued, dueDateModifier,
		)
	} else {
		result, err = tx.ExecContext(ctx,
			`INSERT INTO loans (student_id, book_id, status, request_date)
			 VALUES (?, ?, ?, date('now'))`,
			studentID, bookID, model.LoanRequested,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("creating loan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting loan id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing loan: %w", err)
	}

	return GetLoan(ctx, db, id)
}

// ApproveLoan transitions a requested loan to issued and stamps the issue
// and due dates.
func ApproveLoan(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE loans SET status = ?, issue_date = date('now'), due_date = date('now', ?)
		 WHERE id = ? AND status = ?`,
		model.LoanIssued, dueDateModifier, id, model.LoanRequested,
	)
	if err != nil {
		return fmt.Errorf("approving loan: %w", err)
	}
	return classifyTransition(ctx, db, result, id, model.LoanRequested)
}

// RejectLoan transitions a requested loan to rejected. Terminal.
func RejectLoan(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE loans SET status = ? WHERE id = ? AND status = ?`,
		model.LoanRejected, id, model.LoanRequested,
	)
	if err != nil {
		return fmt.Errorf("rejecting loan: %w", err)
	}
	return classifyTransition(ctx, db, result, id, model.LoanRequested)
}

// ReturnLoan transitions an issued loan to returned and stamps the return
// date. Terminal.
func ReturnLoan(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE loans SET status = ?, return_date = date('now') WHERE id = ? AND status = ?`,
		model.LoanReturned, id, model.LoanIssued,
	)
	if err != nil {
		return fmt.Errorf("returning loan: %w", err)
	}
	return classifyTransition(ctx, db, result, id, model.LoanIssued)
}

// classifyTransition turns a zero-row guarded update into the right error:
// the loan is either missing or not in the state the transition requires.
func classifyTransition(ctx context.Context, db *sql.DB, result sql.Result, id int64, want string) error {
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}
	loan, err := GetLoan(ctx, db, id)
	if err != nil {
		return err
	}
	if loan == nil {
		return fmt.Errorf("loan %d: %w", id, ErrNotFound)
	}
	return fmt.Errorf("loan %d is %s, not %s: %w", id, loan.Status, want, ErrInvalidState)
}

const loanColumns = `l.id, l.student_id, l.book_id, l.status,
	        l.request_date, l.issue_date, l.due_date, l.return_date,
	        s.name AS student_name, s.roll_no, b.title AS book_title, b.author AS book_author`

const loanJoins = ` FROM loans l
	 JOIN students s ON s.id = l.student_id
	 JOIN books b ON b.id = l.book_id`

// GetLoan returns a loan by ID with joined student and book fields.
func GetLoan(ctx context.Context, db *sql.DB, id int64) (*model.Loan, error) {
	l := &model.Loan{}
	err := db.QueryRowContext(ctx,
		`SELECT `+loanColumns+loanJoins+` WHERE l.id = ?`, id,
	).Scan(&l.ID, &l.StudentID, &l.BookID, &l.Status,
		&l.RequestDate, &l.IssueDate, &l.DueDate, &l.ReturnDate,
		&l.StudentName, &l.RollNo, &l.BookTitle, &l.BookAuthor)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting loan: %w", err)
	}
	return l, nil
}

// ListLoans returns all loans, optionally filtered by status.
func ListLoans(ctx context.Context, db *sql.DB, status string) ([]model.Loan, error) {
	query := `SELECT ` + loanColumns + loanJoins
	var args []any

	if status != "" {
		query += ` WHERE l.status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY l.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

// ListLoansForStudent returns a student's loan history.
func ListLoansForStudent(ctx context.Context, db *sql.DB, studentID int64) ([]model.Loan, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+loanColumns+loanJoins+` WHERE l.student_id = ? ORDER BY l.id DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing student loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

// ListLoansForStudentByRoll returns the loan history for a roll number.
func ListLoansForStudentByRoll(ctx context.Context, db *sql.DB, rollNo string) ([]model.Loan, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+loanColumns+loanJoins+` WHERE s.roll_no = ? ORDER BY l.id DESC`,
		rollNo,
	)
	if err != nil {
		return nil, fmt.Errorf("listing student loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

func scanLoans(rows *sql.Rows) ([]model.Loan, error) {
	var loans []model.Loan
	for rows.Next() {
		var l model.Loan
		if err := rows.Scan(&l.ID, &l.StudentID, &l.BookID, &l.Status,
			&l.RequestDate, &l.IssueDate, &l.DueDate, &l.ReturnDate,
			&l.StudentName, &l.RollNo, &l.BookTitle, &l.BookAuthor); err != nil {
			return nil, fmt.Errorf("scanning loan: %w", err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
