package store

import (
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel error kinds. Store functions wrap these with context; the API
// layer maps them to response statuses with errors.Is.
var (
	// ErrNotFound means a referenced book, student, user, or loan is absent.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate means a unique constraint (title, email, roll number)
	// was violated on create.
	ErrDuplicate = errors.New("already exists")
	// ErrUnavailable means the book has no copies left to request or issue.
	ErrUnavailable = errors.New("no copies available")
	// ErrInvalidState means the loan is not in a state the operation allows.
	ErrInvalidState = errors.New("invalid loan state")
	// ErrConflict means a delete is blocked by active references.
	ErrConflict = errors.New("blocked by active records")
)

// isUniqueViolation reports whether err is a SQLite unique-constraint failure.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
