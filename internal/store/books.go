package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Adey1400/library-management/internal/model"
)

// CreateBook adds a book to the catalog.
func CreateBook(ctx context.Context, db *sql.DB, title, author string, copies int) (*model.Book, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO books (title, author, copies) VALUES (?, ?, ?)`,
		title, author, copies,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("book %q: %w", title, ErrDuplicate)
		}
		return nil, fmt.Errorf("creating book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting book id: %w", err)
	}

	return GetBook(ctx, db, id)
}

// GetBook returns a book by ID.
func GetBook(ctx context.Context, db *sql.DB, id int64) (*model.Book, error) {
	b := &model.Book{}
	var coverMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, title, author, copies, cover_mime, created_at, updated_at
		 FROM books WHERE id = ?`, id,
	).Scan(&b.ID, &b.Title, &b.Author, &b.Copies, &coverMime, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting book: %w", err)
	}
	b.CoverMime = coverMime.String
	return b, nil
}

// ListBooks returns all books, optionally filtered by a case-insensitive
// substring match over title or author.
func ListBooks(ctx context.Context, db *sql.DB, search string) ([]model.Book, error) {
	query := `SELECT id, title, author, copies, cover_mime, created_at, updated_at
	          FROM books`
	var args []any

	if search != "" {
		query += ` WHERE title LIKE ? COLLATE NOCASE OR author LIKE ? COLLATE NOCASE`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	query += ` ORDER BY title`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		var b model.Book
		var coverMime sql.NullString
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Copies, &coverMime, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		b.CoverMime = coverMime.String
		books = append(books, b)
	}
	return books, rows.Err()
}

// UpdateBook merges the provided fields into a book. Nil fields are left
// untouched.
func UpdateBook(ctx context.Context, db *sql.DB, id int64, title, author *string, copies *int) error {
	var sets []string
	var args []any

	if title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *title)
	}
	if author != nil {
		sets = append(sets, "author = ?")
		args = append(args, *author)
	}
	if copies != nil {
		sets = append(sets, "copies = ?")
		args = append(args, *copies)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	result, err := db.ExecContext(ctx,
		`UPDATE books SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("book title: %w", ErrDuplicate)
		}
		return fmt.Errorf("updating book: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteBook removes a book from the catalog. Fails while any loan for the
// book is requested or issued; the active-loan check and the delete run in
// one write transaction so a concurrent loan request cannot slip between.
func DeleteBook(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Take the write lock before counting; doubles as the existence check.
	result, err := tx.ExecContext(ctx,
		`UPDATE books SET updated_at = updated_at WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("locking book: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("book %d: %w", id, ErrNotFound)
	}

	active, err := CountActiveLoans(ctx, tx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("book %d has %d active loans: %w", id, active, ErrConflict)
	}

	// Terminal loans go with the book via ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing book delete: %w", err)
	}
	return nil
}

// SetBookCover sets a book's cover image data.
func SetBookCover(ctx context.Context, db *sql.DB, id int64, cover []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE books SET cover = ?, cover_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		cover, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting book cover: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetBookCover returns a book's cover image data and MIME type.
func GetBookCover(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var cover []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT cover, cover_mime FROM books WHERE id = ?`, id,
	).Scan(&cover, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting book cover: %w", err)
	}
	return cover, mime.String, nil
}
