package store

import (
	"context"
	"errors"
	"testing"

	"github.com/Adey1400/library-management/internal/db"
)

func TestCreateAndGetBook(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	book, err := CreateBook(ctx, sdb, "Clean Code", "Robert C. Martin", 3)
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if book.ID == 0 {
		t.Error("expected non-zero id")
	}
	if book.Title != "Clean Code" || book.Author != "Robert C. Martin" || book.Copies != 3 {
		t.Errorf("unexpected book: %+v", book)
	}

	got, err := GetBook(ctx, sdb, book.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got == nil || got.Title != book.Title {
		t.Errorf("expected %q, got %+v", book.Title, got)
	}
}

func TestCreateBookDuplicateTitle(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateBook(ctx, sdb, "Dune", "Frank Herbert", 1); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	_, err := CreateBook(ctx, sdb, "Dune", "Someone Else", 1)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetBookMissing(t *testing.T) {
	sdb := db.NewTestDB(t)

	book, err := GetBook(context.Background(), sdb, 42)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if book != nil {
		t.Errorf("expected nil for missing book, got %+v", book)
	}
}

func TestListBooksSearch(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	titles := map[string]string{
		"The Pragmatic Programmer": "Hunt & Thomas",
		"Programming Pearls":       "Jon Bentley",
		"Dune":                     "Frank Herbert",
	}
	for title, author := range titles {
		if _, err := CreateBook(ctx, sdb, title, author, 1); err != nil {
			t.Fatalf("CreateBook %q: %v", title, err)
		}
	}

	all, err := ListBooks(ctx, sdb, "")
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 books, got %d", len(all))
	}

	// Case-insensitive substring over title and author.
	matches, err := ListBooks(ctx, sdb, "program")
	if err != nil {
		t.Fatalf("ListBooks search: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 matches for %q, got %d", "program", len(matches))
	}

	byAuthor, err := ListBooks(ctx, sdb, "herbert")
	if err != nil {
		t.Fatalf("ListBooks author search: %v", err)
	}
	if len(byAuthor) != 1 || byAuthor[0].Title != "Dune" {
		t.Errorf("expected Dune for author search, got %+v", byAuthor)
	}
}

func TestUpdateBook(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	book, err := CreateBook(ctx, sdb, "SICP", "Abelson", 1)
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	copies := 5
	if err := UpdateBook(ctx, sdb, book.ID, nil, nil, &copies); err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}

	got, err := GetBook(ctx, sdb, book.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Copies != 5 {
		t.Errorf("expected 5 copies, got %d", got.Copies)
	}
	if got.Title != "SICP" || got.Author != "Abelson" {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestUpdateBookNotFound(t *testing.T) {
	sdb := db.NewTestDB(t)

	title := "Nope"
	err := UpdateBook(context.Background(), sdb, 42, &title, nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteBook(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	book, err := CreateBook(ctx, sdb, "Ephemeral", "Nobody", 1)
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if err := DeleteBook(ctx, sdb, book.ID); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}

	got, err := GetBook(ctx, sdb, book.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got != nil {
		t.Errorf("expected book to be gone, got %+v", got)
	}

	if err := DeleteBook(ctx, sdb, book.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteBookWithActiveLoan(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()
	student, book := seedLoanFixtures(t, sdb, 1)

	if _, err := RequestLoan(ctx, sdb, student.ID, book.ID); err != nil {
		t.Fatalf("request: %v", err)
	}

	err := DeleteBook(ctx, sdb, book.ID)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestDeleteBookWithTerminalLoans(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()
	student, book := seedLoanFixtures(t, sdb, 1)

	loan, err := IssueLoan(ctx, sdb, student.ID, book.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := ReturnLoan(ctx, sdb, loan.ID); err != nil {
		t.Fatalf("return: %v", err)
	}

	// Returned loans do not block the delete; they go with the book.
	if err := DeleteBook(ctx, sdb, book.ID); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}
	got, err := GetLoan(ctx, sdb, loan.ID)
	if err != nil {
		t.Fatalf("GetLoan: %v", err)
	}
	if got != nil {
		t.Errorf("expected cascaded loan to be gone, got %+v", got)
	}
}

func TestBookCover(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	book, err := CreateBook(ctx, sdb, "Covered", "Author", 1)
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	data := []byte{0xff, 0xd8, 0xff, 0x01, 0x02}
	if err := SetBookCover(ctx, sdb, book.ID, data, "image/jpeg"); err != nil {
		t.Fatalf("SetBookCover: %v", err)
	}

	cover, mime, err := GetBookCover(ctx, sdb, book.ID)
	if err != nil {
		t.Fatalf("GetBookCover: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", mime)
	}
	if len(cover) != len(data) {
		t.Errorf("expected %d bytes, got %d", len(data), len(cover))
	}

	if err := SetBookCover(ctx, sdb, 9999, data, "image/jpeg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
