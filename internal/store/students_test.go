package store

import (
	"context"
	"errors"
	"testing"

	"github.com/Adey1400/library-management/internal/db"
	"github.com/Adey1400/library-management/internal/model"
)

func TestCreateAndGetStudent(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	student, err := CreateStudent(ctx, sdb, "Maja Zupan", "maja@example.com", "R-1", "Physics", 3, 6, nil)
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if student.ID == 0 {
		t.Error("expected non-zero id")
	}
	if student.JoinedDate.IsZero() {
		t.Error("expected joined date to default to today")
	}

	got, err := GetStudent(ctx, sdb, student.ID)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if got == nil || got.Name != "Maja Zupan" || got.Department != "Physics" || got.Year != 3 || got.Semester != 6 {
		t.Errorf("unexpected student: %+v", got)
	}
	if got.UserID != nil {
		t.Errorf("expected no linked account, got %v", *got.UserID)
	}
}

func TestCreateStudentOptionalFields(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	student, err := CreateStudent(ctx, sdb, "Tin Kralj", "tin@example.com", "R-2", "", 0, 0, nil)
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if student.Department != "" || student.Year != 0 || student.Semester != 0 {
		t.Errorf("expected empty optional fields, got %+v", student)
	}
}

func TestCreateStudentDuplicate(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateStudent(ctx, sdb, "A", "dup@example.com", "R-1", "", 0, 0, nil); err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}

	_, err := CreateStudent(ctx, sdb, "B", "dup@example.com", "R-2", "", 0, 0, nil)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate email: expected ErrDuplicate, got %v", err)
	}

	_, err = CreateStudent(ctx, sdb, "C", "other@example.com", "R-1", "", 0, 0, nil)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate roll number: expected ErrDuplicate, got %v", err)
	}
}

func TestGetStudentByRollAndEmail(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	student, err := CreateStudent(ctx, sdb, "Iva", "iva@example.com", "R-77", "", 0, 0, nil)
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}

	byRoll, err := GetStudentByRoll(ctx, sdb, "R-77")
	if err != nil {
		t.Fatalf("GetStudentByRoll: %v", err)
	}
	if byRoll == nil || byRoll.ID != student.ID {
		t.Errorf("expected student %d by roll, got %+v", student.ID, byRoll)
	}

	byEmail, err := GetStudentByEmail(ctx, sdb, "iva@example.com")
	if err != nil {
		t.Fatalf("GetStudentByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != student.ID {
		t.Errorf("expected student %d by email, got %+v", student.ID, byEmail)
	}

	missing, err := GetStudentByRoll(ctx, sdb, "R-404")
	if err != nil {
		t.Fatalf("GetStudentByRoll missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown roll, got %+v", missing)
	}
}

func TestListStudents(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	for _, s := range []struct{ name, email, roll string }{
		{"B", "b@example.com", "R-2"},
		{"A", "a@example.com", "R-1"},
	} {
		if _, err := CreateStudent(ctx, sdb, s.name, s.email, s.roll, "", 0, 0, nil); err != nil {
			t.Fatalf("CreateStudent: %v", err)
		}
	}

	students, err := ListStudents(ctx, sdb)
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(students))
	}
	if students[0].RollNo != "R-1" || students[1].RollNo != "R-2" {
		t.Errorf("expected roll number order, got %q then %q", students[0].RollNo, students[1].RollNo)
	}
}

func TestUpdateStudent(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	student, err := CreateStudent(ctx, sdb, "Old Name", "u@example.com", "R-9", "CS", 1, 1, nil)
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}

	name := "New Name"
	semester := 2
	if err := UpdateStudent(ctx, sdb, student.ID, &name, nil, nil, &semester); err != nil {
		t.Fatalf("UpdateStudent: %v", err)
	}

	got, err := GetStudent(ctx, sdb, student.ID)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if got.Name != "New Name" || got.Semester != 2 {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Department != "CS" || got.Year != 1 {
		t.Errorf("untouched fields changed: %+v", got)
	}

	if err := UpdateStudent(ctx, sdb, 9999, &name, nil, nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteStudentWithActiveLoan(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()
	student, book := seedLoanFixtures(t, sdb, 1)

	if _, err := RequestLoan(ctx, sdb, student.ID, book.ID); err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := DeleteStudent(ctx, sdb, student.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestDeleteStudentRemovesLinkedAccount(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	user, student, err := RegisterStudentAccount(ctx, sdb, "link@example.com", "hash", "Lin", "Ked", "R-50", "", 0, 0)
	if err != nil {
		t.Fatalf("RegisterStudentAccount: %v", err)
	}

	if err := DeleteStudent(ctx, sdb, student.ID); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}

	gone, err := GetStudent(ctx, sdb, student.ID)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if gone != nil {
		t.Errorf("expected student to be gone, got %+v", gone)
	}

	// The account stays for the audit trail but is marked deleted.
	account, err := GetUser(ctx, sdb, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if account == nil {
		t.Fatal("expected linked account row to remain")
	}
	if account.DeletedAt == nil {
		t.Error("expected linked account to be soft-deleted")
	}
}

func TestDeleteStudentNotFound(t *testing.T) {
	sdb := db.NewTestDB(t)

	if err := DeleteStudent(context.Background(), sdb, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterStudentAccount(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	user, student, err := RegisterStudentAccount(ctx, sdb, "reg@example.com", "hash", "Eva", "Horvat", "R-10", "Math", 1, 2)
	if err != nil {
		t.Fatalf("RegisterStudentAccount: %v", err)
	}
	if user.Role != model.RoleStudent {
		t.Errorf("expected role %q, got %q", model.RoleStudent, user.Role)
	}
	if student.Name != "Eva Horvat" {
		t.Errorf("expected combined name, got %q", student.Name)
	}
	if student.UserID == nil || *student.UserID != user.ID {
		t.Errorf("expected profile linked to account %d, got %v", user.ID, student.UserID)
	}
}

func TestRegisterStudentAccountRollsBack(t *testing.T) {
	sdb := db.NewTestDB(t)
	ctx := context.Background()

	if _, _, err := RegisterStudentAccount(ctx, sdb, "first@example.com", "hash", "First", "One", "R-1", "", 0, 0); err != nil {
		t.Fatalf("RegisterStudentAccount: %v", err)
	}

	// The duplicate roll number fails the profile insert; the account insert
	// must be rolled back with it.
	_, _, err := RegisterStudentAccount(ctx, sdb, "second@example.com", "hash", "Second", "Two", "R-1", "", 0, 0)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	orphan, err := GetUserByEmail(ctx, sdb, "second@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if orphan != nil {
		t.Errorf("expected no orphaned account, got %+v", orphan)
	}
}
