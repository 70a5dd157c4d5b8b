package model

import "time"

// Loan represents a single borrow record tying one student to one book.
type Loan struct {
	ID          int64      `json:"id"`
	StudentID   int64      `json:"student_id"`
	BookID      int64      `json:"book_id"`
	Status      string     `json:"status"`
	RequestDate *time.Time `json:"request_date,omitempty"`
	IssueDate   *time.Time `json:"issue_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ReturnDate  *time.Time `json:"return_date,omitempty"`

	// Joined fields (not always populated).
	StudentName string `json:"student_name,omitempty"`
	RollNo      string `json:"roll_no,omitempty"`
	BookTitle   string `json:"book_title,omitempty"`
	BookAuthor  string `json:"book_author,omitempty"`
}

// Loan statuses. Requested and issued loans count against a book's copies;
// returned and rejected are terminal.
const (
	LoanRequested = "requested"
	LoanIssued    = "issued"
	LoanReturned  = "returned"
	LoanRejected  = "rejected"
)

// Active reports whether the loan counts against its book's copy limit.
func (l *Loan) Active() bool {
	return l.Status == LoanRequested || l.Status == LoanIssued
}
