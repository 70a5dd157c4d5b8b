package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adey1400/library-management/internal/model"
	"github.com/Adey1400/library-management/internal/store"
)

// LoansHandler translates loan workflow requests into ledger operations.
// It carries no business logic of its own.
type LoansHandler struct {
	DB *sql.DB
}

type requestLoanRequest struct {
	BookID int64  `json:"book_id"`
	RollNo string `json:"roll_no"`
}

type issueLoanRequest struct {
	BookID    int64  `json:"book_id"`
	StudentID int64  `json:"student_id"`
	RollNo    string `json:"roll_no"`
}

// Request handles POST /api/loans/request. A student requests a book for
// themselves; a librarian may request on behalf of a roll number.
func (h *LoansHandler) Request(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req requestLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookID <= 0 {
		jsonError(w, http.StatusBadRequest, "book_id required")
		return
	}

	var loan *model.Loan
	var err error
	if req.RollNo != "" {
		if !model.RoleAtLeast(claims.Role, model.RoleLibrarian) {
			jsonError(w, http.StatusForbidden, "only staff may request for another student")
			return
		}
		loan, err = store.RequestLoanByRoll(r.Context(), h.DB, req.RollNo, req.BookID)
	} else {
		student, serr := store.GetStudentByEmail(r.Context(), h.DB, claims.Email)
		if serr != nil {
			storeError(w, serr, "failed to resolve student profile")
			return
		}
		if student == nil {
			jsonError(w, http.StatusForbidden, "no student profile for this account")
			return
		}
		loan, err = store.RequestLoan(r.Context(), h.DB, student.ID, req.BookID)
	}
	if err != nil {
		storeError(w, err, "failed to request loan")
		return
	}

	slog.Info("loan requested", "loan", loan.ID, "book", loan.BookID, "student", loan.StudentID)
	jsonResponse(w, http.StatusCreated, loan)
}

// Issue handles POST /api/loans/issue: staff walk-up issuance that skips the
// request/approve handshake. The student is identified by internal ID or by
// roll number.
func (h *LoansHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookID <= 0 {
		jsonError(w, http.StatusBadRequest, "book_id required")
		return
	}
	if req.StudentID <= 0 && req.RollNo == "" {
		jsonError(w, http.StatusBadRequest, "student_id or roll_no required")
		return
	}

	var loan *model.Loan
	var err error
	if req.RollNo != "" {
		loan, err = store.IssueLoanByRoll(r.Context(), h.DB, req.RollNo, req.BookID)
	} else {
		loan, err = store.IssueLoan(r.Context(), h.DB, req.StudentID, req.BookID)
	}
	if err != nil {
		storeError(w, err, "failed to issue loan")
		return
	}

	slog.Info("loan issued directly", "loan", loan.ID, "book", loan.BookID, "student", loan.StudentID)
	jsonResponse(w, http.StatusCreated, loan)
}

// Approve handles PUT /api/loans/{id}/approve.
func (h *LoansHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, store.ApproveLoan, "loan approved")
}

// Reject handles PUT /api/loans/{id}/reject.
func (h *LoansHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, store.RejectLoan, "loan rejected")
}

// Return handles PUT /api/loans/{id}/return.
func (h *LoansHandler) Return(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, store.ReturnLoan, "loan returned")
}

func (h *LoansHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, db *sql.DB, id int64) error, message string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	if err := op(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to update loan")
		return
	}

	loan, _ := store.GetLoan(r.Context(), h.DB, id)
	slog.Info(message, "loan", id)
	jsonResponse(w, http.StatusOK, loan)
}

// List handles GET /api/loans, optionally filtered by status.
func (h *LoansHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", model.LoanRequested, model.LoanIssued, model.LoanReturned, model.LoanRejected:
	default:
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	loans, err := store.ListLoans(r.Context(), h.DB, status)
	if err != nil {
		storeError(w, err, "failed to list loans")
		return
	}
	if loans == nil {
		loans = []model.Loan{}
	}
	jsonResponse(w, http.StatusOK, loans)
}

// ForStudent handles GET /api/loans/student/{id}.
func (h *LoansHandler) ForStudent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	loans, err := store.ListLoansForStudent(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to list loans")
		return
	}
	if loans == nil {
		loans = []model.Loan{}
	}
	jsonResponse(w, http.StatusOK, loans)
}

// Mine handles GET /api/loans/mine: the caller's own loan history.
func (h *LoansHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	student, err := store.GetStudentByEmail(r.Context(), h.DB, claims.Email)
	if err != nil {
		storeError(w, err, "failed to resolve student profile")
		return
	}
	if student == nil {
		jsonError(w, http.StatusNotFound, "no student profile for this account")
		return
	}

	loans, err := store.ListLoansForStudent(r.Context(), h.DB, student.ID)
	if err != nil {
		storeError(w, err, "failed to list loans")
		return
	}
	if loans == nil {
		loans = []model.Loan{}
	}
	jsonResponse(w, http.StatusOK, loans)
}
