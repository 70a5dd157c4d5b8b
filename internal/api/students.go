package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adey1400/library-management/internal/model"
	"github.com/Adey1400/library-management/internal/store"
)

// StudentsHandler handles member directory endpoints.
type StudentsHandler struct {
	DB *sql.DB
}

type createStudentRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	RollNo     string `json:"roll_no"`
	Department string `json:"department"`
	Year       int    `json:"year"`
	Semester   int    `json:"semester"`
}

type updateStudentRequest struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Year       *int    `json:"year"`
	Semester   *int    `json:"semester"`
}

// List handles GET /api/students.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := store.ListStudents(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list students")
		return
	}
	if students == nil {
		students = []model.Student{}
	}
	jsonResponse(w, http.StatusOK, students)
}

// Create handles POST /api/students. Creates a directory entry without an
// authentication account (the student can register one later).
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.RollNo == "" {
		jsonError(w, http.StatusBadRequest, "name, email, and roll number required")
		return
	}

	student, err := store.CreateStudent(r.Context(), h.DB,
		req.Name, req.Email, req.RollNo, req.Department, req.Year, req.Semester, nil)
	if err != nil {
		storeError(w, err, "failed to create student")
		return
	}

	jsonResponse(w, http.StatusCreated, student)
}

// Get handles GET /api/students/{id}.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	student, err := store.GetStudent(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get student")
		return
	}
	if student == nil {
		jsonError(w, http.StatusNotFound, "student not found")
		return
	}
	jsonResponse(w, http.StatusOK, student)
}

// GetByRoll handles GET /api/students/roll/{rollNo}.
func (h *StudentsHandler) GetByRoll(w http.ResponseWriter, r *http.Request) {
	rollNo := r.PathValue("rollNo")
	if rollNo == "" {
		jsonError(w, http.StatusBadRequest, "roll number required")
		return
	}

	student, err := store.GetStudentByRoll(r.Context(), h.DB, rollNo)
	if err != nil {
		storeError(w, err, "failed to get student")
		return
	}
	if student == nil {
		jsonError(w, http.StatusNotFound, "student not found")
		return
	}
	jsonResponse(w, http.StatusOK, student)
}

// Profile handles GET /api/students/profile: the caller's own directory
// entry, resolved through the authenticated identity's email.
func (h *StudentsHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	student, err := store.GetStudentByEmail(r.Context(), h.DB, claims.Email)
	if err != nil {
		storeError(w, err, "failed to get profile")
		return
	}
	if student == nil {
		jsonError(w, http.StatusNotFound, "no student profile for this account")
		return
	}
	jsonResponse(w, http.StatusOK, student)
}

// Update handles PUT /api/students/{id}. Only provided fields are changed.
func (h *StudentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	var req updateStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil && *req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name must not be empty")
		return
	}

	if err := store.UpdateStudent(r.Context(), h.DB, id, req.Name, req.Department, req.Year, req.Semester); err != nil {
		storeError(w, err, "failed to update student")
		return
	}

	student, _ := store.GetStudent(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, student)
}

// Delete handles DELETE /api/students/{id}. Removes the directory entry and
// its linked authentication account together.
func (h *StudentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	if err := store.DeleteStudent(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to delete student")
		return
	}

	slog.Info("student deleted", "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "student deleted"})
}
