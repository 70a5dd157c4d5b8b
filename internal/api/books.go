package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/Adey1400/library-management/internal/imaging"
	"github.com/Adey1400/library-management/internal/model"
	"github.com/Adey1400/library-management/internal/store"
)

// BooksHandler handles catalog endpoints.
type BooksHandler struct {
	DB *sql.DB
}

type createBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Copies *int   `json:"copies"`
}

type updateBookRequest struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	Copies *int    `json:"copies"`
}

// List handles GET /api/books. The search parameter filters by a
// case-insensitive substring over title or author.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	books, err := store.ListBooks(r.Context(), h.DB, search)
	if err != nil {
		storeError(w, err, "failed to list books")
		return
	}
	if books == nil {
		books = []model.Book{}
	}
	jsonResponse(w, http.StatusOK, books)
}

// Create handles POST /api/books.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" || req.Author == "" {
		jsonError(w, http.StatusBadRequest, "title and author required")
		return
	}
	copies := 1
	if req.Copies != nil {
		copies = *req.Copies
	}
	if copies < 0 {
		jsonError(w, http.StatusBadRequest, "copies must not be negative")
		return
	}

	book, err := store.CreateBook(r.Context(), h.DB, req.Title, req.Author, copies)
	if err != nil {
		storeError(w, err, "failed to create book")
		return
	}

	jsonResponse(w, http.StatusCreated, book)
}

// Get handles GET /api/books/{id}, including current availability.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	book, err := store.GetBook(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get book")
		return
	}
	if book == nil {
		jsonError(w, http.StatusNotFound, "book not found")
		return
	}

	active, err := store.CountActiveLoans(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get book availability")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"book":      book,
		"available": book.Copies - active,
	})
}

// Update handles PUT /api/books/{id}. Only provided fields are changed.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	var req updateBookRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title != nil && *req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title must not be empty")
		return
	}
	if req.Copies != nil && *req.Copies < 0 {
		jsonError(w, http.StatusBadRequest, "copies must not be negative")
		return
	}

	if err := store.UpdateBook(r.Context(), h.DB, id, req.Title, req.Author, req.Copies); err != nil {
		storeError(w, err, "failed to update book")
		return
	}

	book, _ := store.GetBook(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, book)
}

// Delete handles DELETE /api/books/{id}. Refused while the book has
// requested or issued loans.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	if err := store.DeleteBook(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to delete book")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

// UploadCover handles PUT /api/books/{id}/cover.
func (h *BooksHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("cover")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "cover file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetBookCover(r.Context(), h.DB, id, result.Data, result.MIME); err != nil {
		storeError(w, err, "failed to save cover")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "cover uploaded"})
}

// GetCover handles GET /api/books/{id}/cover.
func (h *BooksHandler) GetCover(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	data, mime, err := store.GetBookCover(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get cover")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no cover")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
