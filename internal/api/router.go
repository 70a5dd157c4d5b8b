package api

import (
	"database/sql"
	"net/http"

	"github.com/Adey1400/library-management/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	studentsHandler := &StudentsHandler{DB: db}
	booksHandler := &BooksHandler{DB: db}
	loansHandler := &LoansHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireLibrarian := RequireRole(model.RoleLibrarian)

	// Public: registration and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated session management.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Accounts (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Catalog: read (all roles), write (librarian+).
	mux.Handle("GET /api/books", authMW(http.HandlerFunc(booksHandler.List)))
	mux.Handle("POST /api/books", authMW(requireLibrarian(http.HandlerFunc(booksHandler.Create))))
	mux.Handle("GET /api/books/{id}", authMW(http.HandlerFunc(booksHandler.Get)))
	mux.Handle("PUT /api/books/{id}", authMW(requireLibrarian(http.HandlerFunc(booksHandler.Update))))
	mux.Handle("DELETE /api/books/{id}", authMW(requireLibrarian(http.HandlerFunc(booksHandler.Delete))))
	mux.Handle("PUT /api/books/{id}/cover", authMW(requireLibrarian(http.HandlerFunc(booksHandler.UploadCover))))
	mux.Handle("GET /api/books/{id}/cover", authMW(http.HandlerFunc(booksHandler.GetCover)))

	// Member directory: own profile (any role), the rest librarian+.
	mux.Handle("GET /api/students/profile", authMW(http.HandlerFunc(studentsHandler.Profile)))
	mux.Handle("GET /api/students", authMW(requireLibrarian(http.HandlerFunc(studentsHandler.List))))
	mux.Handle("POST /api/students", authMW(requireLibrarian(http.HandlerFunc(studentsHandler.Create))))
	mux.Handle("GET /api/students/{id}", authMW(requireLibrarian(http.HandlerFunc(studentsHandler.Get))))
	mux.Handle("GET /api/students/roll/{rollNo}", authMW(requireLibrarian(http.HandlerFunc(studentsHandler.GetByRoll))))
	mux.Handle("PUT /api/students/{id}", authMW(requireLibrarian(http.HandlerFunc(studentsHandler.Update))))
	mux.Handle("DELETE /api/students/{id}", authMW(requireLibrarian(http.HandlerFunc(studentsHandler.Delete))))

	// Loan workflow: students request and see their own history; the
	// staff side moves loans through the state machine.
	mux.Handle("POST /api/loans/request", authMW(http.HandlerFunc(loansHandler.Request)))
	mux.Handle("GET /api/loans/mine", authMW(http.HandlerFunc(loansHandler.Mine)))
	mux.Handle("POST /api/loans/issue", authMW(requireLibrarian(http.HandlerFunc(loansHandler.Issue))))
	mux.Handle("PUT /api/loans/{id}/approve", authMW(requireLibrarian(http.HandlerFunc(loansHandler.Approve))))
	mux.Handle("PUT /api/loans/{id}/reject", authMW(requireLibrarian(http.HandlerFunc(loansHandler.Reject))))
	mux.Handle("PUT /api/loans/{id}/return", authMW(requireLibrarian(http.HandlerFunc(loansHandler.Return))))
	mux.Handle("GET /api/loans", authMW(requireLibrarian(http.HandlerFunc(loansHandler.List))))
	mux.Handle("GET /api/loans/student/{id}", authMW(requireLibrarian(http.HandlerFunc(loansHandler.ForStudent))))

	return mux
}
