package model

import "time"

// Book represents a catalog entry. Copies is the total owned by the library;
// the number available is always derived from the loan ledger, never stored.
type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Copies    int       `json:"copies"`
	CoverMime string    `json:"cover_mime,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
