package model

import "time"

// Student represents a library member. The optional UserID links the profile
// to its authentication account; the profile itself carries no credentials.
type Student struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	RollNo     string    `json:"roll_no"`
	Department string    `json:"department,omitempty"`
	Year       int       `json:"year,omitempty"`
	Semester   int       `json:"semester,omitempty"`
	JoinedDate time.Time `json:"joined_date"`
	UserID     *int64    `json:"user_id,omitempty"`
}
