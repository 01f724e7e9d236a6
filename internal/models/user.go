package models

import "time"

// User represents a registered uploader stored in the users table. Admin
// privileges are not persisted here; they are resolved per request against
// the configured allow-list.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	RollNumber   string    `db:"roll_number" json:"roll_number"`
	Class        string    `db:"class" json:"class"`
	Semester     string    `db:"semester" json:"semester"`
	Year         int       `db:"year" json:"year"`
	UploadCount  int       `db:"upload_count" json:"upload_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
