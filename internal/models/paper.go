package models

import (
	"time"

	"github.com/lib/pq"
)

// PaperStatus enumerates the review states of an uploaded paper.
type PaperStatus string

const (
	StatusPending  PaperStatus = "pending"
	StatusApproved PaperStatus = "approved"
	StatusRejected PaperStatus = "rejected"
)

// Valid reports whether the status is one of the three review states.
func (s PaperStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ExamType enumerates the exam categories a paper can belong to.
type ExamType string

const (
	ExamMst1  ExamType = "Mst-1"
	ExamMst2  ExamType = "Mst-2"
	ExamFinal ExamType = "Final"
)

// Valid reports whether the exam type is a known category.
func (t ExamType) Valid() bool {
	switch t {
	case ExamMst1, ExamMst2, ExamFinal:
		return true
	}
	return false
}

// DefaultRejectionReason is stored when an admin rejects without a reason.
const DefaultRejectionReason = "No reason provided"

// Paper represents one uploaded exam paper and its review metadata.
type Paper struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	Subject         string         `db:"subject" json:"subject"`
	Class           string         `db:"class" json:"class"`
	Semester        string         `db:"semester" json:"semester"`
	Year            int            `db:"year" json:"year"`
	ExamType        ExamType       `db:"exam_type" json:"exam_type"`
	FileName        string         `db:"file_name" json:"file_name"`
	FileURL         string         `db:"file_url" json:"file_url,omitempty"`
	UploadedBy      string         `db:"uploaded_by" json:"uploaded_by"`
	Status          PaperStatus    `db:"status" json:"status"`
	DownloadCount   int            `db:"download_count" json:"download_count"`
	RejectionReason *string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
	Tags            pq.StringArray `db:"tags" json:"tags"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// OwnedBy reports identity equality against the uploading user.
func (p *Paper) OwnedBy(userID string) bool {
	return userID != "" && p.UploadedBy == userID
}

// Paper sort orders accepted by listing endpoints.
const (
	SortNewest    = "newest"
	SortDownloads = "downloads"
	SortTitle     = "title"
)

// PaperFilter captures filtering criteria for listing papers.
type PaperFilter struct {
	Subject    string
	Class      string
	Semester   string
	Year       int
	ExamType   string
	Query      string
	Status     PaperStatus
	UploadedBy string
	Sort       string
	Page       int
	PageSize   int
}

// FilterValues holds the observed distinct values of each filterable field,
// restricted to approved papers.
type FilterValues struct {
	Subjects  []string `json:"subjects"`
	Classes   []string `json:"classes"`
	Semesters []string `json:"semesters"`
	Years     []int    `json:"years"`
	ExamTypes []string `json:"exam_types"`
}
