package dto

// UploadPaperRequest carries the multipart metadata fields of an upload.
// Tags arrive as a comma-separated form value.
type UploadPaperRequest struct {
	Title    string `form:"title" validate:"required"`
	Subject  string `form:"subject" validate:"required"`
	Class    string `form:"class" validate:"required"`
	Semester string `form:"semester" validate:"required"`
	Year     int    `form:"year" validate:"required"`
	ExamType string `form:"exam_type" validate:"required"`
	Tags     string `form:"tags"`
}

// RejectPaperRequest optionally names the rejection reason.
type RejectPaperRequest struct {
	Reason string `json:"reason"`
}

// DownloadResponse returns the file location after a download grant. Preview
// marks an admin access to a non-approved paper, which is not counted.
type DownloadResponse struct {
	FileURL       string `json:"file_url"`
	DownloadCount int    `json:"download_count"`
	Preview       bool   `json:"preview"`
}
