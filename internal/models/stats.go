package models

import "time"

// PlatformStats summarises public catalog activity. Served from cache when
// available and degrades to zero values on storage failure.
type PlatformStats struct {
	TotalPapers    int            `json:"total_papers"`
	TotalDownloads int            `json:"total_downloads"`
	TotalUsers     int            `json:"total_users"`
	ByExamType     map[string]int `json:"by_exam_type"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// SystemMetrics is an in-process metrics snapshot for the admin dashboard.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	UploadsAccepted          uint64    `json:"uploads_accepted"`
	DownloadsGranted         uint64    `json:"downloads_granted"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// AdminStats summarises the review queue for the admin dashboard.
type AdminStats struct {
	CountsByStatus map[string]int `json:"counts_by_status"`
	PendingCount   int            `json:"pending_count"`
	TotalDownloads int            `json:"total_downloads"`
	TopDownloads   []Paper        `json:"top_downloads"`
	GeneratedAt    time.Time      `json:"generated_at"`
}
