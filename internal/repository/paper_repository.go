package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/examhub/examhub-api/internal/models"
)

// PaperRepository provides database access for paper records.
type PaperRepository struct {
	db *sqlx.DB
}

// NewPaperRepository creates a new instance of PaperRepository.
func NewPaperRepository(db *sqlx.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

const paperColumns = `id, title, subject, class, semester, year, exam_type, file_name, file_url, uploaded_by, status, download_count, rejection_reason, tags, created_at, updated_at`

// Create inserts a new paper record.
func (r *PaperRepository) Create(ctx context.Context, paper *models.Paper) error {
	if paper.ID == "" {
		paper.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if paper.CreatedAt.IsZero() {
		paper.CreatedAt = now
	}
	paper.UpdatedAt = now

	const query = `INSERT INTO papers (id, title, subject, class, semester, year, exam_type, file_name, file_url, uploaded_by, status, download_count, rejection_reason, tags, created_at, updated_at)
		VALUES (:id, :title, :subject, :class, :semester, :year, :exam_type, :file_name, :file_url, :uploaded_by, :status, :download_count, :rejection_reason, :tags, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, paper); err != nil {
		return fmt.Errorf("create paper: %w", err)
	}
	return nil
}

// FindByID returns a paper by identifier.
func (r *PaperRepository) FindByID(ctx context.Context, id string) (*models.Paper, error) {
	query := fmt.Sprintf(`SELECT %s FROM papers WHERE id = $1 LIMIT 1`, paperColumns)
	var paper models.Paper
	if err := r.db.GetContext(ctx, &paper, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find paper by id: %w", err)
	}
	return &paper, nil
}

// List returns papers matching the filter with a total count for pagination.
func (r *PaperRepository) List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, error) {
	baseQuery := `FROM papers WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.UploadedBy != "" {
		conditions = append(conditions, fmt.Sprintf("uploaded_by = $%d", len(args)+1))
		args = append(args, filter.UploadedBy)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Subject+"%")
	}
	if filter.Class != "" {
		conditions = append(conditions, fmt.Sprintf("class ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Class+"%")
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.ExamType != "" {
		conditions = append(conditions, fmt.Sprintf("exam_type = $%d", len(args)+1))
		args = append(args, filter.ExamType)
	}
	if filter.Query != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR subject ILIKE $%d OR array_to_string(tags, ' ') ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+filter.Query+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	orderBy := "created_at DESC"
	switch filter.Sort {
	case models.SortDownloads:
		orderBy = "download_count DESC, created_at DESC"
	case models.SortTitle:
		orderBy = "title ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", paperColumns, baseQuery, orderBy, pageSize, offset)

	var papers []models.Paper
	if err := r.db.SelectContext(ctx, &papers, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list papers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count papers: %w", err)
	}

	return papers, total, nil
}

// UpdateStatus moves a paper to the given review status, replacing the
// rejection reason (nil clears it).
func (r *PaperRepository) UpdateStatus(ctx context.Context, id string, status models.PaperStatus, reason *string) error {
	const query = `UPDATE papers SET status = $2, rejection_reason = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update paper status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementDownloadCount atomically bumps the download counter of an
// approved paper and returns the new value. sql.ErrNoRows signals that the
// paper is absent or no longer approved.
func (r *PaperRepository) IncrementDownloadCount(ctx context.Context, id string) (int, error) {
	const query = `UPDATE papers SET download_count = download_count + 1, updated_at = $2 WHERE id = $1 AND status = $3 RETURNING download_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id, time.Now().UTC(), models.StatusApproved); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("increment download count: %w", err)
	}
	return count, nil
}

// Delete removes the paper record.
func (r *PaperRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM papers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DistinctValues collects the observed values of every filterable field
// across approved papers, for populating filter UIs.
func (r *PaperRepository) DistinctValues(ctx context.Context) (*models.FilterValues, error) {
	values := &models.FilterValues{}

	queries := []struct {
		dest  interface{}
		query string
	}{
		{&values.Subjects, `SELECT DISTINCT subject FROM papers WHERE status = $1 ORDER BY subject`},
		{&values.Classes, `SELECT DISTINCT class FROM papers WHERE status = $1 ORDER BY class`},
		{&values.Semesters, `SELECT DISTINCT semester FROM papers WHERE status = $1 ORDER BY semester`},
		{&values.Years, `SELECT DISTINCT year FROM papers WHERE status = $1 ORDER BY year`},
		{&values.ExamTypes, `SELECT DISTINCT exam_type FROM papers WHERE status = $1 ORDER BY exam_type`},
	}
	for _, q := range queries {
		if err := r.db.SelectContext(ctx, q.dest, q.query, models.StatusApproved); err != nil {
			return nil, fmt.Errorf("distinct paper values: %w", err)
		}
	}

	return values, nil
}

// CountByStatus returns paper counts grouped by review status.
func (r *PaperRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) AS total FROM papers GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count papers by status: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var total int
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

// CountByExamType returns approved paper counts per exam type.
func (r *PaperRepository) CountByExamType(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT exam_type, COUNT(*) AS total FROM papers WHERE status = $1 GROUP BY exam_type`, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("count papers by exam type: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[string]int)
	for rows.Next() {
		var examType string
		var total int
		if err := rows.Scan(&examType, &total); err != nil {
			return nil, fmt.Errorf("scan exam type count: %w", err)
		}
		counts[examType] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exam type counts: %w", err)
	}
	return counts, nil
}

// TotalDownloads sums download counters across approved papers.
func (r *PaperRepository) TotalDownloads(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(download_count), 0) FROM papers WHERE status = $1`, models.StatusApproved); err != nil {
		return 0, fmt.Errorf("total downloads: %w", err)
	}
	return total, nil
}

// Recent returns the most recently approved papers.
func (r *PaperRepository) Recent(ctx context.Context, limit int) ([]models.Paper, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT %s FROM papers WHERE status = $1 ORDER BY created_at DESC LIMIT %d`, paperColumns, limit)
	var papers []models.Paper
	if err := r.db.SelectContext(ctx, &papers, query, models.StatusApproved); err != nil {
		return nil, fmt.Errorf("recent papers: %w", err)
	}
	return papers, nil
}

// TopDownloads returns the most downloaded approved papers.
func (r *PaperRepository) TopDownloads(ctx context.Context, limit int) ([]models.Paper, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT %s FROM papers WHERE status = $1 ORDER BY download_count DESC, created_at DESC LIMIT %d`, paperColumns, limit)
	var papers []models.Paper
	if err := r.db.SelectContext(ctx, &papers, query, models.StatusApproved); err != nil {
		return nil, fmt.Errorf("top downloads: %w", err)
	}
	return papers, nil
}
