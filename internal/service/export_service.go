package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/examhub/examhub-api/internal/models"
	appErrors "github.com/examhub/examhub-api/pkg/errors"
	"github.com/examhub/examhub-api/pkg/export"
)

// Catalog export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// exportPageSize is the repository page size used while draining the catalog.
const exportPageSize = 100

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult carries a rendered catalog export.
type ExportResult struct {
	Payload     []byte
	ContentType string
	Filename    string
}

// ExportService renders the paper catalog as a downloadable file for admins.
type ExportService struct {
	papers paperRepository
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(papers paperRepository, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{papers: papers, csv: csv, pdf: pdf, logger: logger}
}

// Catalog renders every paper matching the status filter. An empty status
// exports the whole catalog.
func (s *ExportService) Catalog(ctx context.Context, status models.PaperStatus, format string) (*ExportResult, error) {
	if status != "" && !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	papers, err := s.drainCatalog(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to collect catalog")
	}

	dataset := buildCatalogDataset(papers, status)

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("catalog exported",
		zap.String("format", format),
		zap.String("status", string(status)),
		zap.Int("papers", len(papers)))

	return &ExportResult{
		Payload:     payload,
		ContentType: contentType,
		Filename:    exportFilename(status, format),
	}, nil
}

func (s *ExportService) drainCatalog(ctx context.Context, status models.PaperStatus) ([]models.Paper, error) {
	var all []models.Paper
	for page := 1; ; page++ {
		papers, total, err := s.papers.List(ctx, models.PaperFilter{
			Status:   status,
			Sort:     models.SortNewest,
			Page:     page,
			PageSize: exportPageSize,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, papers...)
		if len(all) >= total || len(papers) == 0 {
			return all, nil
		}
	}
}

func buildCatalogDataset(papers []models.Paper, status models.PaperStatus) export.Dataset {
	headers := []string{"Title", "Subject", "Class", "Semester", "Year", "Exam Type", "Status", "Downloads", "Uploaded By", "Uploaded At"}
	rows := make([]map[string]string, 0, len(papers))
	for _, paper := range papers {
		rows = append(rows, map[string]string{
			"Title":       paper.Title,
			"Subject":     paper.Subject,
			"Class":       paper.Class,
			"Semester":    paper.Semester,
			"Year":        fmt.Sprintf("%d", paper.Year),
			"Exam Type":   string(paper.ExamType),
			"Status":      string(paper.Status),
			"Downloads":   fmt.Sprintf("%d", paper.DownloadCount),
			"Uploaded By": paper.UploadedBy,
			"Uploaded At": paper.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	title := "Paper Catalog"
	if status != "" {
		title = fmt.Sprintf("Paper Catalog (%s)", status)
	}
	return export.Dataset{Title: title, Headers: headers, Rows: rows}
}

func exportFilename(status models.PaperStatus, format string) string {
	scope := "all"
	if status != "" {
		scope = string(status)
	}
	return fmt.Sprintf("papers_%s_%s.%s", scope, time.Now().UTC().Format("20060102_150405"), format)
}
