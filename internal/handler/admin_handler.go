package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/service"
	appErrors "github.com/examhub/examhub-api/pkg/errors"
	"github.com/examhub/examhub-api/pkg/response"
)

type adminPaperService interface {
	AdminList(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, error)
	Approve(ctx context.Context, id string) (*models.Paper, error)
	Reject(ctx context.Context, id string, reason string) (*models.Paper, error)
}

type adminStatsService interface {
	Admin(ctx context.Context) (*models.AdminStats, error)
}

type catalogExporter interface {
	Catalog(ctx context.Context, status models.PaperStatus, format string) (*service.ExportResult, error)
}

type metricsSnapshotter interface {
	Snapshot() models.SystemMetrics
}

// AdminHandler manages the review queue and admin dashboard endpoints.
type AdminHandler struct {
	papers  adminPaperService
	stats   adminStatsService
	export  catalogExporter
	metrics metricsSnapshotter
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(papers adminPaperService, stats adminStatsService, export catalogExporter, metrics metricsSnapshotter) *AdminHandler {
	return &AdminHandler{papers: papers, stats: stats, export: export, metrics: metrics}
}

// ListPapers godoc
// @Summary List papers for review
// @Description Returns papers in any status, newest first by default
// @Tags Admin
// @Produce json
// @Param status query string false "Status filter (pending, approved, rejected)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/papers [get]
func (h *AdminHandler) ListPapers(c *gin.Context) {
	filter := parsePaperFilter(c)
	filter.Status = models.PaperStatus(c.Query("status"))

	papers, total, err := h.papers.AdminList(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, papers, paginationFor(filter, total))
}

// Approve godoc
// @Summary Approve a paper
// @Description Moves the paper to approved and clears any rejection reason
// @Tags Admin
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/papers/{id}/approve [put]
func (h *AdminHandler) Approve(c *gin.Context) {
	paper, err := h.papers.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, paper, nil)
}

// Reject godoc
// @Summary Reject a paper
// @Description Moves the paper to rejected with an optional reason
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param payload body dto.RejectPaperRequest false "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/papers/{id}/reject [put]
func (h *AdminHandler) Reject(c *gin.Context) {
	var req dto.RejectPaperRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rejection payload"))
			return
		}
	}

	paper, err := h.papers.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, paper, nil)
}

// Stats godoc
// @Summary Review queue statistics
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// Metrics godoc
// @Summary Process metrics snapshot
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/metrics [get]
func (h *AdminHandler) Metrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

// Export godoc
// @Summary Export the paper catalog
// @Description Renders the catalog as CSV or PDF
// @Tags Admin
// @Produce octet-stream
// @Param status query string false "Status filter (pending, approved, rejected)"
// @Param format query string false "Export format (csv, pdf)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	result, err := h.export.Catalog(c.Request.Context(), models.PaperStatus(c.Query("status")), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
