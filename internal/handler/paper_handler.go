package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/middleware"
	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/service"
	appErrors "github.com/examhub/examhub-api/pkg/errors"
	"github.com/examhub/examhub-api/pkg/response"
)

type paperService interface {
	Upload(ctx context.Context, actor *models.User, req dto.UploadPaperRequest, file service.PaperUpload) (*models.Paper, error)
	Get(ctx context.Context, id string, actor *models.User) (*models.Paper, error)
	List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, error)
	MyPapers(ctx context.Context, actor *models.User, filter models.PaperFilter) ([]models.Paper, int, error)
	Delete(ctx context.Context, id string, actor *models.User) error
	Download(ctx context.Context, id string, actor *models.User) (*dto.DownloadResponse, error)
	Values(ctx context.Context) (*models.FilterValues, error)
}

// PaperHandler manages paper HTTP endpoints.
type PaperHandler struct {
	service     paperService
	maxFileSize int64
}

// NewPaperHandler constructs the handler.
func NewPaperHandler(svc paperService, maxFileSize int64) *PaperHandler {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &PaperHandler{service: svc, maxFileSize: maxFileSize}
}

// Upload godoc
// @Summary Upload an exam paper
// @Description Upload a PDF with its metadata; the paper starts pending review
// @Tags Papers
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param subject formData string true "Subject"
// @Param class formData string true "Class"
// @Param semester formData string true "Semester"
// @Param year formData int true "Year"
// @Param exam_type formData string true "Exam type (Mst-1, Mst-2, Final)"
// @Param tags formData string false "Comma-separated tags"
// @Param file formData file true "PDF document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /papers [post]
func (h *PaperHandler) Upload(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UploadPaperRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid upload payload"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if fileHeader.Size > h.maxFileSize {
		response.Error(c, appErrors.ErrPayloadTooLarge)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxFileSize+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
		return
	}

	file := service.PaperUpload{
		Filename:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}

	paper, err := h.service.Upload(c.Request.Context(), actor, req, file)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, paper)
}

// List godoc
// @Summary Browse approved papers
// @Tags Papers
// @Produce json
// @Param subject query string false "Subject filter (substring)"
// @Param class query string false "Class filter (substring)"
// @Param semester query string false "Semester filter"
// @Param year query int false "Year filter"
// @Param exam_type query string false "Exam type filter"
// @Param q query string false "Search in title, subject, and tags"
// @Param sort query string false "Sort order (newest, downloads, title)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /papers [get]
func (h *PaperHandler) List(c *gin.Context) {
	filter := parsePaperFilter(c)

	papers, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, papers, paginationFor(filter, total))
}

// MyPapers godoc
// @Summary List the caller's uploads
// @Description Returns the caller's papers in every review status
// @Tags Papers
// @Produce json
// @Param status query string false "Status filter (pending, approved, rejected)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /papers/mine [get]
func (h *PaperHandler) MyPapers(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := parsePaperFilter(c)
	filter.Status = models.PaperStatus(c.Query("status"))

	papers, total, err := h.service.MyPapers(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, papers, paginationFor(filter, total))
}

// Values godoc
// @Summary List filterable field values
// @Description Distinct subjects, classes, semesters, years, and exam types across approved papers
// @Tags Papers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /papers/values [get]
func (h *PaperHandler) Values(c *gin.Context) {
	values, err := h.service.Values(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, values, nil)
}

// Get godoc
// @Summary Get a paper
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /papers/{id} [get]
func (h *PaperHandler) Get(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	paper, err := h.service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, paper, nil)
}

// Download godoc
// @Summary Download a paper
// @Description Returns the file URL and counts the download. Admins may preview non-approved papers without counting.
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /papers/{id}/download [get]
func (h *PaperHandler) Download(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	grant, err := h.service.Download(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grant, nil)
}

// Delete godoc
// @Summary Delete a paper
// @Description Owners may delete their own papers in any status; admins may delete anything
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /papers/{id} [delete]
func (h *PaperHandler) Delete(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

func parsePaperFilter(c *gin.Context) models.PaperFilter {
	year, _ := strconv.Atoi(c.Query("year"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	return models.PaperFilter{
		Subject:  c.Query("subject"),
		Class:    c.Query("class"),
		Semester: c.Query("semester"),
		Year:     year,
		ExamType: c.Query("exam_type"),
		Query:    c.Query("q"),
		Sort:     c.DefaultQuery("sort", models.SortNewest),
		Page:     page,
		PageSize: pageSize,
	}
}

func paginationFor(filter models.PaperFilter, total int) *models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
