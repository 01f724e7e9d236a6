package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/examhub/examhub-api/internal/authz"
	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/models"
	appErrors "github.com/examhub/examhub-api/pkg/errors"
)

// Cache key layout for catalog data. All paper-derived entries share the
// papers: prefix so one pattern invalidates them together.
const (
	cacheKeyFilterValues = "papers:values"
	cacheKeyStats        = "papers:stats"
	cacheKeyRecent       = "papers:recent"
	cachePatternPapers   = "papers:*"
)

type paperRepository interface {
	Create(ctx context.Context, paper *models.Paper) error
	FindByID(ctx context.Context, id string) (*models.Paper, error)
	List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, error)
	UpdateStatus(ctx context.Context, id string, status models.PaperStatus, reason *string) error
	IncrementDownloadCount(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
	DistinctValues(ctx context.Context) (*models.FilterValues, error)
}

type uploadCounter interface {
	IncrementUploadCount(ctx context.Context, id string) error
}

type objectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) bool
}

// PaperUpload carries the file part of a multipart upload.
type PaperUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Data        []byte
}

// PaperService owns the paper lifecycle: upload, review, browsing, download
// accounting, and deletion.
type PaperService struct {
	papers      paperRepository
	users       uploadCounter
	store       objectStore
	cache       *CacheService
	metrics     *MetricsService
	policy      *authz.Policy
	validator   *validator.Validate
	logger      *zap.Logger
	maxFileSize int64
	valueTTL    time.Duration
}

// NewPaperService constructs a PaperService instance.
func NewPaperService(papers paperRepository, users uploadCounter, store objectStore, cache *CacheService, metrics *MetricsService, policy *authz.Policy, validate *validator.Validate, logger *zap.Logger, maxFileSize int64, valueTTL time.Duration) *PaperService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &PaperService{
		papers:      papers,
		users:       users,
		store:       store,
		cache:       cache,
		metrics:     metrics,
		policy:      policy,
		validator:   validate,
		logger:      logger,
		maxFileSize: maxFileSize,
		valueTTL:    valueTTL,
	}
}

// Upload stores the file blob first and only then records the metadata, so a
// paper row never points at a blob that was never written. The new paper
// always starts pending regardless of who uploads it.
func (s *PaperService) Upload(ctx context.Context, actor *models.User, req dto.UploadPaperRequest, file PaperUpload) (*models.Paper, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	// Trim before validating so whitespace-only fields fail the required
	// checks instead of slipping through as empty strings.
	req.Title = strings.TrimSpace(req.Title)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Class = strings.TrimSpace(req.Class)
	req.Semester = strings.TrimSpace(req.Semester)
	req.ExamType = strings.TrimSpace(req.ExamType)

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload metadata")
	}

	examType := models.ExamType(req.ExamType)
	if !examType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("exam type must be one of %s, %s, %s", models.ExamMst1, models.ExamMst2, models.ExamFinal))
	}

	if file.Size > s.maxFileSize || int64(len(file.Data)) > s.maxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds the %d byte limit", s.maxFileSize))
	}
	if len(file.Data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if !isPDF(file) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "only PDF files are accepted")
	}

	key := objectKey(req.Title)
	fileURL, err := s.store.Put(ctx, key, file.Data, "application/pdf")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageWriteFailure.Code, appErrors.ErrStorageWriteFailure.Status, "failed to store file")
	}

	paper := &models.Paper{
		Title:      req.Title,
		Subject:    req.Subject,
		Class:      req.Class,
		Semester:   req.Semester,
		Year:       req.Year,
		ExamType:   examType,
		FileName:   key,
		FileURL:    fileURL,
		UploadedBy: actor.ID,
		Status:     models.StatusPending,
		Tags:       parseTags(req.Tags),
	}

	if err := s.papers.Create(ctx, paper); err != nil {
		if !s.store.Delete(ctx, key) {
			s.logger.Warn("orphaned blob after failed metadata insert", zap.String("key", key))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record paper")
	}

	if err := s.users.IncrementUploadCount(ctx, actor.ID); err != nil {
		s.logger.Warn("failed to bump upload count", zap.String("user_id", actor.ID), zap.Error(err))
	}

	s.metrics.RecordUpload()
	s.invalidateCatalog(ctx)

	s.logger.Info("paper uploaded",
		zap.String("paper_id", paper.ID),
		zap.String("user_id", actor.ID),
		zap.String("subject", paper.Subject))

	return paper, nil
}

// Get returns a single paper. Non-approved papers are visible only to their
// owner and admins; everyone else gets not found rather than forbidden, so
// the existence of pending papers does not leak.
func (s *PaperService) Get(ctx context.Context, id string, actor *models.User) (*models.Paper, error) {
	paper, err := s.findPaper(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanView(actor, paper) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
	}
	return paper, nil
}

// List returns approved papers matching the filter. The public catalog
// degrades to an empty page on storage failure instead of erroring.
func (s *PaperService) List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, error) {
	filter.Status = models.StatusApproved
	papers, total, err := s.papers.List(ctx, filter)
	if err != nil {
		s.logger.Error("catalog listing failed", zap.Error(err))
		return []models.Paper{}, 0, nil
	}
	if papers == nil {
		papers = []models.Paper{}
	}
	return papers, total, nil
}

// MyPapers returns every paper the actor uploaded, regardless of status.
func (s *PaperService) MyPapers(ctx context.Context, actor *models.User, filter models.PaperFilter) ([]models.Paper, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	filter.UploadedBy = actor.ID
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	papers, total, err := s.papers.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list papers")
	}
	if papers == nil {
		papers = []models.Paper{}
	}
	return papers, total, nil
}

// AdminList returns papers of any status for the review queue.
func (s *PaperService) AdminList(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	papers, total, err := s.papers.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list papers")
	}
	if papers == nil {
		papers = []models.Paper{}
	}
	return papers, total, nil
}

// Approve moves a paper to approved and clears any rejection reason.
// Approving an already approved paper is a no-op that still succeeds.
func (s *PaperService) Approve(ctx context.Context, id string) (*models.Paper, error) {
	paper, err := s.findPaper(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.papers.UpdateStatus(ctx, id, models.StatusApproved, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve paper")
	}

	paper.Status = models.StatusApproved
	paper.RejectionReason = nil
	s.invalidateCatalog(ctx)

	s.logger.Info("paper approved", zap.String("paper_id", id))
	return paper, nil
}

// Reject moves a paper to rejected. A blank reason is replaced with a
// sentinel so rejected papers always carry one.
func (s *PaperService) Reject(ctx context.Context, id string, reason string) (*models.Paper, error) {
	paper, err := s.findPaper(ctx, id)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = models.DefaultRejectionReason
	}

	if err := s.papers.UpdateStatus(ctx, id, models.StatusRejected, &reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject paper")
	}

	paper.Status = models.StatusRejected
	paper.RejectionReason = &reason
	s.invalidateCatalog(ctx)

	s.logger.Info("paper rejected", zap.String("paper_id", id), zap.String("reason", reason))
	return paper, nil
}

// Delete removes a paper and its blob. Owners may delete their own papers in
// any status; admins may delete anything. Callers without either grant get
// not found, the same answer as for a missing paper.
func (s *PaperService) Delete(ctx context.Context, id string, actor *models.User) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}

	paper, err := s.findPaper(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy.CanDelete(actor, paper) {
		return appErrors.Clone(appErrors.ErrNotFound, "paper not found")
	}

	if err := s.papers.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete paper")
	}

	if paper.FileName != "" && !s.store.Delete(ctx, paper.FileName) {
		s.logger.Warn("blob removal failed after delete", zap.String("paper_id", id), zap.String("key", paper.FileName))
	}

	s.invalidateCatalog(ctx)
	s.logger.Info("paper deleted", zap.String("paper_id", id), zap.String("user_id", actor.ID))
	return nil
}

// Download grants access to an approved paper, counting the download
// atomically in the store. Admins may preview papers in any status; previews
// are never counted.
func (s *PaperService) Download(ctx context.Context, id string, actor *models.User) (*dto.DownloadResponse, error) {
	paper, err := s.findPaper(ctx, id)
	if err != nil {
		return nil, err
	}

	if paper.FileURL == "" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "paper has no stored file")
	}

	if paper.Status == models.StatusApproved {
		count, err := s.papers.IncrementDownloadCount(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Approved when we looked, unapproved by the time we counted.
				return nil, appErrors.Clone(appErrors.ErrForbidden, "paper is not available for download")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count download")
		}
		s.metrics.RecordDownload()
		return &dto.DownloadResponse{FileURL: paper.FileURL, DownloadCount: count}, nil
	}

	if s.policy.IsAdmin(actor) {
		return &dto.DownloadResponse{FileURL: paper.FileURL, DownloadCount: paper.DownloadCount, Preview: true}, nil
	}

	return nil, appErrors.Clone(appErrors.ErrForbidden, "paper is not available for download")
}

// Values returns the distinct filterable field values across approved
// papers, cached, for populating filter dropdowns. Falls back to an empty
// set on storage failure.
func (s *PaperService) Values(ctx context.Context) (*models.FilterValues, error) {
	var cached models.FilterValues
	if hit, _ := s.cache.Get(ctx, cacheKeyFilterValues, &cached); hit {
		return &cached, nil
	}

	values, err := s.papers.DistinctValues(ctx)
	if err != nil {
		s.logger.Error("distinct values query failed", zap.Error(err))
		return &models.FilterValues{}, nil
	}

	if err := s.cache.Set(ctx, cacheKeyFilterValues, values, s.valueTTL); err != nil {
		s.logger.Warn("failed to cache filter values", zap.Error(err))
	}
	return values, nil
}

func (s *PaperService) findPaper(ctx context.Context, id string) (*models.Paper, error) {
	paper, err := s.papers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch paper")
	}
	return paper, nil
}

func (s *PaperService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cachePatternPapers); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func isPDF(file PaperUpload) bool {
	if !bytes.HasPrefix(file.Data, []byte("%PDF-")) {
		return false
	}
	switch file.ContentType {
	case "", "application/pdf", "application/octet-stream":
		return true
	}
	return false
}

func objectKey(title string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '-'
		}
		return -1
	}, strings.TrimSpace(title))
	slug = strings.Trim(slug, "-")
	if len(slug) > 60 {
		slug = slug[:60]
	}
	if slug == "" {
		slug = "paper"
	}
	return fmt.Sprintf("papers/%s-%s.pdf", slug, uuid.NewString())
}

// parseTags splits the comma-separated form value into a deduplicated set of
// lowercase tags.
func parseTags(raw string) []string {
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
