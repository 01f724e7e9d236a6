package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/examhub/examhub-api/internal/models"
	appErrors "github.com/examhub/examhub-api/pkg/errors"
)

type statsPaperRepository interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountByExamType(ctx context.Context) (map[string]int, error)
	TotalDownloads(ctx context.Context) (int, error)
	Recent(ctx context.Context, limit int) ([]models.Paper, error)
	TopDownloads(ctx context.Context, limit int) ([]models.Paper, error)
}

type statsUserRepository interface {
	CountAll(ctx context.Context) (int, error)
}

// StatsService aggregates catalog activity for the public landing page and
// the admin dashboard. Public reads are cached and degrade to zero values on
// storage failure so the landing page never 500s.
type StatsService struct {
	papers   statsPaperRepository
	users    statsUserRepository
	cache    *CacheService
	logger   *zap.Logger
	statsTTL time.Duration
}

// NewStatsService constructs a StatsService instance.
func NewStatsService(papers statsPaperRepository, users statsUserRepository, cache *CacheService, logger *zap.Logger, statsTTL time.Duration) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{papers: papers, users: users, cache: cache, logger: logger, statsTTL: statsTTL}
}

// Platform returns approved-catalog totals for the public landing page.
func (s *StatsService) Platform(ctx context.Context) (*models.PlatformStats, error) {
	var cached models.PlatformStats
	if hit, _ := s.cache.Get(ctx, cacheKeyStats, &cached); hit {
		return &cached, nil
	}

	byExamType, err := s.papers.CountByExamType(ctx)
	if err != nil {
		return s.emptyPlatform(err), nil
	}
	totalPapers := 0
	for _, count := range byExamType {
		totalPapers += count
	}

	totalDownloads, err := s.papers.TotalDownloads(ctx)
	if err != nil {
		return s.emptyPlatform(err), nil
	}

	totalUsers, err := s.users.CountAll(ctx)
	if err != nil {
		return s.emptyPlatform(err), nil
	}

	stats := &models.PlatformStats{
		TotalPapers:    totalPapers,
		TotalDownloads: totalDownloads,
		TotalUsers:     totalUsers,
		ByExamType:     byExamType,
		GeneratedAt:    time.Now().UTC(),
	}

	if err := s.cache.Set(ctx, cacheKeyStats, stats, s.statsTTL); err != nil {
		s.logger.Warn("failed to cache platform stats", zap.Error(err))
	}
	return stats, nil
}

// Recent returns the latest approved papers, cached. Falls back to an empty
// list on storage failure.
func (s *StatsService) Recent(ctx context.Context, limit int) ([]models.Paper, error) {
	var cached []models.Paper
	if hit, _ := s.cache.Get(ctx, cacheKeyRecent, &cached); hit {
		return cached, nil
	}

	papers, err := s.papers.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("recent papers query failed", zap.Error(err))
		return []models.Paper{}, nil
	}
	if papers == nil {
		papers = []models.Paper{}
	}

	if err := s.cache.Set(ctx, cacheKeyRecent, papers, s.statsTTL); err != nil {
		s.logger.Warn("failed to cache recent papers", zap.Error(err))
	}
	return papers, nil
}

// Admin returns review-queue totals for the admin dashboard. Unlike the
// public aggregates, failures propagate so admins see real errors.
func (s *StatsService) Admin(ctx context.Context) (*models.AdminStats, error) {
	byStatus, err := s.papers.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count papers")
	}

	totalDownloads, err := s.papers.TotalDownloads(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum downloads")
	}

	top, err := s.papers.TopDownloads(ctx, 5)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch top downloads")
	}
	if top == nil {
		top = []models.Paper{}
	}

	return &models.AdminStats{
		CountsByStatus: byStatus,
		PendingCount:   byStatus[string(models.StatusPending)],
		TotalDownloads: totalDownloads,
		TopDownloads:   top,
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

func (s *StatsService) emptyPlatform(err error) *models.PlatformStats {
	s.logger.Error("platform stats query failed", zap.Error(err))
	return &models.PlatformStats{
		ByExamType:  map[string]int{},
		GeneratedAt: time.Now().UTC(),
	}
}
