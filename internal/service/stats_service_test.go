package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examhub/examhub-api/internal/models"
)

type statsRepoStub struct {
	byStatus   map[string]int
	byExamType map[string]int
	downloads  int
	recent     []models.Paper
	top        []models.Paper
	err        error
}

func (r *statsRepoStub) CountByStatus(ctx context.Context) (map[string]int, error) {
	return r.byStatus, r.err
}

func (r *statsRepoStub) CountByExamType(ctx context.Context) (map[string]int, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.byExamType, nil
}

func (r *statsRepoStub) TotalDownloads(ctx context.Context) (int, error) {
	return r.downloads, r.err
}

func (r *statsRepoStub) Recent(ctx context.Context, limit int) ([]models.Paper, error) {
	return r.recent, r.err
}

func (r *statsRepoStub) TopDownloads(ctx context.Context, limit int) ([]models.Paper, error) {
	return r.top, r.err
}

type userCountStub struct {
	total int
	err   error
}

func (s *userCountStub) CountAll(ctx context.Context) (int, error) {
	return s.total, s.err
}

func disabledCache() *CacheService {
	return NewCacheService(nil, nil, 0, nil, false)
}

func TestPlatformStatsAggregates(t *testing.T) {
	repo := &statsRepoStub{
		byExamType: map[string]int{"Mst-1": 3, "Final": 2},
		downloads:  40,
	}
	svc := NewStatsService(repo, &userCountStub{total: 12}, disabledCache(), nil, 0)

	stats, err := svc.Platform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalPapers)
	assert.Equal(t, 40, stats.TotalDownloads)
	assert.Equal(t, 12, stats.TotalUsers)
	assert.Equal(t, 3, stats.ByExamType["Mst-1"])
	assert.False(t, stats.GeneratedAt.IsZero())
}

func TestPlatformStatsDegradeToZeros(t *testing.T) {
	repo := &statsRepoStub{err: errors.New("db down")}
	svc := NewStatsService(repo, &userCountStub{}, disabledCache(), nil, 0)

	stats, err := svc.Platform(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalPapers)
	assert.Zero(t, stats.TotalDownloads)
	assert.Zero(t, stats.TotalUsers)
	assert.NotNil(t, stats.ByExamType)
}

func TestRecentDegradesToEmptyList(t *testing.T) {
	repo := &statsRepoStub{err: errors.New("db down")}
	svc := NewStatsService(repo, &userCountStub{}, disabledCache(), nil, 0)

	papers, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestAdminStatsPropagateErrors(t *testing.T) {
	repo := &statsRepoStub{err: errors.New("db down")}
	svc := NewStatsService(repo, &userCountStub{}, disabledCache(), nil, 0)

	_, err := svc.Admin(context.Background())
	assert.Error(t, err)
}

func TestAdminStatsPendingCount(t *testing.T) {
	repo := &statsRepoStub{
		byStatus:  map[string]int{"pending": 4, "approved": 9, "rejected": 1},
		downloads: 55,
		top:       []models.Paper{{ID: "p1", DownloadCount: 30}},
	}
	svc := NewStatsService(repo, &userCountStub{}, disabledCache(), nil, 0)

	stats, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.PendingCount)
	assert.Equal(t, 55, stats.TotalDownloads)
	require.Len(t, stats.TopDownloads, 1)
	assert.Equal(t, "p1", stats.TopDownloads[0].ID)
}
