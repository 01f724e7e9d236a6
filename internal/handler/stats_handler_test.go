package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/examhub/examhub-api/internal/models"
)

type fakeStatsSrv struct {
	platform  *models.PlatformStats
	recent    []models.Paper
	lastLimit int
}

func (f *fakeStatsSrv) Platform(context.Context) (*models.PlatformStats, error) {
	return f.platform, nil
}

func (f *fakeStatsSrv) Recent(_ context.Context, limit int) ([]models.Paper, error) {
	f.lastLimit = limit
	return f.recent, nil
}

func TestStatsHandlerPlatform(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStatsHandler(&fakeStatsSrv{
		platform: &models.PlatformStats{TotalPapers: 5, TotalDownloads: 40},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/stats", nil)

	handler.Platform(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), `"total_papers":5`)
}

func TestStatsHandlerRecentParsesLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeStatsSrv{recent: []models.Paper{{ID: "p1"}}}
	handler := NewStatsHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/papers/recent?limit=3", nil)

	handler.Recent(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, srv.lastLimit)
}
