package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/service"
	appErrors "github.com/examhub/examhub-api/pkg/errors"
)

type fakeAdminPaperSrv struct {
	listResp   []models.Paper
	listTotal  int
	lastFilter models.PaperFilter
	approved   *models.Paper
	approveErr error
	rejected   *models.Paper
	rejectErr  error
	lastReason string
}

func (f *fakeAdminPaperSrv) AdminList(_ context.Context, filter models.PaperFilter) ([]models.Paper, int, error) {
	f.lastFilter = filter
	return f.listResp, f.listTotal, nil
}

func (f *fakeAdminPaperSrv) Approve(context.Context, string) (*models.Paper, error) {
	return f.approved, f.approveErr
}

func (f *fakeAdminPaperSrv) Reject(_ context.Context, _ string, reason string) (*models.Paper, error) {
	f.lastReason = reason
	return f.rejected, f.rejectErr
}

type fakeAdminStatsSrv struct {
	stats *models.AdminStats
	err   error
}

func (f *fakeAdminStatsSrv) Admin(context.Context) (*models.AdminStats, error) {
	return f.stats, f.err
}

type fakeExporter struct {
	result     *service.ExportResult
	err        error
	lastStatus models.PaperStatus
	lastFormat string
}

func (f *fakeExporter) Catalog(_ context.Context, status models.PaperStatus, format string) (*service.ExportResult, error) {
	f.lastStatus = status
	f.lastFormat = format
	return f.result, f.err
}

type fakeSnapshotter struct{}

func (fakeSnapshotter) Snapshot() models.SystemMetrics {
	return models.SystemMetrics{RequestsTotal: 9, GeneratedAt: time.Now().UTC()}
}

func newAdminFixture(papers *fakeAdminPaperSrv, stats *fakeAdminStatsSrv, exporter *fakeExporter) *AdminHandler {
	if papers == nil {
		papers = &fakeAdminPaperSrv{}
	}
	if stats == nil {
		stats = &fakeAdminStatsSrv{}
	}
	if exporter == nil {
		exporter = &fakeExporter{}
	}
	return NewAdminHandler(papers, stats, exporter, fakeSnapshotter{})
}

func TestAdminHandlerListPapersPassesStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAdminPaperSrv{listResp: []models.Paper{{ID: "p1", Status: models.StatusPending}}, listTotal: 1}
	handler := newAdminFixture(srv, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/papers?status=pending", nil)

	handler.ListPapers(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusPending, srv.lastFilter.Status)
}

func TestAdminHandlerApprove(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAdminPaperSrv{approved: &models.Paper{ID: "p1", Status: models.StatusApproved}}
	handler := newAdminFixture(srv, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/admin/papers/p1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}

	handler.Approve(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), `"approved"`)
}

func TestAdminHandlerApproveMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAdminPaperSrv{approveErr: appErrors.ErrNotFound}
	handler := newAdminFixture(srv, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/admin/papers/missing/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Approve(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHandlerRejectWithoutBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAdminPaperSrv{rejected: &models.Paper{ID: "p1", Status: models.StatusRejected}}
	handler := newAdminFixture(srv, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/admin/papers/p1/reject", nil)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}

	handler.Reject(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, srv.lastReason)
}

func TestAdminHandlerRejectWithReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAdminPaperSrv{rejected: &models.Paper{ID: "p1", Status: models.StatusRejected}}
	handler := newAdminFixture(srv, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPut, "/admin/papers/p1/reject", `{"reason":"blurry scan"}`)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}

	handler.Reject(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "blurry scan", srv.lastReason)
}

func TestAdminHandlerStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAdminFixture(nil, &fakeAdminStatsSrv{
		stats: &models.AdminStats{PendingCount: 4, GeneratedAt: time.Now().UTC()},
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/stats", nil)

	handler.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), `"pending_count":4`)
}

func TestAdminHandlerMetricsSnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAdminFixture(nil, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/metrics", nil)

	handler.Metrics(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), `"requests_total":9`)
}

func TestAdminHandlerExportStreamsFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &fakeExporter{result: &service.ExportResult{
		Payload:     []byte("Title,Subject\n"),
		ContentType: "text/csv",
		Filename:    "papers_all_20250601_100000.csv",
	}}
	handler := newAdminFixture(nil, nil, exporter)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/export?status=approved&format=csv", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusApproved, exporter.lastStatus)
	assert.Equal(t, "csv", exporter.lastFormat)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "papers_all_20250601_100000.csv")
	assert.Equal(t, "Title,Subject\n", rec.Body.String())
}

func TestAdminHandlerExportInvalidFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAdminFixture(nil, nil, &fakeExporter{
		err: appErrors.Clone(appErrors.ErrValidation, `unsupported export format "xlsx"`),
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/export?format=xlsx", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
