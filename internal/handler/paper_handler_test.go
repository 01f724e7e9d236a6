package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/middleware"
	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/service"
	appErrors "github.com/examhub/examhub-api/pkg/errors"
)

type fakePaperSrv struct {
	uploadResp   *models.Paper
	uploadErr    error
	lastUpload   service.PaperUpload
	lastMeta     dto.UploadPaperRequest
	listResp     []models.Paper
	listTotal    int
	listErr      error
	lastFilter   models.PaperFilter
	getResp      *models.Paper
	getErr       error
	deleteErr    error
	downloadResp *dto.DownloadResponse
	downloadErr  error
	valuesResp   *models.FilterValues
}

func (f *fakePaperSrv) Upload(_ context.Context, _ *models.User, req dto.UploadPaperRequest, file service.PaperUpload) (*models.Paper, error) {
	f.lastMeta = req
	f.lastUpload = file
	return f.uploadResp, f.uploadErr
}

func (f *fakePaperSrv) Get(context.Context, string, *models.User) (*models.Paper, error) {
	return f.getResp, f.getErr
}

func (f *fakePaperSrv) List(_ context.Context, filter models.PaperFilter) ([]models.Paper, int, error) {
	f.lastFilter = filter
	return f.listResp, f.listTotal, f.listErr
}

func (f *fakePaperSrv) MyPapers(_ context.Context, _ *models.User, filter models.PaperFilter) ([]models.Paper, int, error) {
	f.lastFilter = filter
	return f.listResp, f.listTotal, f.listErr
}

func (f *fakePaperSrv) Delete(context.Context, string, *models.User) error {
	return f.deleteErr
}

func (f *fakePaperSrv) Download(context.Context, string, *models.User) (*dto.DownloadResponse, error) {
	return f.downloadResp, f.downloadErr
}

func (f *fakePaperSrv) Values(context.Context) (*models.FilterValues, error) {
	return f.valuesResp, nil
}

func multipartUpload(t *testing.T, fields map[string]string, fileField, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/papers", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func uploadFields() map[string]string {
	return map[string]string{
		"title":     "DS Midterm",
		"subject":   "Data Structures",
		"class":     "CSE-A",
		"semester":  "4",
		"year":      "2025",
		"exam_type": "Mst-1",
		"tags":      "trees,graphs",
	}
}

func TestPaperHandlerUploadSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaperSrv{uploadResp: &models.Paper{ID: "p1", Status: models.StatusPending}}
	handler := NewPaperHandler(srv, 1<<20)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = multipartUpload(t, uploadFields(), "file", "ds.pdf", []byte("%PDF-1.7 body"))
	c.Set(middleware.ContextActorKey, &models.User{ID: "u1"})

	handler.Upload(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "DS Midterm", srv.lastMeta.Title)
	assert.Equal(t, 2025, srv.lastMeta.Year)
	assert.Equal(t, "ds.pdf", srv.lastUpload.Filename)
	assert.Equal(t, []byte("%PDF-1.7 body"), srv.lastUpload.Data)
}

func TestPaperHandlerUploadRequiresActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(&fakePaperSrv{}, 1<<20)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = multipartUpload(t, uploadFields(), "file", "ds.pdf", []byte("%PDF-1.7 body"))

	handler.Upload(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPaperHandlerUploadRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(&fakePaperSrv{}, 1<<20)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = multipartUpload(t, uploadFields(), "", "", nil)
	c.Set(middleware.ContextActorKey, &models.User{ID: "u1"})

	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaperHandlerUploadRejectsOversizedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(&fakePaperSrv{}, 8)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = multipartUpload(t, uploadFields(), "file", "ds.pdf", []byte("%PDF-1.7 far too large"))
	c.Set(middleware.ContextActorKey, &models.User{ID: "u1"})

	handler.Upload(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPaperHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaperSrv{listResp: []models.Paper{{ID: "p1"}}, listTotal: 1}
	handler := NewPaperHandler(srv, 1<<20)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/papers?subject=Data&year=2025&sort=downloads&page=2&page_size=5", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Data", srv.lastFilter.Subject)
	assert.Equal(t, 2025, srv.lastFilter.Year)
	assert.Equal(t, models.SortDownloads, srv.lastFilter.Sort)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Equal(t, 5, env.Pagination.PageSize)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestPaperHandlerMyPapersRequiresActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(&fakePaperSrv{}, 1<<20)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/papers/mine", nil)

	handler.MyPapers(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPaperHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(&fakePaperSrv{getErr: appErrors.ErrNotFound}, 1<<20)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/papers/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaperHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(&fakePaperSrv{
		downloadResp: &dto.DownloadResponse{FileURL: "https://cdn/p1.pdf", DownloadCount: 5},
	}, 1<<20)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/papers/p1/download", nil)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}

	handler.Download(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), "https://cdn/p1.pdf")
}

func TestPaperHandlerDeleteNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(&fakePaperSrv{}, 1<<20)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/papers/p1", nil)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	c.Set(middleware.ContextActorKey, &models.User{ID: "u1"})

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestPaperHandlerValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(&fakePaperSrv{
		valuesResp: &models.FilterValues{Subjects: []string{"Data Structures"}},
	}, 1<<20)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/papers/values", nil)

	handler.Values(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), "Data Structures")
}
