package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akademika/timetable-engine/internal/dto"
	appErrors "github.com/akademika/timetable-engine/pkg/errors"
)

type fakeDatasetSrv struct {
	createResp  *dto.DatasetResponse
	createErr   error
	lastCSVName string
	lastCSVKeys []string
	deleteErr   error
}

func (f *fakeDatasetSrv) Create(context.Context, dto.CreateDatasetRequest) (*dto.DatasetResponse, error) {
	return f.createResp, f.createErr
}

func (f *fakeDatasetSrv) CreateFromCSV(_ context.Context, institutionName string, files map[string]io.Reader) (*dto.DatasetResponse, error) {
	f.lastCSVName = institutionName
	for name := range files {
		f.lastCSVKeys = append(f.lastCSVKeys, name)
	}
	return f.createResp, f.createErr
}

func (f *fakeDatasetSrv) Get(context.Context, string) (*dto.DatasetResponse, error) {
	return f.createResp, f.createErr
}

func (f *fakeDatasetSrv) List(context.Context, dto.DatasetListQuery) ([]dto.DatasetResponse, int, error) {
	return nil, 0, nil
}

func (f *fakeDatasetSrv) Delete(context.Context, string) error {
	return f.deleteErr
}

func TestDatasetHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDatasetSrv{createResp: &dto.DatasetResponse{ID: "ds-1", CourseCount: 1}}
	handler := NewDatasetHandler(srv)

	body := `{"courses":[{"id":"C1"}],"faculty":[{"id":"F1"}],"rooms":[{"id":"R1"}],"timeSlots":[{"id":"T1"}],"batches":[{"id":"B1"}]}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/datasets", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "ds-1")
}

func TestDatasetHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDatasetHandler(&fakeDatasetSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/datasets", strings.NewReader(`not-json`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetHandlerCreateFromCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDatasetSrv{createResp: &dto.DatasetResponse{ID: "ds-1"}}
	handler := NewDatasetHandler(srv)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("institution_name", "Test Institute"))
	part, err := writer.CreateFormFile("courses", "courses.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("course_id,course_name\nC1,Algorithms\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/datasets/csv", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	handler.CreateFromCSV(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Test Institute", srv.lastCSVName)
	assert.Equal(t, []string{"courses"}, srv.lastCSVKeys)
}

func TestDatasetHandlerDeleteNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDatasetHandler(&fakeDatasetSrv{deleteErr: appErrors.ErrDatasetNotFound})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/datasets/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDatasetHandlerDeleteSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDatasetHandler(&fakeDatasetSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/datasets/ds-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "ds-1"}}

	handler.Delete(c)
	// Flush the status-only response; gin's test context defers the header
	// write until the body is written or WriteHeaderNow is called.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
