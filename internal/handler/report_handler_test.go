package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/internal/service"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

type reportServiceMock struct {
	createResp  *dto.ReportJobResponse
	createErr   error
	lastMeta    service.AuditMeta
	statusResp  *dto.ReportStatusResponse
	statusErr   error
	download    *service.ReportDownload
	downloadErr error
}

func (m *reportServiceMock) CreateJob(ctx context.Context, req dto.ReportRequest, meta service.AuditMeta) (*dto.ReportJobResponse, error) {
	m.lastMeta = meta
	return m.createResp, m.createErr
}

func (m *reportServiceMock) GetStatus(ctx context.Context, id string) (*dto.ReportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *reportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error) {
	return m.download, m.downloadErr
}

func TestReportHandlerCreate(t *testing.T) {
	mockSvc := &reportServiceMock{
		createResp: &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued},
	}
	handler := NewReportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodPost, "/admin/reports", []byte(`{"population":"students","format":"csv"}`))
	withPrincipal(c, &models.Teacher{ID: "admin-1", IsActive: true, IsAdmin: true})
	handler.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "admin-1", mockSvc.lastMeta.ActorID)
}

func TestReportHandlerStatusNotFound(t *testing.T) {
	mockSvc := &reportServiceMock{statusErr: appErrors.Clone(appErrors.ErrNotFound, "report job not found")}
	handler := NewReportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/admin/reports/missing", nil)
	c.Params = append(c.Params, ginParam("id", "missing"))
	handler.Status(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance_students_job-1.csv")
	require.NoError(t, os.WriteFile(path, []byte("Roll Number,Name\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	mockSvc := &reportServiceMock{
		download: &service.ReportDownload{
			File:      file,
			Filename:  "attendance_students_job-1.csv",
			Format:    models.ReportFormatCSV,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	handler := NewReportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/reports/download/token", nil)
	c.Params = append(c.Params, ginParam("token", "token"))
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance_students_job-1.csv")
	assert.Equal(t, "Roll Number,Name\n", w.Body.String())
}

func TestReportHandlerDownloadExpired(t *testing.T) {
	mockSvc := &reportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "download link expired")}
	handler := NewReportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/reports/download/token", nil)
	c.Params = append(c.Params, ginParam("token", "token"))
	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
