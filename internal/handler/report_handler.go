package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/internal/service"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
	"github.com/noah-isme/tuition-center-api/pkg/response"
)

type reportService interface {
	CreateJob(ctx context.Context, req dto.ReportRequest, meta service.AuditMeta) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes asynchronous attendance exports.
type ReportHandler struct {
	reports reportService
	logger  *zap.Logger
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{reports: reports, logger: logger}
}

// Create godoc
// @Summary Request attendance report
// @Description Queues a CSV or PDF export. Poll the status endpoint for the download URL.
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid report request"))
		return
	}
	job, err := h.reports.CreateJob(c.Request.Context(), req, auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reports/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	status, err := h.reports.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download report file
// @Description The token is an HMAC-signed, expiring download grant.
// @Tags Reports
// @Produce application/octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.reports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read export file"))
		return
	}
	h.logger.Debug("serving report", zap.String("file", download.Filename), zap.Int64("size", info.Size()))

	c.DataFromReader(http.StatusOK, info.Size(), reportContentType(download.Format), download.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
		"Cache-Control":       "no-store",
	})
}

func reportContentType(format models.ReportFormat) string {
	if format == models.ReportFormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}
