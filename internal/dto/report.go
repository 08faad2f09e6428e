package dto

import "github.com/noah-isme/tuition-center-api/internal/models"

// ReportRequest captures the POST /admin/reports payload.
type ReportRequest struct {
	Population models.Population   `json:"population" validate:"required,population"`
	Format     models.ReportFormat `json:"format" validate:"required,report_format"`
	StartDate  models.Day          `json:"startDate"`
	EndDate    models.Day          `json:"endDate"`
	Grade      string              `json:"grade" validate:"omitempty,max=20"`
	Group      models.StudentGroup `json:"group" validate:"omitempty,student_group"`
	Department string              `json:"department" validate:"omitempty,max=60"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID          string              `json:"id"`
	Status      models.ReportStatus `json:"status"`
	Progress    int                 `json:"progress"`
	DownloadURL *string             `json:"downloadUrl,omitempty"`
	Error       *string             `json:"error,omitempty"`
}
