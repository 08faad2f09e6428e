package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/pkg/export"
	"github.com/noah-isme/tuition-center-api/pkg/storage"
)

type totalsSource interface {
	SubjectTotals(ctx context.Context, start, end models.Day, filter models.CohortFilter) ([]models.SubjectTotals, error)
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig shapes download URLs.
type ExportConfig struct {
	APIPrefix string
}

// ExportResult describes a stored report file.
type ExportResult struct {
	RelativePath string
	ContentType  string
}

// ExportService turns attendance totals into CSV or PDF files.
type ExportService struct {
	students  totalsSource
	teachers  totalsSource
	storage   exportStorage
	signer    *storage.SignedURLSigner
	cfg       ExportConfig
	logger    *zap.Logger
	renderers map[models.ReportFormat]export.Renderer
}

// NewExportService wires the export dependencies.
func NewExportService(students, teachers totalsSource, store exportStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv, pdf export.Renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		students: students,
		teachers: teachers,
		storage:  store,
		signer:   signer,
		cfg:      cfg,
		logger:   logger,
		renderers: map[models.ReportFormat]export.Renderer{
			models.ReportFormatCSV: csv,
			models.ReportFormatPDF: pdf,
		},
	}
}

// Generate renders the job's dataset and stores it, returning the stored path.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	renderer, ok := s.renderers[job.Params.Format]
	if !ok || renderer == nil {
		return nil, fmt.Errorf("unsupported format %q", job.Params.Format)
	}
	dataset, err := s.buildDataset(ctx, job.Params)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Params.Format, err)
	}
	filename := fmt.Sprintf("attendance_%s_%s.%s", job.Params.Population, job.ID, renderer.Extension())
	rel, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}
	s.logger.Info("report generated",
		zap.String("job_id", job.ID),
		zap.String("path", rel),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &ExportResult{RelativePath: rel, ContentType: renderer.ContentType()}, nil
}

// DownloadURL signs a fresh token for a stored file.
func (s *ExportService) DownloadURL(jobID, relPath string) (string, time.Time, error) {
	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return "", time.Time{}, err
	}
	return fmt.Sprintf("%s/reports/download/%s", s.cfg.APIPrefix, token), expiresAt, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string) (storage.DownloadClaims, error) {
	return s.signer.Parse(token)
}

// Open returns a handle to a stored export.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes stored exports older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	source := s.students
	cohortHeader := "Grade-Group"
	if params.Population == models.PopulationTeachers {
		source = s.teachers
		cohortHeader = "Department"
	}
	if source == nil {
		return export.Dataset{}, fmt.Errorf("no attendance source for %q", params.Population)
	}
	filter := models.CohortFilter{Grade: params.Grade, Group: params.Group, Department: params.Department}
	totals, err := source.SubjectTotals(ctx, params.StartDate, params.EndDate, filter)
	if err != nil {
		return export.Dataset{}, err
	}

	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		marked := t.Present + t.Absent
		rows = append(rows, []string{
			t.RollNumber,
			t.FullName,
			t.Cohort,
			fmt.Sprintf("%d", t.Present),
			fmt.Sprintf("%d", t.Absent),
			fmt.Sprintf("%d", marked),
			fmt.Sprintf("%.2f", models.Percentage(t.Present, marked).Rounded()),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("%s attendance %s to %s", titleCase(string(params.Population)), params.StartDate, params.EndDate),
		Headers: []string{"Roll Number", "Name", cohortHeader, "Present", "Absent", "Marked Days", "Attendance (%)"},
		Rows:    rows,
	}, nil
}

func titleCase(raw string) string {
	if raw == "" {
		return raw
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}
