package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
	"github.com/noah-isme/tuition-center-api/pkg/jobs"
	"github.com/noah-isme/tuition-center-api/pkg/storage"
)

// JobTypeAttendanceReport tags report jobs on the queue.
const JobTypeAttendanceReport = "attendance_report"

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
	ClearResult(ctx context.Context, id string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

type reportMetrics interface {
	RecordReportJob(status models.ReportStatus)
}

// ReportService orchestrates report job lifecycle management.
type ReportService struct {
	repo      reportJobStore
	queue     jobDispatcher
	exporter  *ExportService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// ReportServiceConfig governs queue recovery and cleanup.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	Location        *time.Location
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// NewReportService constructs the report service.
func NewReportService(repo reportJobStore, queue jobDispatcher, exporter *ExportService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ReportService{
		repo:      repo,
		queue:     queue,
		exporter:  exporter,
		audit:     audit,
		validator: defaultValidator(validate),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateJob validates the request, persists the job and enqueues processing.
func (s *ReportService) CreateJob(ctx context.Context, req dto.ReportRequest, meta AuditMeta) (*dto.ReportJobResponse, error) {
	params, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	job := &models.ReportJob{
		Params:    params,
		Status:    models.ReportStatusQueued,
		Progress:  0,
		CreatedBy: meta.ActorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Internal(err, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeAttendanceReport}); err != nil {
		status := models.ReportStatusFailed
		msg := "failed to enqueue job"
		now := s.now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Internal(err, "failed to enqueue report job")
	}
	s.record(ctx, job, meta)
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata, signing a fresh download URL once finished.
func (s *ReportService) GetStatus(ctx context.Context, id string) (*dto.ReportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Internal(err, "failed to load report job")
	}
	resp := &dto.ReportStatusResponse{
		ID:       job.ID,
		Status:   job.Status,
		Progress: job.Progress,
	}
	if job.Status == models.ReportStatusFinished && job.ResultPath != nil && *job.ResultPath != "" {
		url, _, err := s.exporter.DownloadURL(job.ID, *job.ResultPath)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to sign download url")
		}
		resp.DownloadURL = &url
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates the token and opens the stored export file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	claims, err := s.exporter.ParseToken(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	job, err := s.repo.GetByID(ctx, claims.ReportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Internal(err, "failed to load report job")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	if job.ResultPath == nil || *job.ResultPath != claims.Path {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report file no longer available")
	}
	file, err := s.exporter.Open(claims.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report file no longer available")
		}
		return nil, appErrors.Internal(err, "failed to open export file")
	}
	return &ReportDownload{
		File:      file,
		Filename:  filepath.Base(claims.Path),
		Format:    job.Params.Format,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued report jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeAttendanceReport}); err != nil {
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("recovered queued report jobs", zap.Int("count", len(pending)))
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired removes files of jobs finished longer than the result TTL ago.
func (s *ReportService) CleanupExpired(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	const batch = 100
	for {
		expired, err := s.repo.ListFinishedBefore(ctx, cutoff, batch)
		if err != nil {
			s.logger.Warn("cleanup list failed", zap.Error(err))
			return
		}
		for _, job := range expired {
			if job.ResultPath != nil {
				if err := s.exporter.Delete(*job.ResultPath); err != nil {
					s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
					continue
				}
			}
			if err := s.repo.ClearResult(ctx, job.ID); err != nil {
				s.logger.Warn("cleanup clear failed", zap.String("job_id", job.ID), zap.Error(err))
				return
			}
		}
		if len(expired) < batch {
			break
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
	}
}

func (s *ReportService) normalize(req dto.ReportRequest) (models.ReportJobParams, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ReportJobParams{}, validationError(err, "invalid report request")
	}
	end := req.EndDate
	if end.IsZero() {
		end = models.DayOf(s.now(), s.cfg.Location)
	}
	start := req.StartDate
	if start.IsZero() {
		start = end.AddDays(-(defaultStatsWindowDays - 1))
	}
	if start.After(end) {
		return models.ReportJobParams{}, appErrors.Clone(appErrors.ErrValidation, "startDate must not be after endDate")
	}
	if start.DaysUntil(end) >= maxRangeDays {
		return models.ReportJobParams{}, appErrors.Clone(appErrors.ErrValidation, "date range must be shorter than 366 days")
	}
	params := models.ReportJobParams{
		Population: req.Population,
		Format:     req.Format,
		StartDate:  start,
		EndDate:    end,
	}
	if req.Population == models.PopulationStudents {
		params.Grade = req.Grade
		params.Group = req.Group
	} else {
		params.Department = req.Department
	}
	return params, nil
}

func (s *ReportService) record(ctx context.Context, job *models.ReportJob, meta AuditMeta) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(job.Params)
	var actor *string
	if meta.ActorID != "" {
		actor = &meta.ActorID
	}
	if err := s.audit.Create(ctx, &models.AuditLog{
		ActorID:    actor,
		Action:     models.AuditActionReportRequest,
		Resource:   "report_jobs",
		ResourceID: &job.ID,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", models.AuditActionReportRequest), zap.Error(err))
	}
}

// ReportWorker bridges queue jobs to ExportService. The queue owns retries;
// the worker only marks a job FAILED on its last attempt.
type ReportWorker struct {
	repo       reportJobStore
	exporter   exportGenerator
	metrics    reportMetrics
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewReportWorker constructs a worker. maxRetries must match the queue's.
func NewReportWorker(repo reportJobStore, exporter exportGenerator, metrics reportMetrics, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ReportWorker{
		repo:       repo,
		exporter:   exporter,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// Handle processes a queue job.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Warn("report job vanished", zap.String("job_id", job.ID))
			return nil
		}
		return err
	}
	if record.Status == models.ReportStatusFinished || record.Status == models.ReportStatusFailed {
		return nil
	}
	processing := models.ReportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}
	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.ReportStatusFailed
			progress = 100
			now := w.now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Warn("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
			w.observe(models.ReportStatusFailed)
		} else {
			queued := models.ReportStatusQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Warn("failed to mark job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		}
		return err
	}
	finished := models.ReportStatusFinished
	progress = 100
	now := w.now().UTC()
	path := result.RelativePath
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultPath:   &path,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.observe(models.ReportStatusFinished)
	return nil
}

func (w *ReportWorker) observe(status models.ReportStatus) {
	if w.metrics != nil {
		w.metrics.RecordReportJob(status)
	}
}
