package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

const reportJobColumns = "id, params, status, progress, result_path, created_by, created_at, finished_at, error_message"

// ReportRepository persists report job metadata.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report job row with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	params, err := job.Params.Value()
	if err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	const query = `INSERT INTO report_jobs (id, params, status, progress, result_path, created_by, created_at, finished_at, error_message) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	args := []interface{}{job.ID, jsonText(params.([]byte)), job.Status, job.Progress, job.ResultPath, job.CreatedBy, job.CreatedAt, job.FinishedAt, job.ErrorMessage}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// GetByID returns a job row by its identifier. Missing rows return sql.ErrNoRows.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, "SELECT "+reportJobColumns+" FROM report_jobs WHERE id = $1", id); err != nil {
		return nil, missingIfMalformed(err)
	}
	return &job, nil
}

// UpdateReportJobParams defines the mutable fields.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultPath   *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update persists the provided changes for a job row.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	if params.Status != nil {
		args = append(args, *params.Status)
		set = append(set, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Progress != nil {
		args = append(args, *params.Progress)
		set = append(set, fmt.Sprintf("progress = $%d", len(args)))
	}
	if params.ResultPath != nil {
		args = append(args, *params.ResultPath)
		set = append(set, fmt.Sprintf("result_path = $%d", len(args)))
	}
	if params.ErrorMessage != nil {
		args = append(args, *params.ErrorMessage)
		set = append(set, fmt.Sprintf("error_message = $%d", len(args)))
	}
	if params.FinishedAt != nil {
		args = append(args, *params.FinishedAt)
		set = append(set, fmt.Sprintf("finished_at = $%d", len(args)))
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify("update report job", err)
	}
	return requireAffected(res, "update report job")
}

// ListQueued fetches queued jobs for recovery after a restart.
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := "SELECT " + reportJobColumns + " FROM report_jobs WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1"
	jobs := make([]models.ReportJob, 0)
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list queued report jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore retrieves completed jobs prior to cutoff for cleanup.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + reportJobColumns + " FROM report_jobs WHERE status = 'FINISHED' AND result_path IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2"
	jobs := make([]models.ReportJob, 0)
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished report jobs: %w", err)
	}
	return jobs, nil
}

// ClearResult drops the stored result path once the file has been removed.
func (r *ReportRepository) ClearResult(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE report_jobs SET result_path = NULL WHERE id = $1", id); err != nil {
		return classify("clear report result", err)
	}
	return nil
}
