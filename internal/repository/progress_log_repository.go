package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

// ProgressLogRepository stores the append-only student progress journal.
type ProgressLogRepository struct {
	db *sqlx.DB
}

// NewProgressLogRepository constructs a ProgressLogRepository.
func NewProgressLogRepository(db *sqlx.DB) *ProgressLogRepository {
	return &ProgressLogRepository{db: db}
}

// Create appends a log entry.
func (r *ProgressLogRepository) Create(ctx context.Context, log *models.ProgressLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO progress_logs (id, student_id, teacher_id, note, mentor, created_at) VALUES (:id, :student_id, :teacher_id, :note, :mentor, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create progress log: %w", err)
	}
	return nil
}

// ListByStudent returns a student's log, newest first.
func (r *ProgressLogRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ProgressLog, error) {
	const query = `SELECT l.id, l.student_id, l.teacher_id, t.full_name AS teacher_name, l.note, l.mentor, l.created_at FROM progress_logs l LEFT JOIN teachers t ON t.id = l.teacher_id WHERE l.student_id = $1 ORDER BY l.created_at DESC, l.id DESC`
	logs := make([]models.ProgressLog, 0)
	if err := r.db.SelectContext(ctx, &logs, query, studentID); err != nil {
		if isMalformedKey(err) {
			return logs, nil
		}
		return nil, fmt.Errorf("list progress logs: %w", err)
	}
	return logs, nil
}

// LatestMentor returns the mentor recorded on the student's most recent entry,
// or nil when the student has no entries or none named a mentor.
func (r *ProgressLogRepository) LatestMentor(ctx context.Context, studentID string) (*string, error) {
	const query = `SELECT mentor FROM progress_logs WHERE student_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	var mentor sql.NullString
	if err := r.db.GetContext(ctx, &mentor, query, studentID); err != nil {
		if missingIfMalformed(err) == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest mentor: %w", err)
	}
	if !mentor.Valid {
		return nil, nil
	}
	return &mentor.String, nil
}
