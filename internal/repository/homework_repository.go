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

const homeworkColumns = "h.id, h.student_group, h.subject, h.description, h.due_date, h.date_assigned, h.status, h.teacher_id, t.full_name AS teacher_name, h.created_at, h.updated_at"

// HomeworkRepository manages homework assignments.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository constructs a HomeworkRepository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

// Create inserts a homework row. DateAssigned defaults to now.
func (r *HomeworkRepository) Create(ctx context.Context, hw *models.Homework) error {
	if hw.ID == "" {
		hw.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if hw.DateAssigned.IsZero() {
		hw.DateAssigned = now
	}
	if hw.Status == "" {
		hw.Status = models.HomeworkPending
	}
	hw.CreatedAt = now
	hw.UpdatedAt = now

	const query = `INSERT INTO homework (id, student_group, subject, description, due_date, date_assigned, status, teacher_id, created_at, updated_at) VALUES (:id, :student_group, :subject, :description, :due_date, :date_assigned, :status, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hw); err != nil {
		return fmt.Errorf("create homework: %w", err)
	}
	return nil
}

// FindByID fetches a homework with its teacher's name. Missing rows return sql.ErrNoRows.
func (r *HomeworkRepository) FindByID(ctx context.Context, id string) (*models.Homework, error) {
	query := "SELECT " + homeworkColumns + " FROM homework h LEFT JOIN teachers t ON t.id = h.teacher_id WHERE h.id = $1"
	var hw models.Homework
	if err := r.db.GetContext(ctx, &hw, query, id); err != nil {
		return nil, missingIfMalformed(err)
	}
	return &hw, nil
}

// List returns homework matching filter, newest assignment first.
func (r *HomeworkRepository) List(ctx context.Context, filter models.HomeworkFilter) ([]models.Homework, int, error) {
	base := "FROM homework h LEFT JOIN teachers t ON t.id = h.teacher_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Group != "" {
		conditions = append(conditions, fmt.Sprintf("h.student_group = $%d", len(args)+1))
		args = append(args, filter.Group)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("h.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("h.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.AssignedFrom != nil {
		conditions = append(conditions, fmt.Sprintf("h.date_assigned >= $%d", len(args)+1))
		args = append(args, *filter.AssignedFrom)
	}
	if filter.AssignedTo != nil {
		conditions = append(conditions, fmt.Sprintf("h.date_assigned < $%d", len(args)+1))
		args = append(args, *filter.AssignedTo)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY h.date_assigned DESC, h.id LIMIT %d OFFSET %d", homeworkColumns, base, size, (page-1)*size)
	items := make([]models.Homework, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		if isMalformedKey(err) {
			return items, 0, nil
		}
		return nil, 0, fmt.Errorf("list homework: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count homework: %w", err)
	}
	return items, total, nil
}

// UpdateStatus sets the homework status. Returns sql.ErrNoRows when the row is missing.
func (r *HomeworkRepository) UpdateStatus(ctx context.Context, id string, status models.HomeworkStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE homework SET status = $2, updated_at = $3 WHERE id = $1", id, status, time.Now().UTC())
	if err != nil {
		return classify("update homework status", err)
	}
	return requireAffected(res, "update homework status")
}

// Delete removes a homework row. Returns sql.ErrNoRows when the row is missing.
func (r *HomeworkRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM homework WHERE id = $1", id)
	if err != nil {
		return classify("delete homework", err)
	}
	return requireAffected(res, "delete homework")
}
