package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

const teacherColumns = "id, roll_no, employee_id, email, password_hash, full_name, phone, department, subject, avatar_url, " +
	"is_verified, is_admin, is_active, last_login, created_at, updated_at"

// Unique constraints on the teachers table.
const (
	TeacherEmailKey      = "teachers_email_key"
	TeacherRollNoKey     = "teachers_roll_no_key"
	TeacherEmployeeIDKey = "teachers_employee_id_key"
)

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching filters along with total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Verified != nil {
		conditions = append(conditions, fmt.Sprintf("is_verified = $%d", len(args)+1))
		args = append(args, *filter.Verified)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(roll_no) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"email":      "email",
		"department": "department",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", teacherColumns, base, column, order, size, offset)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	return teachers, total, nil
}

// FindByID fetches a teacher by ID. Missing rows return sql.ErrNoRows.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := "SELECT " + teacherColumns + " FROM teachers WHERE id = $1"
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, missingIfMalformed(err)
	}
	return &teacher, nil
}

// FindByEmail fetches a teacher by email, case-insensitively.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	query := "SELECT " + teacherColumns + " FROM teachers WHERE LOWER(email) = LOWER($1)"
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, email); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create inserts a new teacher. Unique key collisions surface as *DuplicateError.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (id, roll_no, employee_id, email, password_hash, full_name, phone, department, subject, avatar_url,
		is_verified, is_admin, is_active, last_login, created_at, updated_at)
		VALUES (:id, :roll_no, :employee_id, :email, :password_hash, :full_name, :phone, :department, :subject, :avatar_url,
		:is_verified, :is_admin, :is_active, :last_login, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return classify("create teacher", err)
	}
	return nil
}

// UpdateProfile persists the self-editable profile fields.
func (r *TeacherRepository) UpdateProfile(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET full_name = :full_name, phone = :phone, department = :department, subject = :subject,
		avatar_url = :avatar_url, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return classify("update teacher profile", err)
	}
	return nil
}

// SetVerified marks an active teacher as verified and returns the updated row.
func (r *TeacherRepository) SetVerified(ctx context.Context, id string) (*models.Teacher, error) {
	query := "UPDATE teachers SET is_verified = TRUE, updated_at = $2 WHERE id = $1 AND is_active RETURNING " + teacherColumns
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id, time.Now().UTC()); err != nil {
		if err = missingIfMalformed(err); err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("verify teacher: %w", err)
	}
	return &teacher, nil
}

// Deactivate clears the active flag. Returns sql.ErrNoRows when the teacher does not exist.
func (r *TeacherRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE teachers SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return classify("deactivate teacher", err)
	}
	return requireAffected(res, "deactivate teacher")
}

// UpdatePassword stores a new password hash.
func (r *TeacherRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	const query = `UPDATE teachers SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, hash, time.Now().UTC())
	if err != nil {
		return classify("update teacher password", err)
	}
	return requireAffected(res, "update teacher password")
}

// UpdateLastLogin records a successful login.
func (r *TeacherRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE teachers SET last_login = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return classify("update teacher last login", err)
	}
	return nil
}

// Promote grants admin rights and resets the password. Used by the admin CLI.
func (r *TeacherRepository) Promote(ctx context.Context, id, hash string) error {
	const query = `UPDATE teachers SET is_admin = TRUE, is_verified = TRUE, is_active = TRUE, password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, hash, time.Now().UTC())
	if err != nil {
		return classify("promote teacher", err)
	}
	return requireAffected(res, "promote teacher")
}

// requireAffected converts a zero-row write into sql.ErrNoRows.
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
