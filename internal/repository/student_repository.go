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

const studentColumns = "id, roll_number, full_name, phone, parent_phone, grade, student_group, avatar_url, is_active, created_at, updated_at"

// StudentRollNumberKey is the unique index on students.roll_number.
const StudentRollNumberKey = "students_roll_number_key"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Group != "" {
		conditions = append(conditions, fmt.Sprintf("student_group = $%d", len(args)+1))
		args = append(args, filter.Group)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(roll_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base := "FROM students WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"full_name":   "full_name",
		"roll_number": "roll_number",
		"grade":       "grade",
		"created_at":  "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, column, order, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student. Missing rows return sql.ErrNoRows.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id = $1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, missingIfMalformed(err)
	}
	return &student, nil
}

// Create inserts a student. A taken roll number surfaces as *DuplicateError.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, roll_number, full_name, phone, parent_phone, grade, student_group, avatar_url, is_active, created_at, updated_at)
		VALUES (:id, :roll_number, :full_name, :phone, :parent_phone, :grade, :student_group, :avatar_url, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return classify("create student", err)
	}
	return nil
}

// Update persists all editable columns.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET roll_number = :roll_number, full_name = :full_name, phone = :phone, parent_phone = :parent_phone,
		grade = :grade, student_group = :student_group, avatar_url = :avatar_url, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return classify("update student", err)
	}
	return nil
}

// Deactivate soft-deletes a student. Returns sql.ErrNoRows when absent.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE students SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return classify("deactivate student", err)
	}
	return requireAffected(res, "deactivate student")
}
