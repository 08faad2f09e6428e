package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	"github.com/noah-isme/tuition-center-api/internal/models"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

type progressLogRepository interface {
	Create(ctx context.Context, log *models.ProgressLog) error
	ListByStudent(ctx context.Context, studentID string) ([]models.ProgressLog, error)
	LatestMentor(ctx context.Context, studentID string) (*string, error)
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// ProgressService appends to and reads student progress logs.
type ProgressService struct {
	repo      progressLogRepository
	students  studentLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgressService constructs the progress service.
func NewProgressService(repo progressLogRepository, students studentLookup, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{repo: repo, students: students, validator: defaultValidator(validate), logger: logger}
}

// Append adds a log entry. The mentor carries over from the latest entry
// unless the request names a new one.
func (s *ProgressService) Append(ctx context.Context, principal *models.Teacher, studentID string, req dto.CreateProgressLogRequest) (*models.ProgressLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid progress payload")
	}
	note := strings.TrimSpace(req.Note)
	if note == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "note is required")
	}
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}

	existing, err := s.repo.LatestMentor(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load mentor")
	}

	entry := &models.ProgressLog{
		StudentID:   studentID,
		TeacherID:   principal.ID,
		TeacherName: &principal.FullName,
		Note:        note,
		Mentor:      models.ResolveMentor(existing, req.Mentor),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Internal(err, "failed to save progress log")
	}
	return entry, nil
}

// List returns a student's log, newest first.
func (s *ProgressService) List(ctx context.Context, studentID string) ([]models.ProgressLog, error) {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}
	logs, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list progress logs")
	}
	return logs, nil
}

func (s *ProgressService) ensureStudent(ctx context.Context, studentID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Internal(err, "failed to load student")
	}
	if !student.IsActive {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}
