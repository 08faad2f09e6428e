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
	"github.com/noah-isme/tuition-center-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, audit: audit, validator: defaultValidator(validate), logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Group != "" && !filter.Group.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "group must be one of A, B, C")
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

// Create registers a new active student.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student := &models.Student{
		RollNumber:  strings.TrimSpace(req.RollNumber),
		FullName:    strings.TrimSpace(req.FullName),
		Phone:       req.Phone,
		ParentPhone: req.ParentPhone,
		Grade:       strings.TrimSpace(req.Grade),
		Group:       req.Group,
		AvatarURL:   req.AvatarURL,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, studentWriteError(err, "failed to create student")
	}
	return student, nil
}

// Update replaces a student's editable attributes.
func (s *StudentService) Update(ctx context.Context, id string, req dto.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	student.RollNumber = strings.TrimSpace(req.RollNumber)
	student.FullName = strings.TrimSpace(req.FullName)
	student.Phone = req.Phone
	student.ParentPhone = req.ParentPhone
	student.Grade = strings.TrimSpace(req.Grade)
	student.Group = req.Group
	student.AvatarURL = req.AvatarURL
	if req.IsActive != nil {
		student.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, studentWriteError(err, "failed to update student")
	}
	return student, nil
}

// Delete soft-deletes a student.
func (s *StudentService) Delete(ctx context.Context, id string, meta AuditMeta) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Internal(err, "failed to delete student")
	}
	if s.audit != nil {
		var actor *string
		if meta.ActorID != "" {
			actor = &meta.ActorID
		}
		if err := s.audit.Create(ctx, &models.AuditLog{
			ActorID:    actor,
			Action:     models.AuditActionStudentDelete,
			Resource:   "students",
			ResourceID: &id,
			IPAddress:  meta.IP,
			UserAgent:  meta.UserAgent,
		}); err != nil {
			s.logger.Warn("failed to record audit log", zap.Error(err))
		}
	}
	return nil
}

func studentWriteError(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "roll number is already registered")
	}
	return appErrors.Internal(err, message)
}
