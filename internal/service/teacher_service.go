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

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	UpdateProfile(ctx context.Context, teacher *models.Teacher) error
	SetVerified(ctx context.Context, id string) (*models.Teacher, error)
	Deactivate(ctx context.Context, id string) error
}

// AuditMeta carries request metadata recorded with admin actions.
type AuditMeta struct {
	ActorID   string
	IP        string
	UserAgent string
}

// TeacherService handles teacher profile and verification use-cases.
type TeacherService struct {
	repo      teacherRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(repo teacherRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, audit: audit, validator: defaultValidator(validate), logger: logger}
}

// List returns teachers and pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list teachers")
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListPending returns active teachers awaiting verification.
func (s *TeacherService) ListPending(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	verified, active := false, true
	filter.Verified = &verified
	filter.Active = &active
	if filter.SortBy == "" {
		filter.SortBy = "created_at"
		filter.SortOrder = "ASC"
	}
	return s.List(ctx, filter)
}

// Get fetches a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	return teacher, nil
}

// UpdateProfile applies the non-nil fields of req to the teacher's own profile.
// Setting the same avatar URL twice leaves the profile unchanged.
func (s *TeacherService) UpdateProfile(ctx context.Context, id string, req dto.UpdateProfileRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		teacher.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		teacher.Phone = emptyToNil(*req.Phone)
	}
	if req.Department != nil {
		teacher.Department = strings.TrimSpace(*req.Department)
	}
	if req.Subject != nil {
		teacher.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.AvatarURL != nil {
		teacher.AvatarURL = emptyToNil(*req.AvatarURL)
	}

	if err := s.repo.UpdateProfile(ctx, teacher); err != nil {
		return nil, appErrors.Internal(err, "failed to update profile")
	}
	return teacher, nil
}

// Verify flips isVerified for an active teacher. Verifying twice is a no-op.
func (s *TeacherService) Verify(ctx context.Context, id string, meta AuditMeta) (*models.Teacher, error) {
	teacher, err := s.repo.SetVerified(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to verify teacher")
	}
	s.record(ctx, models.AuditActionTeacherVerify, id, meta)
	return teacher, nil
}

// Deactivate soft-deletes a teacher; their next request is rejected.
func (s *TeacherService) Deactivate(ctx context.Context, id string, meta AuditMeta) error {
	if id == meta.ActorID {
		return appErrors.Clone(appErrors.ErrValidation, "admins cannot deactivate themselves")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Internal(err, "failed to deactivate teacher")
	}
	s.record(ctx, models.AuditActionTeacherDeactivate, id, meta)
	return nil
}

func (s *TeacherService) record(ctx context.Context, action, resourceID string, meta AuditMeta) {
	if s.audit == nil {
		return
	}
	var actor *string
	if meta.ActorID != "" {
		actor = &meta.ActorID
	}
	if err := s.audit.Create(ctx, &models.AuditLog{
		ActorID:    actor,
		Action:     action,
		Resource:   "teachers",
		ResourceID: &resourceID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func emptyToNil(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
