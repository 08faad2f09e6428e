package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	"github.com/noah-isme/tuition-center-api/internal/models"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

type homeworkRepository interface {
	Create(ctx context.Context, hw *models.Homework) error
	FindByID(ctx context.Context, id string) (*models.Homework, error)
	List(ctx context.Context, filter models.HomeworkFilter) ([]models.Homework, int, error)
	UpdateStatus(ctx context.Context, id string, status models.HomeworkStatus) error
	Delete(ctx context.Context, id string) error
}

// HomeworkService handles homework assignment and tracking.
type HomeworkService struct {
	repo      homeworkRepository
	validator *validator.Validate
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewHomeworkService constructs the homework service. Day filters use loc.
func NewHomeworkService(repo homeworkRepository, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *HomeworkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &HomeworkService{repo: repo, validator: defaultValidator(validate), logger: logger, loc: loc, now: time.Now}
}

// Create assigns homework to a group. The due date may not fall on a day
// before the assignment day.
func (s *HomeworkService) Create(ctx context.Context, principal *models.Teacher, req dto.CreateHomeworkRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid homework payload")
	}
	subject := strings.TrimSpace(req.Subject)
	description := strings.TrimSpace(req.Description)
	if subject == "" || description == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject and description are required")
	}

	assigned := s.now().UTC()
	if models.DayOf(req.DueDate, s.loc).Before(models.DayOf(assigned, s.loc)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dueDate cannot be before the assignment day")
	}

	hw := &models.Homework{
		Group:        req.Group,
		Subject:      subject,
		Description:  description,
		DueDate:      req.DueDate.UTC(),
		DateAssigned: assigned,
		Status:       models.HomeworkPending,
		TeacherID:    principal.ID,
		TeacherName:  &principal.FullName,
	}
	if err := s.repo.Create(ctx, hw); err != nil {
		return nil, appErrors.Internal(err, "failed to create homework")
	}
	return hw, nil
}

// ListByGroup returns a group's homework, newest first.
func (s *HomeworkService) ListByGroup(ctx context.Context, group models.StudentGroup, page, size int) ([]models.Homework, *models.Pagination, error) {
	if !group.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "group must be one of A, B, C")
	}
	return s.list(ctx, models.HomeworkFilter{Group: group, Page: page, PageSize: size})
}

// ListByTeacher returns homework assigned by a teacher.
func (s *HomeworkService) ListByTeacher(ctx context.Context, teacherID string, page, size int) ([]models.Homework, *models.Pagination, error) {
	return s.list(ctx, models.HomeworkFilter{TeacherID: teacherID, Page: page, PageSize: size})
}

// ListForDay returns homework whose assignment instant falls on day in the
// configured timezone. An empty group matches every group.
func (s *HomeworkService) ListForDay(ctx context.Context, day models.Day, group models.StudentGroup) ([]models.Homework, *models.Pagination, error) {
	if group != "" && !group.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "group must be one of A, B, C")
	}
	from := day.Start(s.loc)
	to := day.AddDays(1).Start(s.loc)
	return s.list(ctx, models.HomeworkFilter{
		Group:        group,
		AssignedFrom: &from,
		AssignedTo:   &to,
		PageSize:     100,
	})
}

// Recent lists homework assigned today.
func (s *HomeworkService) Recent(ctx context.Context, group models.StudentGroup) ([]models.Homework, *models.Pagination, error) {
	return s.ListForDay(ctx, s.today(), group)
}

// Yesterday lists homework assigned on the previous calendar day.
func (s *HomeworkService) Yesterday(ctx context.Context, group models.StudentGroup) ([]models.Homework, *models.Pagination, error) {
	return s.ListForDay(ctx, s.today().AddDays(-1), group)
}

// UpdateStatus moves homework from pending to completed. Repeating the
// current status is accepted; any other transition is rejected.
func (s *HomeworkService) UpdateStatus(ctx context.Context, id string, req dto.UpdateHomeworkStatusRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid status payload")
	}
	hw, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !hw.Status.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "homework can only move from pending to completed")
	}
	if hw.Status == req.Status {
		return hw, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Internal(err, "failed to update homework")
	}
	hw.Status = req.Status
	hw.UpdatedAt = time.Now().UTC()
	return hw, nil
}

// Delete removes homework. Only the assigning teacher or an admin may delete it.
func (s *HomeworkService) Delete(ctx context.Context, principal *models.Teacher, id string) error {
	hw, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !principal.CanAdminister() && hw.TeacherID != principal.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the assigning teacher can delete this homework")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return appErrors.Internal(err, "failed to delete homework")
	}
	return nil
}

func (s *HomeworkService) get(ctx context.Context, id string) (*models.Homework, error) {
	hw, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Internal(err, "failed to load homework")
	}
	return hw, nil
}

func (s *HomeworkService) list(ctx context.Context, filter models.HomeworkFilter) ([]models.Homework, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list homework")
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *HomeworkService) today() models.Day {
	return models.DayOf(s.now(), s.loc)
}
