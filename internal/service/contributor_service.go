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

type contributorRepository interface {
	ListActive(ctx context.Context) ([]models.Contributor, error)
	FindByID(ctx context.Context, id string) (*models.Contributor, error)
	Create(ctx context.Context, item *models.Contributor) error
	Update(ctx context.Context, item *models.Contributor) error
}

// ContributorService manages the public credits list. Deletes are soft.
type ContributorService struct {
	repo      contributorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContributorService constructs the contributor service.
func NewContributorService(repo contributorRepository, validate *validator.Validate, logger *zap.Logger) *ContributorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContributorService{repo: repo, validator: defaultValidator(validate), logger: logger}
}

// List returns active contributors in display order.
func (s *ContributorService) List(ctx context.Context) ([]models.Contributor, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list contributors")
	}
	return items, nil
}

// Create adds an active contributor.
func (s *ContributorService) Create(ctx context.Context, req dto.ContributorRequest) (*models.Contributor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid contributor payload")
	}
	item := &models.Contributor{IsActive: true}
	applyContributor(item, req)
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Internal(err, "failed to create contributor")
	}
	return item, nil
}

// Update replaces a contributor's fields.
func (s *ContributorService) Update(ctx context.Context, id string, req dto.ContributorRequest) (*models.Contributor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid contributor payload")
	}
	item, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyContributor(item, req)
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, contributorWriteError(err)
	}
	return item, nil
}

// Delete hides a contributor from the public list.
func (s *ContributorService) Delete(ctx context.Context, id string) error {
	item, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	item.IsActive = false
	if err := s.repo.Update(ctx, item); err != nil {
		return contributorWriteError(err)
	}
	return nil
}

func (s *ContributorService) get(ctx context.Context, id string) (*models.Contributor, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contributor not found")
		}
		return nil, appErrors.Internal(err, "failed to load contributor")
	}
	return item, nil
}

func applyContributor(item *models.Contributor, req dto.ContributorRequest) {
	item.Name = strings.TrimSpace(req.Name)
	item.Role = strings.TrimSpace(req.Role)
	item.Description = strings.TrimSpace(req.Description)
	item.ImageURL = req.ImageURL
	item.DisplayOrder = req.DisplayOrder
}

func contributorWriteError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "contributor not found")
	}
	return appErrors.Internal(err, "failed to update contributor")
}
