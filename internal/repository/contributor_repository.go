package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

const contributorColumns = "id, name, role, description, image_url, display_order, is_active, created_at, updated_at"

// ContributorRepository manages the public credits list.
type ContributorRepository struct {
	db *sqlx.DB
}

// NewContributorRepository constructs a ContributorRepository.
func NewContributorRepository(db *sqlx.DB) *ContributorRepository {
	return &ContributorRepository{db: db}
}

// ListActive returns active contributors in display order.
func (r *ContributorRepository) ListActive(ctx context.Context) ([]models.Contributor, error) {
	query := "SELECT " + contributorColumns + " FROM contributors WHERE is_active ORDER BY display_order ASC, name ASC"
	items := make([]models.Contributor, 0)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}
	return items, nil
}

// FindByID fetches a contributor. Missing rows return sql.ErrNoRows.
func (r *ContributorRepository) FindByID(ctx context.Context, id string) (*models.Contributor, error) {
	var item models.Contributor
	if err := r.db.GetContext(ctx, &item, "SELECT "+contributorColumns+" FROM contributors WHERE id = $1", id); err != nil {
		return nil, missingIfMalformed(err)
	}
	return &item, nil
}

// Create inserts a contributor.
func (r *ContributorRepository) Create(ctx context.Context, item *models.Contributor) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO contributors (id, name, role, description, image_url, display_order, is_active, created_at, updated_at) VALUES (:id, :name, :role, :description, :image_url, :display_order, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create contributor: %w", err)
	}
	return nil
}

// Update overwrites a contributor's editable fields. Returns sql.ErrNoRows when missing.
func (r *ContributorRepository) Update(ctx context.Context, item *models.Contributor) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE contributors SET name = :name, role = :role, description = :description, image_url = :image_url, display_order = :display_order, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return classify("update contributor", err)
	}
	return requireAffected(res, "update contributor")
}
