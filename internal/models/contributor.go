package models

import "time"

// Contributor is a public credits entry shown in display order.
type Contributor struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Role         string    `db:"role" json:"role"`
	Description  string    `db:"description" json:"description"`
	ImageURL     *string   `db:"image_url" json:"imageUrl,omitempty"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
