package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

// AuditRepository writes the audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create stores an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, actor_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	args := []interface{}{log.ID, log.ActorID, log.Action, log.Resource, log.ResourceID, jsonText(log.OldValues), jsonText(log.NewValues), log.IPAddress, log.UserAgent, log.CreatedAt}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByResource returns entries for a resource, newest first.
func (r *AuditRepository) ListByResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, actor_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at FROM audit_logs WHERE resource = $1 AND resource_id = $2 ORDER BY created_at DESC LIMIT $3`
	logs := make([]models.AuditLog, 0)
	if err := r.db.SelectContext(ctx, &logs, query, resource, resourceID, limit); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

// jsonText sends JSON payloads as text so both drivers bind them to JSONB.
func jsonText(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
