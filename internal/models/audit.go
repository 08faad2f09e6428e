package models

import "time"

// Audited actions.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionRegister          = "TEACHER_REGISTER"
	AuditActionPasswordChange    = "PASSWORD_CHANGE"
	AuditActionTeacherVerify     = "TEACHER_VERIFY"
	AuditActionTeacherDeactivate = "TEACHER_DEACTIVATE"
	AuditActionStudentDelete     = "STUDENT_DELETE"
	AuditActionContributorCreate = "CONTRIBUTOR_CREATE"
	AuditActionContributorUpdate = "CONTRIBUTOR_UPDATE"
	AuditActionContributorDelete = "CONTRIBUTOR_DELETE"
	AuditActionReportRequest     = "REPORT_REQUEST"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actorId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  []byte    `db:"old_values" json:"oldValues,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
