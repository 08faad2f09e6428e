package models

import (
	"strings"
	"time"
)

// ProgressLog is an append-only journal entry for a student.
type ProgressLog struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"studentId"`
	TeacherID   string    `db:"teacher_id" json:"teacherId"`
	TeacherName *string   `db:"teacher_name" json:"teacherName,omitempty"`
	Note        string    `db:"note" json:"note"`
	Mentor      *string   `db:"mentor" json:"mentor,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// ResolveMentor returns the mentor for a new log. An explicit, non-blank input
// wins; otherwise the existing mentor is inherited unchanged (possibly nil).
func ResolveMentor(existing, input *string) *string {
	if input != nil {
		if trimmed := strings.TrimSpace(*input); trimmed != "" {
			return &trimmed
		}
	}
	if existing == nil {
		return nil
	}
	inherited := *existing
	return &inherited
}
