package models

import "time"

// HomeworkStatus is the two-value homework lifecycle.
type HomeworkStatus string

const (
	HomeworkPending   HomeworkStatus = "pending"
	HomeworkCompleted HomeworkStatus = "completed"
)

// Valid returns true for a supported status.
func (s HomeworkStatus) Valid() bool {
	return s == HomeworkPending || s == HomeworkCompleted
}

// CanTransitionTo reports whether the status may move to next. Only
// pending -> completed is defined; repeating the current status is a no-op.
func (s HomeworkStatus) CanTransitionTo(next HomeworkStatus) bool {
	if s == next {
		return true
	}
	return s == HomeworkPending && next == HomeworkCompleted
}

// Homework is an assignment for one group. DateAssigned never changes after creation.
type Homework struct {
	ID           string         `db:"id" json:"id"`
	Group        StudentGroup   `db:"student_group" json:"group"`
	Subject      string         `db:"subject" json:"subject"`
	Description  string         `db:"description" json:"description"`
	DueDate      time.Time      `db:"due_date" json:"dueDate"`
	DateAssigned time.Time      `db:"date_assigned" json:"dateAssigned"`
	Status       HomeworkStatus `db:"status" json:"status"`
	TeacherID    string         `db:"teacher_id" json:"teacherId"`
	TeacherName  *string        `db:"teacher_name" json:"teacherName,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// HomeworkFilter scopes homework listings. AssignedFrom is inclusive and
// AssignedTo exclusive.
type HomeworkFilter struct {
	Group        StudentGroup
	TeacherID    string
	Status       HomeworkStatus
	AssignedFrom *time.Time
	AssignedTo   *time.Time
	Page         int
	PageSize     int
}
