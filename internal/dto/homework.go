package dto

import (
	"time"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

// CreateHomeworkRequest creates an assignment; every field is required.
type CreateHomeworkRequest struct {
	Group       models.StudentGroup `json:"group" validate:"required,student_group"`
	Subject     string              `json:"subject" validate:"required,max=80"`
	Description string              `json:"description" validate:"required,max=2000"`
	DueDate     time.Time           `json:"dueDate" validate:"required"`
}

// UpdateHomeworkStatusRequest moves a homework along its lifecycle.
type UpdateHomeworkStatusRequest struct {
	Status models.HomeworkStatus `json:"status" validate:"required,homework_status"`
}
