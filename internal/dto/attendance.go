package dto

import "github.com/noah-isme/tuition-center-api/internal/models"

// MarkAttendanceRequest creates the record for a person and day. TimeMarked is
// the display time for students; teachers send TimeIn.
type MarkAttendanceRequest struct {
	UserID     string                  `json:"userId" validate:"required,uuid"`
	Date       models.Day              `json:"date"`
	Status     models.AttendanceStatus `json:"status" validate:"required,attendance_status"`
	TimeMarked string                  `json:"timeMarked" validate:"omitempty,max=32"`
	TimeIn     string                  `json:"timeIn" validate:"omitempty,max=32"`
	TimeOut    string                  `json:"timeOut" validate:"omitempty,max=32"`
}

// UnmarkAttendanceRequest removes the record for a person and day.
type UnmarkAttendanceRequest struct {
	UserID string     `json:"userId" validate:"required,uuid"`
	Date   models.Day `json:"date"`
}

// UpdateAttendanceRequest corrects a record in place. The day key never changes.
type UpdateAttendanceRequest struct {
	Status  models.AttendanceStatus `json:"status" validate:"required,attendance_status"`
	TimeOut *string                 `json:"timeOut" validate:"omitempty,max=32"`
}

// AttendanceRange bounds stats and history queries.
type AttendanceRange struct {
	Start models.Day
	End   models.Day
}
