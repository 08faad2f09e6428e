package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/pkg/response"
)

type attendanceService interface {
	Population() models.Population
	Mark(ctx context.Context, principal *models.Teacher, req dto.MarkAttendanceRequest) (*models.AttendanceRecord, error)
	Unmark(ctx context.Context, principal *models.Teacher, req dto.UnmarkAttendanceRequest) error
	Update(ctx context.Context, principal *models.Teacher, recordID string, req dto.UpdateAttendanceRequest) (*models.AttendanceRecord, error)
	Stats(ctx context.Context, subjectID string, rng dto.AttendanceRange) (*models.AttendanceStats, error)
	History(ctx context.Context, subjectID string, rng dto.AttendanceRange) ([]models.AttendanceRecord, error)
}

// AttendanceHandler serves one population's attendance routes. The same
// handler type backs /attendance (students) and /teacher-attendance.
type AttendanceHandler struct {
	service attendanceService
	loc     *time.Location
}

// NewAttendanceHandler constructs AttendanceHandler. loc interprets RFC 3339 query dates.
func NewAttendanceHandler(svc attendanceService, loc *time.Location) *AttendanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceHandler{service: svc, loc: loc}
}

// Mark godoc
// @Summary Mark attendance
// @Description Creates the single record for a person and day. A second mark for the same day fails with DUPLICATE_RECORD.
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.MarkAttendanceRequest true "Mark payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/mark [post]
// @Router /teacher-attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid attendance payload"))
		return
	}
	record, err := h.service.Mark(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Unmark godoc
// @Summary Unmark attendance
// @Description Deletes the record for a person and day. Unmarking an unmarked day returns 404.
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UnmarkAttendanceRequest true "Unmark payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/unmark [put]
// @Router /teacher-attendance/unmark [put]
func (h *AttendanceHandler) Unmark(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UnmarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid attendance payload"))
		return
	}
	if err := h.service.Unmark(c.Request.Context(), principal, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "attendance unmarked", "userId": req.UserID, "date": req.Date}, nil)
}

// Update godoc
// @Summary Correct attendance status
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Param payload body dto.UpdateAttendanceRequest true "Correction payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{id} [patch]
// @Router /teacher-attendance/{id} [patch]
func (h *AttendanceHandler) Update(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid attendance payload"))
		return
	}
	record, err := h.service.Update(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Stats godoc
// @Summary Attendance statistics
// @Description Counts marked days only. Defaults to the trailing 30 days.
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student or teacher ID"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /attendance/stats/{id} [get]
// @Router /teacher-attendance/stats/{id} [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	rng, err := h.queryRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), c.Param("id"), rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// History godoc
// @Summary Attendance history
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student or teacher ID"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /attendance/history/{id} [get]
// @Router /teacher-attendance/history/{id} [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	rng, err := h.queryRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.service.History(c.Request.Context(), c.Param("id"), rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

func (h *AttendanceHandler) queryRange(c *gin.Context) (dto.AttendanceRange, error) {
	start, err := queryDay(c, "startDate", h.loc)
	if err != nil {
		return dto.AttendanceRange{}, err
	}
	end, err := queryDay(c, "endDate", h.loc)
	if err != nil {
		return dto.AttendanceRange{}, err
	}
	return dto.AttendanceRange{Start: start, End: end}, nil
}
