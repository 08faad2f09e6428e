package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/internal/service"
	"github.com/noah-isme/tuition-center-api/pkg/response"
)

type analyticsService interface {
	Overview(ctx context.Context, day models.Day) (*models.AttendanceOverview, error)
	Trend(ctx context.Context, population models.Population, period models.TrendPeriod, endDay models.Day) (*models.AttendanceTrend, error)
	LowAttendance(ctx context.Context, q service.LowAttendanceQuery) (*models.LowAttendanceReport, error)
}

type snapshotService interface {
	Snapshot(ctx context.Context, day models.Day, filter models.CohortFilter) (*models.CohortSnapshot, error)
}

// AnalyticsHandler exposes the admin attendance dashboard.
type AnalyticsHandler struct {
	analytics analyticsService
	students  snapshotService
	teachers  snapshotService
	loc       *time.Location
}

// NewAnalyticsHandler constructs AnalyticsHandler.
func NewAnalyticsHandler(analytics analyticsService, students, teachers snapshotService, loc *time.Location) *AnalyticsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsHandler{analytics: analytics, students: students, teachers: teachers, loc: loc}
}

// Overview godoc
// @Summary Attendance overview
// @Description Totals for both populations plus grade, group and department rollups for a day.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	day, err := queryDay(c, "date", h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	overview, err := h.analytics.Overview(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Students godoc
// @Summary Student attendance snapshot
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Param grade query string false "Grade"
// @Param group query string false "Group (A, B or C)"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance/students [get]
func (h *AnalyticsHandler) Students(c *gin.Context) {
	h.snapshot(c, h.students, models.CohortFilter{
		Grade: strings.TrimSpace(c.Query("grade")),
		Group: models.StudentGroup(strings.ToUpper(strings.TrimSpace(c.Query("group")))),
	})
}

// Teachers godoc
// @Summary Teacher attendance snapshot
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Param department query string false "Department"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance/teachers [get]
func (h *AnalyticsHandler) Teachers(c *gin.Context) {
	h.snapshot(c, h.teachers, models.CohortFilter{Department: strings.TrimSpace(c.Query("department"))})
}

// Trends godoc
// @Summary Attendance trend
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param population query string false "students or teachers"
// @Param period query string false "weekly or monthly"
// @Param endDate query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance/trends [get]
func (h *AnalyticsHandler) Trends(c *gin.Context) {
	endDay, err := queryDay(c, "endDate", h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	population := models.Population(c.DefaultQuery("population", string(models.PopulationStudents)))
	period := models.TrendPeriod(c.DefaultQuery("period", string(models.TrendWeekly)))
	trend, err := h.analytics.Trend(c.Request.Context(), population, period, endDay)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trend, nil)
}

// LowAttendance godoc
// @Summary Low attendance list
// @Description People whose marked-days percentage over the window is under the threshold.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param population query string false "students or teachers"
// @Param days query int false "Rolling window in days"
// @Param threshold query number false "Percent threshold"
// @Param grade query string false "Grade"
// @Param group query string false "Group"
// @Param department query string false "Department"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance/low [get]
func (h *AnalyticsHandler) LowAttendance(c *gin.Context) {
	days, err := queryInt(c, "days", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	threshold, err := queryFloat(c, "threshold")
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.analytics.LowAttendance(c.Request.Context(), service.LowAttendanceQuery{
		Population: models.Population(c.DefaultQuery("population", string(models.PopulationStudents))),
		WindowDays: days,
		Threshold:  threshold,
		Filter: models.CohortFilter{
			Grade:      strings.TrimSpace(c.Query("grade")),
			Group:      models.StudentGroup(strings.ToUpper(strings.TrimSpace(c.Query("group")))),
			Department: strings.TrimSpace(c.Query("department")),
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

func (h *AnalyticsHandler) snapshot(c *gin.Context, svc snapshotService, filter models.CohortFilter) {
	day, err := queryDay(c, "date", h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	snap, err := svc.Snapshot(c.Request.Context(), day, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, nil)
}
