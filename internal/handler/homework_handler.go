package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/pkg/response"
)

type homeworkService interface {
	Create(ctx context.Context, principal *models.Teacher, req dto.CreateHomeworkRequest) (*models.Homework, error)
	ListByGroup(ctx context.Context, group models.StudentGroup, page, size int) ([]models.Homework, *models.Pagination, error)
	ListByTeacher(ctx context.Context, teacherID string, page, size int) ([]models.Homework, *models.Pagination, error)
	ListForDay(ctx context.Context, day models.Day, group models.StudentGroup) ([]models.Homework, *models.Pagination, error)
	Recent(ctx context.Context, group models.StudentGroup) ([]models.Homework, *models.Pagination, error)
	Yesterday(ctx context.Context, group models.StudentGroup) ([]models.Homework, *models.Pagination, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateHomeworkStatusRequest) (*models.Homework, error)
	Delete(ctx context.Context, principal *models.Teacher, id string) error
}

// HomeworkHandler exposes the homework ledger.
type HomeworkHandler struct {
	service homeworkService
	loc     *time.Location
}

// NewHomeworkHandler constructs HomeworkHandler.
func NewHomeworkHandler(svc homeworkService, loc *time.Location) *HomeworkHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &HomeworkHandler{service: svc, loc: loc}
}

// Create godoc
// @Summary Assign homework
// @Tags Homework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateHomeworkRequest true "Homework payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /homework [post]
func (h *HomeworkHandler) Create(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid homework payload"))
		return
	}
	hw, err := h.service.Create(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, hw)
}

// List godoc
// @Summary List homework
// @Description With date, lists homework assigned on that day. Otherwise lists a group's homework.
// @Tags Homework
// @Produce json
// @Security BearerAuth
// @Param group query string false "Group (A, B or C)"
// @Param date query string false "YYYY-MM-DD"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /homework [get]
func (h *HomeworkHandler) List(c *gin.Context) {
	group := queryGroup(c)
	day, err := queryDay(c, "date", h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	var (
		items      []models.Homework
		pagination *models.Pagination
	)
	if !day.IsZero() {
		items, pagination, err = h.service.ListForDay(c.Request.Context(), day, group)
	} else {
		page, size := queryPage(c)
		items, pagination, err = h.service.ListByGroup(c.Request.Context(), group, page, size)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ListByTeacher godoc
// @Summary List a teacher's homework
// @Tags Homework
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /homework/teacher/{teacherId} [get]
func (h *HomeworkHandler) ListByTeacher(c *gin.Context) {
	page, size := queryPage(c)
	items, pagination, err := h.service.ListByTeacher(c.Request.Context(), c.Param("teacherId"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Recent godoc
// @Summary Homework assigned today
// @Tags Homework
// @Produce json
// @Security BearerAuth
// @Param group query string false "Group (A, B or C)"
// @Success 200 {object} response.Envelope
// @Router /homework/recent [get]
func (h *HomeworkHandler) Recent(c *gin.Context) {
	items, pagination, err := h.service.Recent(c.Request.Context(), queryGroup(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Yesterday godoc
// @Summary Homework assigned yesterday
// @Tags Homework
// @Produce json
// @Security BearerAuth
// @Param group query string false "Group (A, B or C)"
// @Success 200 {object} response.Envelope
// @Router /homework/yesterday [get]
func (h *HomeworkHandler) Yesterday(c *gin.Context) {
	items, pagination, err := h.service.Yesterday(c.Request.Context(), queryGroup(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// UpdateStatus godoc
// @Summary Update homework status
// @Tags Homework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Homework ID"
// @Param payload body dto.UpdateHomeworkStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /homework/{id}/status [patch]
func (h *HomeworkHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateHomeworkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid status payload"))
		return
	}
	hw, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hw, nil)
}

// Delete godoc
// @Summary Delete homework
// @Tags Homework
// @Security BearerAuth
// @Param id path string true "Homework ID"
// @Success 204 {object} response.Envelope
// @Router /homework/{id} [delete]
func (h *HomeworkHandler) Delete(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), principal, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func queryGroup(c *gin.Context) models.StudentGroup {
	return models.StudentGroup(strings.ToUpper(strings.TrimSpace(c.Query("group"))))
}
