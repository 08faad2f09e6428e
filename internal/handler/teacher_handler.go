package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/internal/service"
	"github.com/noah-isme/tuition-center-api/pkg/response"
)

// TeacherHandler exposes teacher profile and verification endpoints.
type TeacherHandler struct {
	teachers *service.TeacherService
}

// NewTeacherHandler constructs TeacherHandler.
func NewTeacherHandler(teachers *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// Me godoc
// @Summary Own teacher profile
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teachers/me [get]
func (h *TeacherHandler) Me(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.teachers.Get(c.Request.Context(), principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// UpdateMe godoc
// @Summary Update own teacher profile
// @Description Partial update; setting avatarUrl is idempotent and an empty value clears it.
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/me [put]
func (h *TeacherHandler) UpdateMe(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid payload"))
		return
	}
	teacher, err := h.teachers.UpdateProfile(c.Request.Context(), principal.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name, email or roll number"
// @Param department query string false "Filter by department"
// @Param verified query bool false "Filter by verification state"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	filter, err := teacherFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	teachers, pagination, err := h.teachers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// ListPending godoc
// @Summary List teachers awaiting verification
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/teachers [get]
func (h *TeacherHandler) ListPending(c *gin.Context) {
	filter, err := teacherFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if filter.Verified != nil && *filter.Verified {
		teachers, pagination, err := h.teachers.List(c.Request.Context(), filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, teachers, pagination)
		return
	}
	teachers, pagination, err := h.teachers.ListPending(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// Verify godoc
// @Summary Verify teacher
// @Description Flip isVerified once. Verifying an already verified teacher is a no-op.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id}/verify [patch]
func (h *TeacherHandler) Verify(c *gin.Context) {
	teacher, err := h.teachers.Verify(c.Request.Context(), c.Param("id"), auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Deactivate godoc
// @Summary Deactivate teacher
// @Description Soft delete. The teacher's next request is rejected with 401.
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Deactivate(c *gin.Context) {
	if err := h.teachers.Deactivate(c.Request.Context(), c.Param("id"), auditMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func teacherFilter(c *gin.Context) (models.TeacherFilter, error) {
	filter := models.TeacherFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		Department: strings.TrimSpace(c.Query("department")),
		SortBy:     c.Query("sort"),
		SortOrder:  c.Query("order"),
	}
	verified, err := queryBool(c, "verified")
	if err != nil {
		return filter, err
	}
	active, err := queryBool(c, "active")
	if err != nil {
		return filter, err
	}
	filter.Verified = verified
	filter.Active = active
	filter.Page, filter.PageSize = queryPage(c)
	return filter, nil
}
