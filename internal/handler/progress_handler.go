package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	"github.com/noah-isme/tuition-center-api/internal/service"
	"github.com/noah-isme/tuition-center-api/pkg/response"
)

// ProgressHandler exposes student progress logs.
type ProgressHandler struct {
	progress *service.ProgressService
}

// NewProgressHandler constructs ProgressHandler.
func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// Append godoc
// @Summary Append progress note
// @Description Mentor is optional; an omitted mentor keeps the student's current one.
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body dto.CreateProgressLogRequest true "Progress payload"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/progress [post]
func (h *ProgressHandler) Append(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateProgressLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid progress payload"))
		return
	}
	entry, err := h.progress.Append(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// List godoc
// @Summary List progress notes
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/progress [get]
func (h *ProgressHandler) List(c *gin.Context) {
	entries, err := h.progress.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
