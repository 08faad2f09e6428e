package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	"github.com/noah-isme/tuition-center-api/internal/service"
	"github.com/noah-isme/tuition-center-api/pkg/response"
)

// ContributorHandler exposes the contributors page.
type ContributorHandler struct {
	contributors *service.ContributorService
}

// NewContributorHandler constructs ContributorHandler.
func NewContributorHandler(contributors *service.ContributorService) *ContributorHandler {
	return &ContributorHandler{contributors: contributors}
}

// List godoc
// @Summary List contributors
// @Tags Contributors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /contributors [get]
func (h *ContributorHandler) List(c *gin.Context) {
	items, err := h.contributors.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Create contributor
// @Tags Contributors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ContributorRequest true "Contributor payload"
// @Success 201 {object} response.Envelope
// @Router /contributors [post]
func (h *ContributorHandler) Create(c *gin.Context) {
	var req dto.ContributorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid contributor payload"))
		return
	}
	item, err := h.contributors.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update contributor
// @Tags Contributors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contributor ID"
// @Param payload body dto.ContributorRequest true "Contributor payload"
// @Success 200 {object} response.Envelope
// @Router /contributors/{id} [put]
func (h *ContributorHandler) Update(c *gin.Context) {
	var req dto.ContributorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid contributor payload"))
		return
	}
	item, err := h.contributors.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Remove contributor
// @Tags Contributors
// @Security BearerAuth
// @Param id path string true "Contributor ID"
// @Success 204 {object} response.Envelope
// @Router /contributors/{id} [delete]
func (h *ContributorHandler) Delete(c *gin.Context) {
	if err := h.contributors.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
