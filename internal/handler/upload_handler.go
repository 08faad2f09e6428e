package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-center-api/internal/dto"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
	"github.com/noah-isme/tuition-center-api/pkg/response"
)

type avatarUploader interface {
	SaveAvatar(ctx context.Context, r io.Reader, declaredSize int64) (*dto.UploadResponse, error)
}

// UploadHandler accepts avatar uploads.
type UploadHandler struct {
	uploads avatarUploader
}

// NewUploadHandler constructs UploadHandler.
func NewUploadHandler(uploads avatarUploader) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Avatar godoc
// @Summary Upload avatar image
// @Description Stores the image and returns its URL. Attach it to a profile with a separate update.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /uploads/avatar [post]
func (h *UploadHandler) Avatar(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart field \"file\" is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "uploaded file could not be read"))
		return
	}
	defer file.Close()

	res, err := h.uploads.SaveAvatar(c.Request.Context(), file, header.Size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}
