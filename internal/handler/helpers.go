package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-center-api/internal/middleware"
	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/internal/service"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

func principalFromContext(c *gin.Context) (*models.Teacher, error) {
	teacher := middleware.Principal(c)
	if teacher == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return teacher, nil
}

func auditMeta(c *gin.Context) service.AuditMeta {
	meta := service.AuditMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if teacher := middleware.Principal(c); teacher != nil {
		meta.ActorID = teacher.ID
	}
	return meta
}

func invalidPayload(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be true or false")
	}
	return &v, nil
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a number")
	}
	return v, nil
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be a number")
	}
	return &v, nil
}

func queryDay(c *gin.Context, key string, loc *time.Location) (models.Day, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return models.Day{}, nil
	}
	day, err := models.ParseDay(raw, loc)
	if err != nil {
		return models.Day{}, appErrors.Clone(appErrors.ErrValidation, key+" must be a YYYY-MM-DD date")
	}
	return day, nil
}

func queryPage(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return models.NormalizePage(page, size)
}
