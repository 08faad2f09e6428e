package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

// AuditWriter persists audit log rows.
type AuditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit log after successful requests. The ":id" route
// parameter, when present, becomes the resource id.
func Audit(writer AuditWriter, action, resource string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if writer == nil || c.Writer.Status() >= 400 {
			return
		}

		var actorID *string
		if teacher := Principal(c); teacher != nil {
			id := teacher.ID
			actorID = &id
		}
		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		if err := writer.Create(c.Request.Context(), &models.AuditLog{
			ActorID:    actorID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}); err != nil {
			logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
		}
	}
}
