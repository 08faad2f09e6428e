package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-center-api/internal/models"
	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
	"github.com/noah-isme/tuition-center-api/pkg/response"
)

const (
	// ContextClaimsKey is the gin context key storing JWT claims.
	ContextClaimsKey = "currentClaims"
	// ContextPrincipalKey is the gin context key storing the freshly loaded teacher.
	ContextPrincipalKey = "currentTeacher"
)

// Authenticator validates bearer tokens and reloads the account behind them.
type Authenticator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
	ResolvePrincipal(ctx context.Context, claims *models.JWTClaims) (*models.Teacher, error)
}

// Authenticate requires a valid access token for an existing, active teacher.
// The teacher row is read on every request so deactivation applies immediately.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, err)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			abort(c, err)
			return
		}

		teacher, err := auth.ResolvePrincipal(c.Request.Context(), claims)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextPrincipalKey, teacher)
		c.Next()
	}
}

// Principal returns the authenticated teacher, if any.
func Principal(c *gin.Context) *models.Teacher {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return nil
	}
	teacher, ok := value.(*models.Teacher)
	if !ok {
		return nil
	}
	return teacher
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

func abort(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
