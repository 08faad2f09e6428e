package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

// RequireVerified admits verified teachers and admins. It must run after Authenticate.
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		teacher := Principal(c)
		if teacher == nil {
			abort(c, appErrors.ErrUnauthorized)
			return
		}
		if !teacher.CanAccessCohortData() {
			abort(c, appErrors.ErrNotVerified)
			return
		}
		c.Next()
	}
}

// RequireAdmin admits admins only. It must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		teacher := Principal(c)
		if teacher == nil {
			abort(c, appErrors.ErrUnauthorized)
			return
		}
		if !teacher.CanAdminister() {
			abort(c, appErrors.Clone(appErrors.ErrForbidden, "admin access required"))
			return
		}
		c.Next()
	}
}
