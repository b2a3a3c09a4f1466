package middleware

import (
	"github.com/gin-gonic/gin"

	"garasi/internal/core/security"
)

// UserContext derives the caller's AccessScope from the authenticated
// user and pins it on the request context, so domain services get one
// consistent scope per request instead of rebuilding it on every call.
//
// Must run AFTER Auth, which populates the user context.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		scope := security.NewAccessScope(ctx)
		if scope.UserID != "" {
			c.Request = c.Request.WithContext(security.WithScope(ctx, scope))
		}
		c.Next()
	}
}
