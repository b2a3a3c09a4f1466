package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"garasi/internal/core/apperror"
	appctx "garasi/internal/core/context"
	"garasi/internal/core/security"
)

// JWTValidator turns a bearer token into the caller's identity.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth rejects requests without a valid bearer token and puts the
// authenticated user on the request context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		user, err := validator.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole passes callers holding any of the given roles. Admins
// pass every gate through the scope's role check.
func RequireRole(roles ...security.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := security.GetScope(c.Request.Context())
		if scope.UserID == "" {
			abortUnauthorized(c, "authentication required")
			return
		}

		for _, role := range roles {
			if scope.HasRole(role) {
				c.Next()
				return
			}
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

// bearerToken pulls the token out of the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
