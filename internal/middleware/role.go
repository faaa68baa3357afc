package middleware

import (
	"github.com/gin-gonic/gin"

	"foldervault/internal/domain/access"
	"foldervault/internal/pkg/response"
)

// RequireRole ensures that the authenticated caller has the given role.
func RequireRole(required access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := MustCaller(c)
		if !ok {
			return
		}
		if caller.Role != required {
			response.Abort(c, access.ErrForbidden)
			return
		}
		c.Next()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(access.RoleAdmin)
}
