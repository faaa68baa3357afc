package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"foldervault/internal/domain/access"
	"foldervault/internal/pkg/apperr"
	"foldervault/internal/pkg/jwt"
	"foldervault/internal/pkg/response"
)

const (
	CallerKey = "caller"
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// JWTAuth resolves the bearer credential into an access.Caller once per
// request. Handlers read it back with CallerFrom.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthenticated(c, "header_missing", "Authorization header is required")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			unauthenticated(c, "invalid_format", "Authorization header must be: Bearer <token>")
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			unauthenticated(c, "invalid_token", "Invalid or expired token")
			return
		}
		role, err := access.ParseRole(claims.Role)
		if err != nil {
			unauthenticated(c, "invalid_token", "Invalid or expired token")
			return
		}

		c.Set(CallerKey, access.Caller{UserID: claims.UserID, Role: role})
		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, string(role))
		c.Next()
	}
}

// CallerFrom returns the caller JWTAuth stored on the context.
func CallerFrom(c *gin.Context) (access.Caller, bool) {
	v, ok := c.Get(CallerKey)
	if !ok {
		return access.Caller{}, false
	}
	caller, ok := v.(access.Caller)
	return caller, ok
}

// MustCaller is CallerFrom for handlers; on failure it writes the 401 and
// returns false.
func MustCaller(c *gin.Context) (access.Caller, bool) {
	caller, ok := CallerFrom(c)
	if !ok {
		response.Abort(c, apperr.New(apperr.KindUnauthenticated, "Authentication required"))
	}
	return caller, ok
}

func unauthenticated(c *gin.Context, reason, message string) {
	kind := apperr.KindUnauthenticated
	response.ErrorWithDetails(c, kind.HTTPStatus(), kind.Code(), message, gin.H{"reason": reason})
	c.Abort()
}
