package response

import (
	"foldervault/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError renders a classified error. Unclassified errors are attached to
// the gin context so ErrorLogger records them, and the client only sees a
// generic message.
func FromError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		_ = c.Error(err)
	}
	Error(c, kind.HTTPStatus(), kind.Code(), apperr.MessageOf(err))
}

// Abort is FromError followed by c.Abort, for middleware.
func Abort(c *gin.Context, err error) {
	FromError(c, err)
	c.Abort()
}
