package catalog

import "github.com/gin-gonic/gin"

// RegisterAdminRoutes registers folder management under the admin group.
func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	folders := r.Group("/folders")
	{
		folders.GET("", h.ListFolders)
		folders.POST("", h.CreateFolder)
		folders.GET("/:id", h.GetFolder)
		folders.PATCH("/:id", h.RenameFolder)
		folders.DELETE("/:id", h.DeleteFolder)
		folders.GET("/:id/files", h.ListFiles)
		folders.PUT("/:id/permissions", h.UpdatePermissions)
		folders.DELETE("/:id/permissions/:userId", h.RevokePermission)
		folders.POST("/:id/files", h.UploadFiles)
	}
	r.DELETE("/files/:id", h.DeleteFile)
}

// RegisterSharedRoutes registers the read-only folder views both roles use.
func RegisterSharedRoutes(r *gin.RouterGroup, h *Handler) {
	folders := r.Group("/folders")
	{
		folders.GET("", h.ListFolders)
		folders.GET("/:id", h.GetFolder)
		folders.GET("/:id/files", h.ListFiles)
	}
}
