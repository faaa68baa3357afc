package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foldervault/internal/middleware"
	"foldervault/internal/pkg/response"
)

type Handler struct {
	gateway *Gateway
}

func NewHandler(gateway *Gateway) *Handler {
	return &Handler{gateway: gateway}
}

// DownloadFile handles GET /files/:id
func (h *Handler) DownloadFile(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	dl, err := h.gateway.DownloadFile(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	send(c, dl, "attachment")
}

// DownloadFolder handles GET /files/folder/:id
func (h *Handler) DownloadFolder(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	dl, err := h.gateway.DownloadFolder(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	send(c, dl, "attachment")
}

// Preview handles GET /files/preview/:id. Unavailable previews answer with
// the matching error code and the reason in details.
func (h *Handler) Preview(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	p, err := h.gateway.PreviewFile(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !p.Available() {
		kind := p.Unavailable.Kind()
		response.ErrorWithDetails(c, kind.HTTPStatus(), kind.Code(), previewMessage(p.Unavailable),
			gin.H{"reason": p.Unavailable})
		return
	}

	// SVG can carry script; keep previews inert.
	c.Header("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	send(c, p.Download, "inline")
}

func send(c *gin.Context, dl *Download, disposition string) {
	defer dl.Body.Close()
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, dl.Size, dl.ContentType, dl.Body, map[string]string{
		"Content-Disposition": ContentDisposition(disposition, dl.Name),
	})
}

func previewMessage(r Reason) string {
	switch r {
	case ReasonAccessDenied:
		return "Access denied"
	case ReasonNotFound:
		return "File not found"
	}
	return "Preview is only available for images"
}

// RegisterRoutes registers delivery routes; both roles use them and the
// gateway applies the capability checks.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	files := r.Group("/files")
	{
		files.GET("/folder/:id", h.DownloadFolder)
		files.GET("/preview/:id", h.Preview)
		files.GET("/:id", h.DownloadFile)
	}
}
