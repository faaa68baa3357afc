package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foldervault/internal/middleware"
	"foldervault/internal/pkg/apperr"
	"foldervault/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /users?role=client
func (h *Handler) List(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	users, err := h.service.List(c.Request.Context(), caller, c.Query("role"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// Delete handles DELETE /users/:id
func (h *Handler) Delete(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), "Invalid user ID")
		return
	}
	if err := h.service.Delete(c.Request.Context(), caller, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "User deleted"})
}

func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	users := r.Group("/users")
	{
		users.GET("", h.List)
		users.DELETE("/:id", h.Delete)
	}
}
