package events

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"foldervault/internal/domain/access"
	"foldervault/internal/pkg/apperr"
	"foldervault/internal/pkg/jwt"
	"foldervault/internal/pkg/response"
)

type Handler struct {
	hub      *Hub
	jwt      *jwt.Service
	upgrader websocket.Upgrader
}

// NewHandler accepts upgrades from the given origins; an empty list or "*"
// accepts any origin.
func NewHandler(hub *Hub, jwtService *jwt.Service, allowedOrigins []string) *Handler {
	anyOrigin := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &Handler{
		hub: hub,
		jwt: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return anyOrigin || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Stream handles GET /events?token=JWT. Browsers cannot set headers on a
// websocket handshake, so the credential travels in the query.
func (h *Handler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.FromError(c, apperr.New(apperr.KindUnauthenticated, "Token is required"))
		return
	}
	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.FromError(c, apperr.New(apperr.KindUnauthenticated, "Invalid or expired token"))
		return
	}
	role, err := access.ParseRole(claims.Role)
	if err != nil {
		response.FromError(c, apperr.New(apperr.KindUnauthenticated, "Invalid or expired token"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("events: websocket upgrade failed")
		return
	}
	h.hub.Serve(conn, access.Caller{UserID: claims.UserID, Role: role})
}

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/events", h.Stream)
}
