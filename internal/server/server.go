// Package server wires the domains into one gin engine.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"foldervault/internal/config"
	"foldervault/internal/database"
	"foldervault/internal/domain/catalog"
	"foldervault/internal/domain/delivery"
	"foldervault/internal/domain/events"
	"foldervault/internal/domain/user"
	"foldervault/internal/middleware"
	"foldervault/internal/pkg/jwt"
	"foldervault/internal/pkg/response"
	"foldervault/internal/storage"
)

type Server struct {
	Engine  *gin.Engine
	JWT     *jwt.Service
	Users   *user.Service
	Catalog *catalog.Service
	Gateway *delivery.Gateway
	Hub     *events.Hub
}

// Migrate creates the catalog and user tables.
func Migrate(db *gorm.DB) error {
	return database.Migrate(db, append([]any{user.Model()}, catalog.Models()...)...)
}

func New(cfg *config.Config, db *gorm.DB, blobs storage.Store) *Server {
	jwtService := jwt.New(cfg.JWTSecret, cfg.JWTTTL)
	hub := events.NewHub()

	userService := user.NewService(user.NewRepository(db), catalog.SharesTable)
	catalogService := catalog.NewService(catalog.NewRepository(db), blobs, userService, hub, cfg.UploadMaxFileSize)
	gateway := delivery.NewGateway(catalogService, blobs, cfg.ArchiveTempDir)

	catalogHandler := catalog.NewHandler(catalogService, catalog.PageSizes{
		AdminFolders:  cfg.Paging.AdminFolderPageSize,
		ClientFolders: cfg.Paging.ClientFolderPageSize,
		Files:         cfg.Paging.FilePageSize,
	})
	userHandler := user.NewHandler(userService)
	deliveryHandler := delivery.NewHandler(gateway)
	eventsHandler := events.NewHandler(hub, jwtService, cfg.CORSAllowedOrigins)

	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorLogger(), middleware.RequestLogger(), middleware.CORS(cfg.CORSAllowedOrigins))
	// Multipart bodies above this spill to disk.
	r.MaxMultipartMemory = 32 << 20

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		admin := api.Group("/admin", middleware.JWTAuth(jwtService), middleware.AdminOnly())
		catalog.RegisterAdminRoutes(admin, catalogHandler)
		user.RegisterAdminRoutes(admin, userHandler)

		client := api.Group("/client")
		// The websocket handshake authenticates from the query string.
		events.RegisterRoutes(client, eventsHandler)

		shared := client.Group("", middleware.JWTAuth(jwtService))
		catalog.RegisterSharedRoutes(shared, catalogHandler)
		delivery.RegisterRoutes(shared, deliveryHandler)
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	return &Server{
		Engine:  r,
		JWT:     jwtService,
		Users:   userService,
		Catalog: catalogService,
		Gateway: gateway,
		Hub:     hub,
	}
}
