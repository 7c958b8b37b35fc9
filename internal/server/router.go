package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/voltastudio/volta-backend/internal/handlers"
	"github.com/voltastudio/volta-backend/internal/middleware"
	"github.com/voltastudio/volta-backend/internal/platform/envutil"
)

type RouterConfig struct {
	AuthMiddleware *middleware.AuthMiddleware
	AssetHandler   *handlers.AssetHandler
	ProductHandler *handlers.ProductHandler
	AutoGenHandler *handlers.AutoGenHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := strings.Split(envutil.String("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	// Products
	protected.POST("/products", cfg.ProductHandler.Create)
	protected.GET("/products/:id", cfg.ProductHandler.Get)
	protected.POST("/products/:id/versions", cfg.ProductHandler.CreateVersion)

	// Assets
	protected.POST("/assets/generate", cfg.AssetHandler.Generate)
	protected.GET("/assets/:id", cfg.AssetHandler.Get)
	protected.GET("/versions/:versionId/assets", cfg.AssetHandler.ListByVersion)
	protected.POST("/assets/:id/regenerate", cfg.AssetHandler.Regenerate)
	protected.POST("/assets/:id/cancel", cfg.AssetHandler.Cancel)
	protected.DELETE("/assets/:id", cfg.AssetHandler.Delete)
	protected.POST("/assets/:id/duplicate", cfg.AssetHandler.Duplicate)
	protected.PATCH("/assets/:id/group", cfg.AssetHandler.UpdateGroup)
	protected.POST("/assets/:id/archive", cfg.AssetHandler.Archive)
	protected.POST("/assets/:id/alternates/select", cfg.AssetHandler.SelectAlternate)
	protected.POST("/assets/:id/history/restore", cfg.AssetHandler.Restore)
	protected.POST("/assets/:id/history/delete", cfg.AssetHandler.DeleteHistoryEntry)

	// Auto-generation runs
	protected.POST("/versions/:versionId/autogen", cfg.AutoGenHandler.StartBatch)
	protected.GET("/autogen/:id", cfg.AutoGenHandler.GetRun)
	protected.POST("/autogen/:id/cancel", cfg.AutoGenHandler.CancelRun)

	return router
}
