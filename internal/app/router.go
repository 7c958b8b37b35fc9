package app

import (
	"github.com/gin-gonic/gin"

	"github.com/voltastudio/volta-backend/internal/server"
)

func wireRouter(handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware: middleware.Auth,
		AssetHandler:   handlers.Asset,
		ProductHandler: handlers.Product,
		AutoGenHandler: handlers.AutoGen,
	})
}
