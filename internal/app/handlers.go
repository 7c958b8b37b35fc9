package app

import (
	"github.com/voltastudio/volta-backend/internal/handlers"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

type Handlers struct {
	Asset   *handlers.AssetHandler
	Product *handlers.ProductHandler
	AutoGen *handlers.AutoGenHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Asset:   handlers.NewAssetHandler(log, services.Asset, services.Dispatcher),
		Product: handlers.NewProductHandler(log, services.Product),
		AutoGen: handlers.NewAutoGenHandler(log, services.Asset, services.AutoGen, services.Dispatcher),
	}
}
