package app

import (
	"gorm.io/gorm"

	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/services"
	"github.com/voltastudio/volta-backend/internal/temporalx"
)

type Services struct {
	Resolver   services.StorageResolver
	Product    services.ProductService
	Asset      services.AssetService
	Billing    services.BillingService
	AutoGen    services.AutoGenService
	Reconciler services.Reconciler
	Sweeper    services.Sweeper
	Enhancer   services.PromptEnhancer
	Dispatcher temporalx.GenerationDispatcher
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	log.Info("Wiring services...")

	resolver := services.NewStorageResolver(log, c.Bucket, c.Legacy)
	notifier := services.NewLogNotifier(log)

	asset := services.NewAssetService(
		db, log,
		r.Asset, r.Version, r.AssetTransaction, r.Inspiration, r.AssetEvent,
		resolver, c.Bucket, c.Legacy, notifier,
	)

	billing := services.NewBillingService(db, log, r.AssetTransaction, asset)
	autogen := services.NewAutoGenService(db, log, r.AutoGenRun, r.Version)
	reconciler := services.NewReconciler(db, log, asset, autogen, billing)
	sweeper := services.NewSweeper(db, log, r.Asset, asset, r.AssetEvent, c.Locker)
	product := services.NewProductService(db, log, r.Product, r.Version)
	dispatcher := temporalx.NewGenerationDispatcher(log, c.Temporal, asset)

	var enhancer services.PromptEnhancer
	if c.GenAI != nil {
		enhancer = services.NewPromptEnhancer(log, c.GenAI)
	}

	return Services{
		Resolver:   resolver,
		Product:    product,
		Asset:      asset,
		Billing:    billing,
		AutoGen:    autogen,
		Reconciler: reconciler,
		Sweeper:    sweeper,
		Enhancer:   enhancer,
		Dispatcher: dispatcher,
	}
}
