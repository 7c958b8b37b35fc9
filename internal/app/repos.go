package app

import (
	"gorm.io/gorm"

	"github.com/voltastudio/volta-backend/internal/data/repos"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

type Repos struct {
	Product          repos.ProductRepo
	Version          repos.VersionRepo
	Asset            repos.AssetRepo
	AutoGenRun       repos.AutoGenRunRepo
	AssetTransaction repos.AssetTransactionRepo
	Inspiration      repos.InspirationRepo
	AssetEvent       repos.AssetEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Product:          repos.NewProductRepo(db, log),
		Version:          repos.NewVersionRepo(db, log),
		Asset:            repos.NewAssetRepo(db, log),
		AutoGenRun:       repos.NewAutoGenRunRepo(db, log),
		AssetTransaction: repos.NewAssetTransactionRepo(db, log),
		Inspiration:      repos.NewInspirationRepo(db, log),
		AssetEvent:       repos.NewAssetEventRepo(db, log),
	}
}
