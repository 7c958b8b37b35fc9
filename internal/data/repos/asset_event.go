package repos

import (
	"gorm.io/gorm"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

type AssetEventRepo interface {
	Create(dbc dbctx.Context, events []*types.AssetEvent) ([]*types.AssetEvent, error)
}

type assetEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetEventRepo(db *gorm.DB, baseLog *logger.Logger) AssetEventRepo {
	return &assetEventRepo{db: db, log: baseLog.With("repo", "AssetEventRepo")}
}

func (r *assetEventRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *assetEventRepo) Create(dbc dbctx.Context, events []*types.AssetEvent) ([]*types.AssetEvent, error) {
	if len(events) == 0 {
		return []*types.AssetEvent{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
