package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

type AssetTransactionRepo interface {
	Create(dbc dbctx.Context, txs []*types.AssetTransaction) ([]*types.AssetTransaction, error)
	DeleteByAssetID(dbc dbctx.Context, assetID uuid.UUID) error
}

type assetTransactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetTransactionRepo(db *gorm.DB, baseLog *logger.Logger) AssetTransactionRepo {
	return &assetTransactionRepo{db: db, log: baseLog.With("repo", "AssetTransactionRepo")}
}

func (r *assetTransactionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *assetTransactionRepo) Create(dbc dbctx.Context, txs []*types.AssetTransaction) ([]*types.AssetTransaction, error) {
	if len(txs) == 0 {
		return []*types.AssetTransaction{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *assetTransactionRepo) DeleteByAssetID(dbc dbctx.Context, assetID uuid.UUID) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Where("asset_id = ?", assetID).
		Delete(&types.AssetTransaction{}).Error
}
