package repos

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

type VersionRepo interface {
	Create(dbc dbctx.Context, versions []*types.ProductVersion) ([]*types.ProductVersion, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductVersion, error)
	GetLatestByProductID(dbc dbctx.Context, productID uuid.UUID) (*types.ProductVersion, error)
	TouchActivity(dbc dbctx.Context, id uuid.UUID) error
	SetActiveAsset(dbc dbctx.Context, id uuid.UUID, assetID *uuid.UUID) error
	SetActiveRun(dbc dbctx.Context, id uuid.UUID, runID *uuid.UUID) error
}

type versionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVersionRepo(db *gorm.DB, baseLog *logger.Logger) VersionRepo {
	return &versionRepo{db: db, log: baseLog.With("repo", "VersionRepo")}
}

func (r *versionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *versionRepo) Create(dbc dbctx.Context, versions []*types.ProductVersion) ([]*types.ProductVersion, error) {
	if len(versions) == 0 {
		return []*types.ProductVersion{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *versionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductVersion, error) {
	var row types.ProductVersion
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("version %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &row, nil
}

func (r *versionRepo) GetLatestByProductID(dbc dbctx.Context, productID uuid.UUID) (*types.ProductVersion, error) {
	var row types.ProductVersion
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s has no versions: %w", productID, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &row, nil
}

func (r *versionRepo) TouchActivity(dbc dbctx.Context, id uuid.UUID) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.ProductVersion{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

func (r *versionRepo) SetActiveAsset(dbc dbctx.Context, id uuid.UUID, assetID *uuid.UUID) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.ProductVersion{}).
		Where("id = ?", id).
		Updates(map[string]any{"active_asset_id": assetID, "updated_at": time.Now().UTC()}).Error
}

func (r *versionRepo) SetActiveRun(dbc dbctx.Context, id uuid.UUID, runID *uuid.UUID) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.ProductVersion{}).
		Where("id = ?", id).
		Updates(map[string]any{"active_auto_gen_run_id": runID, "updated_at": time.Now().UTC()}).Error
}
