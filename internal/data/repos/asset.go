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

type AssetRepo interface {
	Create(dbc dbctx.Context, assets []*types.Asset) ([]*types.Asset, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error)
	ListByVersionID(dbc dbctx.Context, versionID uuid.UUID) ([]*types.Asset, error)
	ListPending(dbc dbctx.Context) ([]*types.Asset, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	FullDelete(dbc dbctx.Context, id uuid.UUID) error
	CountCompletedInGroup(dbc dbctx.Context, versionID uuid.UUID, group string, excludeID uuid.UUID) (int64, error)
	CountByLocator(dbc dbctx.Context, loc types.Locator, excludeID uuid.UUID) (int64, error)
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return &assetRepo{db: db, log: baseLog.With("repo", "AssetRepo")}
}

func (r *assetRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *assetRepo) Create(dbc dbctx.Context, assets []*types.Asset) ([]*types.Asset, error) {
	if len(assets) == 0 {
		return []*types.Asset{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *assetRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error) {
	var row types.Asset
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("asset %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &row, nil
}

func (r *assetRepo) ListByVersionID(dbc dbctx.Context, versionID uuid.UUID) ([]*types.Asset, error) {
	var rows []*types.Asset
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("version_id = ?", versionID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assetRepo) ListPending(dbc dbctx.Context) ([]*types.Asset, error) {
	var rows []*types.Asset
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("status IN ?", []string{types.AssetStatusPending, types.AssetStatusProcessing}).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assetRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now().UTC()
	}
	res := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.Asset{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("asset %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *assetRepo) FullDelete(dbc dbctx.Context, id uuid.UUID) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Unscoped().
		Where("id = ?", id).
		Delete(&types.Asset{}).Error
}

func (r *assetRepo) CountCompletedInGroup(dbc dbctx.Context, versionID uuid.UUID, group string, excludeID uuid.UUID) (int64, error) {
	var n int64
	q := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.Asset{}).
		Where("version_id = ? AND asset_group = ? AND status = ?", versionID, group, types.AssetStatusCompleted)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// CountByLocator counts other asset rows whose authoritative locator matches
// any scheme of loc. Used by the delete referrer check: shared storage is only
// physically deleted when no other row references it.
func (r *assetRepo) CountByLocator(dbc dbctx.Context, loc types.Locator, excludeID uuid.UUID) (int64, error) {
	if loc.IsZero() {
		return 0, nil
	}
	q := r.tx(dbc).WithContext(dbc.Ctx).Model(&types.Asset{}).Unscoped()
	switch {
	case loc.StorageKey != "":
		q = q.Where("storage_key = ?", loc.StorageKey)
	case loc.LegacyHandle != "":
		q = q.Where("legacy_handle = ?", loc.LegacyHandle)
	default:
		q = q.Where("url = ?", loc.URL)
	}
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
