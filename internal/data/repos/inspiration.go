package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

type InspirationRepo interface {
	IncrementUsage(dbc dbctx.Context, ids []uuid.UUID) error
}

type inspirationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInspirationRepo(db *gorm.DB, baseLog *logger.Logger) InspirationRepo {
	return &inspirationRepo{db: db, log: baseLog.With("repo", "InspirationRepo")}
}

func (r *inspirationRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *inspirationRepo) IncrementUsage(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.InspirationAsset{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"usage_count": gorm.Expr("usage_count + 1"),
			"updated_at":  time.Now().UTC(),
		}).Error
}
