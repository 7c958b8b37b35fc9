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

type AutoGenRunRepo interface {
	Create(dbc dbctx.Context, runs []*types.AutoGenRun) ([]*types.AutoGenRun, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AutoGenRun, error)
	GetByWorkflowID(dbc dbctx.Context, workflowID string) (*types.AutoGenRun, error)
	SetStatusByWorkflowID(dbc dbctx.Context, workflowID string, status string) error
	IncrementProgress(dbc dbctx.Context, id uuid.UUID, completedDelta, failedDelta int) error
}

type autoGenRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAutoGenRunRepo(db *gorm.DB, baseLog *logger.Logger) AutoGenRunRepo {
	return &autoGenRunRepo{db: db, log: baseLog.With("repo", "AutoGenRunRepo")}
}

func (r *autoGenRunRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *autoGenRunRepo) Create(dbc dbctx.Context, runs []*types.AutoGenRun) ([]*types.AutoGenRun, error) {
	if len(runs) == 0 {
		return []*types.AutoGenRun{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *autoGenRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AutoGenRun, error) {
	var row types.AutoGenRun
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("auto gen run %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &row, nil
}

func (r *autoGenRunRepo) GetByWorkflowID(dbc dbctx.Context, workflowID string) (*types.AutoGenRun, error) {
	var row types.AutoGenRun
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("workflow_id = ?", workflowID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("auto gen run for workflow %q: %w", workflowID, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &row, nil
}

func (r *autoGenRunRepo) SetStatusByWorkflowID(dbc dbctx.Context, workflowID string, status string) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.AutoGenRun{}).
		Where("workflow_id = ?", workflowID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (r *autoGenRunRepo) IncrementProgress(dbc dbctx.Context, id uuid.UUID, completedDelta, failedDelta int) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.AutoGenRun{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"completed_count": gorm.Expr("completed_count + ?", completedDelta),
			"failed_count":    gorm.Expr("failed_count + ?", failedDelta),
			"updated_at":      time.Now().UTC(),
		}).Error
}
