package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/platform/sideeffect"
)

// ReconcileInput is one workflow completion callback reduced to a parsed
// result plus correlation data.
type ReconcileInput struct {
	AssetID    uuid.UUID
	WorkflowID string
	Result     ParsedResult
	Cost       float64
	EditType   string
}

// Reconciler folds workflow completion callbacks into asset records. Every
// entry point is idempotent: the workflow engine retries delivery, so the
// same callback can arrive more than once.
type Reconciler interface {
	CompleteImage(ctx context.Context, in ReconcileInput) error
	CompleteVideo(ctx context.Context, in ReconcileInput) error
	Complete3D(ctx context.Context, in ReconcileInput) error
	FailGeneration(ctx context.Context, assetID uuid.UUID, workflowID, message string, canceled bool) error
}

type reconciler struct {
	db      *gorm.DB
	log     *logger.Logger
	assets  AssetService
	autogen AutoGenService
	billing BillingService
}

func NewReconciler(db *gorm.DB, baseLog *logger.Logger, assets AssetService, autogen AutoGenService, billing BillingService) Reconciler {
	return &reconciler{
		db:      db,
		log:     baseLog.With("service", "Reconciler"),
		assets:  assets,
		autogen: autogen,
		billing: billing,
	}
}

func (r *reconciler) CompleteImage(ctx context.Context, in ReconcileInput) error {
	return r.complete(ctx, in, completeOptions{autoSelect: true})
}

func (r *reconciler) CompleteVideo(ctx context.Context, in ReconcileInput) error {
	return r.complete(ctx, in, completeOptions{defaultMime: "video/mp4"})
}

func (r *reconciler) Complete3D(ctx context.Context, in ReconcileInput) error {
	preview := ""
	if len(in.Result.Files) > 0 {
		preview = SelectPreviewFile(in.Result.Files)
	}
	return r.complete(ctx, in, completeOptions{
		autoSelect:  true,
		defaultMime: "model/gltf-binary",
		previewURL:  preview,
	})
}

type completeOptions struct {
	autoSelect  bool
	defaultMime string
	previewURL  string
}

func (r *reconciler) complete(ctx context.Context, in ReconcileInput, opts completeOptions) error {
	dbc := dbctx.Context{Ctx: ctx}

	asset, err := r.assets.GetByID(dbc, in.AssetID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// The asset is gone; retrying the callback cannot bring it back.
			r.log.Warn("completion callback for missing asset dropped",
				"asset_id", in.AssetID, "workflow_id", in.WorkflowID)
			return nil
		}
		return fmt.Errorf("load asset for completion: %w", err)
	}

	if in.Result.Kind == ResultUnrecognized {
		// A raced finalize from another route may have already landed real
		// content; only a still-empty asset fails on an unusable payload.
		if asset.Status == types.AssetStatusCompleted && asset.HasCompleteMetadata() {
			r.log.Info("unrecognized result for already-completed asset ignored",
				"asset_id", in.AssetID, "workflow_id", in.WorkflowID)
			return nil
		}
		r.log.Warn("unrecognized generation result", "asset_id", in.AssetID, "workflow_id", in.WorkflowID)
		r.assets.Fail(dbc, in.AssetID, "generation produced no usable output")
		r.advanceRun(ctx, in.WorkflowID, 0, 1)
		return nil
	}

	// Duplicate delivery of the same completion: already completed with full
	// metadata and the same authoritative content. Nothing to fold in.
	if asset.Status == types.AssetStatusCompleted &&
		asset.HasCompleteMetadata() &&
		asset.Locator().ID() == in.Result.Locator.ID() {
		r.log.Info("duplicate completion callback ignored",
			"asset_id", in.AssetID, "workflow_id", in.WorkflowID, "locator", in.Result.Locator.ID())
		return nil
	}

	mime := strings.TrimSpace(in.Result.MimeType)
	if mime == "" {
		mime = opts.defaultMime
	}

	updated, err := r.assets.Finalize(dbc, in.AssetID, FinalizeInput{
		Locator:    in.Result.Locator,
		Width:      in.Result.Width,
		Height:     in.Result.Height,
		FileSize:   in.Result.FileSize,
		MimeType:   mime,
		Duration:   in.Result.Duration,
		EditType:   in.EditType,
		AutoSelect: opts.autoSelect,
		PreviewURL: opts.previewURL,
	})
	if err != nil {
		return fmt.Errorf("finalize asset: %w", err)
	}

	if in.Cost > 0 && r.billing != nil {
		cost := in.Cost
		sideeffect.Run(r.log, "record_generation_cost", func() error {
			return r.billing.ChargeForAsset(dbc, updated, cost)
		})
	}

	// Only an applied transition counts toward the batch run; the duplicate
	// and raced paths above returned before reaching here.
	r.advanceRun(ctx, in.WorkflowID, 1, 0)
	return nil
}

// FailGeneration handles both genuine failures and cancellations. A canceled
// or failed regeneration on an asset that already has content reverts to the
// prior completed state instead of destroying a good asset.
func (r *reconciler) FailGeneration(ctx context.Context, assetID uuid.UUID, workflowID, message string, canceled bool) error {
	dbc := dbctx.Context{Ctx: ctx}

	asset, err := r.assets.GetByID(dbc, assetID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			r.log.Warn("failure callback for missing asset dropped",
				"asset_id", assetID, "workflow_id", workflowID)
			return nil
		}
		return fmt.Errorf("load asset for failure: %w", err)
	}

	if canceled && message == "" {
		message = "generation canceled"
	}
	if message == "" {
		message = "generation failed"
	}

	// Redelivered failure callbacks: the asset already landed in the state
	// this delivery would produce. Folding it in again would double-count
	// the run member.
	if asset.Status == types.AssetStatusFailed ||
		(asset.Status == types.AssetStatusCompleted && asset.StatusMessage == message) {
		r.log.Info("duplicate failure callback ignored",
			"asset_id", assetID, "workflow_id", workflowID)
		return nil
	}

	hasPriorContent := !asset.Locator().IsZero() && asset.CompletedAt != nil
	if hasPriorContent {
		if rerr := r.assets.RevertToCompleted(dbc, assetID, message); rerr != nil {
			return rerr
		}
	} else {
		r.assets.Fail(dbc, assetID, message)
	}

	r.advanceRun(ctx, workflowID, 0, 1)
	return nil
}

// advanceRun reports one landed member to the batch run, if any. Run
// bookkeeping never fails a callback.
func (r *reconciler) advanceRun(ctx context.Context, workflowID string, completed, failed int) {
	if workflowID == "" || r.autogen == nil {
		return
	}
	dbc := dbctx.Context{Ctx: ctx}
	sideeffect.Run(r.log, "advance_auto_gen_run", func() error {
		return r.autogen.AdvanceRun(dbc, workflowID, completed, failed)
	})
}
