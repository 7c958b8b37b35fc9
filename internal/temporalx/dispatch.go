package temporalx

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/services"
	"github.com/voltastudio/volta-backend/internal/temporalx/generation"
)

// WorkflowClient is the slice of the Temporal client the dispatcher needs.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options temporalsdkclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (temporalsdkclient.WorkflowRun, error)
	CancelWorkflow(ctx context.Context, workflowID string, runID string) error
}

// DispatchInput carries the generation parameters alongside the placeholder.
type DispatchInput struct {
	Prompt      string
	AspectRatio string
	InputImages []string
	InputVideo  string
	SourceURL   string
	EditType    string
}

// GenerationDispatcher starts durable generation workflows for placeholder
// assets. Dispatch failure is terminal for the placeholder: it is failed
// immediately so no record waits on a workflow that never started.
type GenerationDispatcher interface {
	Dispatch(dbc dbctx.Context, asset *types.Asset, in DispatchInput) (string, error)
	DispatchBatch(dbc dbctx.Context, run *types.AutoGenRun, assets []*types.Asset, items []DispatchInput) error
	Cancel(ctx context.Context, workflowID string) error
}

type generationDispatcher struct {
	log    *logger.Logger
	tc     WorkflowClient
	assets services.AssetService
}

func NewGenerationDispatcher(baseLog *logger.Logger, tc WorkflowClient, assets services.AssetService) GenerationDispatcher {
	return &generationDispatcher{
		log:    baseLog.With("service", "GenerationDispatcher"),
		tc:     tc,
		assets: assets,
	}
}

func (d *generationDispatcher) Dispatch(dbc dbctx.Context, asset *types.Asset, in DispatchInput) (string, error) {
	if d.tc == nil {
		d.assets.Fail(dbc, asset.ID, "generation backend unavailable")
		return "", fmt.Errorf("temporal client is not configured")
	}

	ratio, err := services.NormalizeAspectRatio(in.AspectRatio)
	if err != nil {
		d.assets.Fail(dbc, asset.ID, err.Error())
		return "", err
	}

	cfg := LoadConfig()
	workflowID := "asset-gen-" + asset.ID.String()

	// Allow duplicates so a regeneration can reuse the asset's workflow id
	// after the prior run closed.
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                    workflowID,
		TaskQueue:             cfg.TaskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    30 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}

	meta := asset.MetadataMap()
	input := generation.Input{
		AssetID:     asset.ID.String(),
		AssetType:   asset.Type,
		Prompt:      in.Prompt,
		AspectRatio: ratio,
		Width:       metaInt(meta, "width"),
		Height:      metaInt(meta, "height"),
		InputImages: in.InputImages,
		InputVideo:  in.InputVideo,
		SourceURL:   in.SourceURL,
		EditType:    in.EditType,
		ThreadID:    asset.ThreadID,
	}
	if input.Prompt == "" {
		input.Prompt = asset.Prompt
	}

	if _, err := d.tc.ExecuteWorkflow(dbc.Ctx, opts, generation.WorkflowName, input); err != nil {
		d.log.Error("workflow dispatch failed", "asset_id", asset.ID, "workflow_id", workflowID, "error", err)
		d.assets.Fail(dbc, asset.ID, "failed to start generation")
		return "", fmt.Errorf("start generation workflow: %w", err)
	}

	d.assets.SetWorkflowID(dbc, asset.ID, workflowID)
	return workflowID, nil
}

// DispatchBatch starts one batch workflow covering every placeholder of an
// auto-generation run. The run's workflow handle is stamped onto each asset
// so the sweeper leaves them to the workflow engine. On dispatch failure
// every placeholder fails; none of them would ever see a callback.
func (d *generationDispatcher) DispatchBatch(dbc dbctx.Context, run *types.AutoGenRun, assets []*types.Asset, items []DispatchInput) error {
	failAll := func(message string) {
		for _, a := range assets {
			d.assets.Fail(dbc, a.ID, message)
		}
	}

	if d.tc == nil {
		failAll("generation backend unavailable")
		return fmt.Errorf("temporal client is not configured")
	}
	if len(assets) != len(items) {
		return fmt.Errorf("batch dispatch: %d assets but %d items", len(assets), len(items))
	}

	batch := generation.BatchInput{RunID: run.ID.String()}
	for i, a := range assets {
		in := items[i]
		ratio, err := services.NormalizeAspectRatio(in.AspectRatio)
		if err != nil {
			failAll(err.Error())
			return err
		}
		meta := a.MetadataMap()
		input := generation.Input{
			AssetID:     a.ID.String(),
			AssetType:   a.Type,
			Prompt:      in.Prompt,
			AspectRatio: ratio,
			Width:       metaInt(meta, "width"),
			Height:      metaInt(meta, "height"),
			InputImages: in.InputImages,
			InputVideo:  in.InputVideo,
			SourceURL:   in.SourceURL,
			EditType:    in.EditType,
			ThreadID:    a.ThreadID,
		}
		if input.Prompt == "" {
			input.Prompt = a.Prompt
		}
		batch.Items = append(batch.Items, input)
	}

	cfg := LoadConfig()
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                    run.WorkflowID,
		TaskQueue:             cfg.TaskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    30 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}

	if _, err := d.tc.ExecuteWorkflow(dbc.Ctx, opts, generation.BatchWorkflowName, batch); err != nil {
		d.log.Error("batch dispatch failed", "run_id", run.ID, "workflow_id", run.WorkflowID, "error", err)
		failAll("failed to start generation")
		return fmt.Errorf("start batch generation workflow: %w", err)
	}

	for _, a := range assets {
		d.assets.SetWorkflowID(dbc, a.ID, run.WorkflowID)
	}
	return nil
}

func (d *generationDispatcher) Cancel(ctx context.Context, workflowID string) error {
	if d.tc == nil {
		return fmt.Errorf("temporal client is not configured")
	}
	return d.tc.CancelWorkflow(ctx, workflowID, "")
}

func metaInt(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}
