package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/services"
)

type Activities struct {
	Log        *logger.Logger
	Provider   services.GenerationProvider
	Reconciler services.Reconciler
	Enhancer   services.PromptEnhancer
}

// Generate invokes the model backend. Long running; heartbeats keep the
// activity alive while the backend works.
func (a *Activities) Generate(ctx context.Context, in Input) (GenerateResult, error) {
	var res GenerateResult
	if a == nil || a.Provider == nil {
		return res, fmt.Errorf("generation: activity not configured")
	}
	if _, err := uuid.Parse(in.AssetID); err != nil {
		return res, fmt.Errorf("generation: invalid asset_id %q", in.AssetID)
	}

	stopHB := a.startHeartbeat(ctx)
	defer stopHB()

	prompt := in.Prompt
	if a.Enhancer != nil {
		prompt = a.Enhancer.Enhance(ctx, prompt)
	}

	out, err := a.Provider.Generate(ctx, services.GenerationRequest{
		AssetType:      in.AssetType,
		Prompt:         prompt,
		AspectRatio:    in.AspectRatio,
		InputImageURLs: in.InputImages,
		InputVideoURL:  in.InputVideo,
		SourceURL:      in.SourceURL,
		EditType:       in.EditType,
		Width:          in.Width,
		Height:         in.Height,
		ThreadID:       in.ThreadID,
	})
	if err != nil {
		return res, err
	}

	res = GenerateResult{
		StorageKey: out.StorageKey,
		URL:        out.URL,
		Width:      out.Width,
		Height:     out.Height,
		FileSize:   out.FileSize,
		MimeType:   out.MimeType,
		Duration:   out.Duration,
		Files:      out.Files,
		Cost:       out.Cost,
	}
	return res, nil
}

// Complete folds a successful generation into the asset record.
func (a *Activities) Complete(ctx context.Context, in Input, out GenerateResult) error {
	if a == nil || a.Reconciler == nil {
		return fmt.Errorf("generation: activity not configured")
	}
	assetID, err := uuid.Parse(in.AssetID)
	if err != nil {
		return fmt.Errorf("generation: invalid asset_id %q", in.AssetID)
	}

	parsed := services.ParseGenerationResult(&services.GenerationOutput{
		StorageKey: out.StorageKey,
		URL:        out.URL,
		Width:      out.Width,
		Height:     out.Height,
		FileSize:   out.FileSize,
		MimeType:   out.MimeType,
		Duration:   out.Duration,
		Files:      out.Files,
	}, out.LegacyHandle)

	rin := services.ReconcileInput{
		AssetID:    assetID,
		WorkflowID: workflowID(ctx),
		Result:     parsed,
		Cost:       out.Cost,
		EditType:   in.EditType,
	}

	switch strings.ToLower(strings.TrimSpace(in.AssetType)) {
	case types.AssetTypeVideo:
		return a.Reconciler.CompleteVideo(ctx, rin)
	case types.AssetType3D:
		return a.Reconciler.Complete3D(ctx, rin)
	default:
		return a.Reconciler.CompleteImage(ctx, rin)
	}
}

// Fail reconciles a failed or canceled generation.
func (a *Activities) Fail(ctx context.Context, in FailInput) error {
	if a == nil || a.Reconciler == nil {
		return fmt.Errorf("generation: activity not configured")
	}
	assetID, err := uuid.Parse(in.AssetID)
	if err != nil {
		return fmt.Errorf("generation: invalid asset_id %q", in.AssetID)
	}
	return a.Reconciler.FailGeneration(ctx, assetID, workflowID(ctx), in.Message, in.Canceled)
}

func workflowID(ctx context.Context) string {
	if !activity.IsActivity(ctx) {
		return ""
	}
	return activity.GetInfo(ctx).WorkflowExecution.ID
}

func (a *Activities) startHeartbeat(ctx context.Context) func() {
	if !activity.IsActivity(ctx) {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				activity.RecordHeartbeat(ctx)
			}
		}
	}()
	return func() { close(done) }
}
