package generation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow drives one asset generation end to end: generate, then reconcile
// the outcome into the asset record. Failures and cancellations also pass
// through a reconciliation activity so the placeholder never stays pending.
func Workflow(ctx workflow.Context, in Input) error {
	if strings.TrimSpace(in.AssetID) == "" {
		return fmt.Errorf("generation: missing asset_id")
	}
	return runOne(ctx, in)
}

// runOne is the generate-then-reconcile sequence shared by the single and
// batch workflows.
func runOne(ctx workflow.Context, in Input) error {
	// Heavier pipelines get the long budget; plain image work should land
	// well inside ten minutes.
	genTimeout := 10 * time.Minute
	switch strings.ToLower(strings.TrimSpace(in.AssetType)) {
	case "video", "3d":
		genTimeout = 30 * time.Minute
	}

	genCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: genTimeout,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})

	var out GenerateResult
	genErr := workflow.ExecuteActivity(genCtx, ActivityGenerate, in).Get(genCtx, &out)
	if genErr == nil {
		completeCtx := workflow.WithActivityOptions(ctx, reconcileOptions())
		if err := workflow.ExecuteActivity(completeCtx, ActivityComplete, in, out).Get(completeCtx, nil); err == nil {
			return nil
		} else {
			genErr = err
		}
	}

	// A canceled workflow context cannot run activities; reconciliation of
	// the failure runs on a disconnected context instead.
	canceled := temporal.IsCanceledError(genErr) || ctx.Err() != nil
	failCtx := ctx
	if canceled {
		failCtx, _ = workflow.NewDisconnectedContext(ctx)
	}
	failCtx = workflow.WithActivityOptions(failCtx, reconcileOptions())

	fail := FailInput{AssetID: in.AssetID, Message: failureMessage(genErr), Canceled: canceled}
	if err := workflow.ExecuteActivity(failCtx, ActivityFail, fail).Get(failCtx, nil); err != nil {
		workflow.GetLogger(ctx).Error("failure reconciliation did not land", "asset_id", in.AssetID, "error", err)
	}
	return genErr
}

func reconcileOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}
}

func failureMessage(err error) string {
	if err == nil {
		return "generation failed"
	}
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	return err.Error()
}
