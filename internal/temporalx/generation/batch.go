package generation

import (
	"fmt"

	"go.temporal.io/sdk/workflow"
)

const BatchWorkflowName = "asset_batch_generation"

// BatchInput drives one auto-generation run: every item lands on its own
// asset record, all under the batch workflow's handle so completion
// callbacks can advance the run counters.
type BatchInput struct {
	RunID string  `json:"run_id"`
	Items []Input `json:"items"`
}

// batchParallelism caps concurrent generations per run so a large batch
// cannot monopolize the provider.
const batchParallelism = 4

// BatchWorkflow fans the items out through the same generate-then-reconcile
// sequence as the single workflow. Items are independent: one failed
// generation reconciles as a failure and the rest keep going.
func BatchWorkflow(ctx workflow.Context, in BatchInput) error {
	if len(in.Items) == 0 {
		return fmt.Errorf("generation: batch %s has no items", in.RunID)
	}

	sem := workflow.NewSemaphore(ctx, batchParallelism)
	wg := workflow.NewWaitGroup(ctx)
	var failed int

	for _, item := range in.Items {
		item := item
		wg.Add(1)
		workflow.Go(ctx, func(gctx workflow.Context) {
			defer wg.Done()
			if err := sem.Acquire(gctx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			if err := runOne(gctx, item); err != nil {
				failed++
				workflow.GetLogger(gctx).Warn("batch item failed",
					"run_id", in.RunID, "asset_id", item.AssetID, "error", err)
			}
		})
	}
	wg.Wait(ctx)

	if failed == len(in.Items) {
		return fmt.Errorf("generation: batch %s failed all %d items", in.RunID, failed)
	}
	return nil
}
