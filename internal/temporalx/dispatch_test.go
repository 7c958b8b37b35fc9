package temporalx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/services"
	"github.com/voltastudio/volta-backend/internal/temporalx/generation"
)

type startedWorkflow struct {
	id   string
	name string
	arg  interface{}
}

type fakeWorkflowClient struct {
	mu       sync.Mutex
	started  []startedWorkflow
	canceled []string
	startErr error
}

func (f *fakeWorkflowClient) ExecuteWorkflow(_ context.Context, opts temporalsdkclient.StartWorkflowOptions, wf interface{}, args ...interface{}) (temporalsdkclient.WorkflowRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	name, _ := wf.(string)
	var arg interface{}
	if len(args) > 0 {
		arg = args[0]
	}
	f.started = append(f.started, startedWorkflow{id: opts.ID, name: name, arg: arg})
	return nil, nil
}

func (f *fakeWorkflowClient) CancelWorkflow(_ context.Context, workflowID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, workflowID)
	return nil
}

// fakeAssetTracker records the lifecycle calls the dispatcher makes. Only the
// methods the dispatcher touches do anything.
type fakeAssetTracker struct {
	services.AssetService

	mu          sync.Mutex
	failed      map[uuid.UUID]string
	workflowIDs map[uuid.UUID]string
}

func newFakeAssetTracker() *fakeAssetTracker {
	return &fakeAssetTracker{
		failed:      map[uuid.UUID]string{},
		workflowIDs: map[uuid.UUID]string{},
	}
}

func (f *fakeAssetTracker) Fail(_ dbctx.Context, assetID uuid.UUID, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[assetID] = message
}

func (f *fakeAssetTracker) SetWorkflowID(_ dbctx.Context, assetID uuid.UUID, workflowID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workflowIDs[assetID] = workflowID
}

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func testAsset() *types.Asset {
	return &types.Asset{
		ID:   uuid.New(),
		Type: types.AssetTypeImage,
	}
}

func TestDispatchStartsWorkflowAndStampsHandle(t *testing.T) {
	tc := &fakeWorkflowClient{}
	tracker := newFakeAssetTracker()
	d := NewGenerationDispatcher(testLog(t), tc, tracker)

	asset := testAsset()
	dbc := dbctx.Context{Ctx: context.Background()}
	workflowID, err := d.Dispatch(dbc, asset, DispatchInput{Prompt: "a red chair", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("dispatch: unexpected error %v", err)
	}

	want := "asset-gen-" + asset.ID.String()
	if workflowID != want {
		t.Fatalf("workflow id: want=%s got=%s", want, workflowID)
	}
	if len(tc.started) != 1 || tc.started[0].name != generation.WorkflowName {
		t.Fatalf("started workflows: want one %q, got %v", generation.WorkflowName, tc.started)
	}
	if got := tracker.workflowIDs[asset.ID]; got != want {
		t.Fatalf("stamped handle: want=%s got=%s", want, got)
	}
	in, ok := tc.started[0].arg.(generation.Input)
	if !ok {
		t.Fatalf("workflow arg: want generation.Input, got %T", tc.started[0].arg)
	}
	if in.AssetID != asset.ID.String() || in.AspectRatio != "16:9" {
		t.Fatalf("workflow input: asset_id=%s aspect_ratio=%s", in.AssetID, in.AspectRatio)
	}
}

func TestDispatchFailureFailsPlaceholder(t *testing.T) {
	tc := &fakeWorkflowClient{startErr: errors.New("frontend unavailable")}
	tracker := newFakeAssetTracker()
	d := NewGenerationDispatcher(testLog(t), tc, tracker)

	asset := testAsset()
	_, err := d.Dispatch(dbctx.Context{Ctx: context.Background()}, asset, DispatchInput{Prompt: "x"})
	if err == nil {
		t.Fatalf("dispatch: want error, got nil")
	}
	if msg := tracker.failed[asset.ID]; msg != "failed to start generation" {
		t.Fatalf("placeholder failure message: want=failed to start generation got=%q", msg)
	}
}

func TestDispatchInvalidAspectRatio(t *testing.T) {
	tc := &fakeWorkflowClient{}
	tracker := newFakeAssetTracker()
	d := NewGenerationDispatcher(testLog(t), tc, tracker)

	asset := testAsset()
	_, err := d.Dispatch(dbctx.Context{Ctx: context.Background()}, asset, DispatchInput{AspectRatio: "7:5"})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("invalid ratio: want=ErrInvalidArgument got=%v", err)
	}
	if len(tc.started) != 0 {
		t.Fatalf("started workflows on invalid input: want=0 got=%d", len(tc.started))
	}
	if _, ok := tracker.failed[asset.ID]; !ok {
		t.Fatalf("placeholder should fail on invalid ratio")
	}
}

func TestDispatchWithoutClientFailsPlaceholder(t *testing.T) {
	tracker := newFakeAssetTracker()
	d := NewGenerationDispatcher(testLog(t), nil, tracker)

	asset := testAsset()
	if _, err := d.Dispatch(dbctx.Context{Ctx: context.Background()}, asset, DispatchInput{}); err == nil {
		t.Fatalf("dispatch without client: want error, got nil")
	}
	if msg := tracker.failed[asset.ID]; msg != "generation backend unavailable" {
		t.Fatalf("failure message: want=generation backend unavailable got=%q", msg)
	}
}

func TestDispatchBatchSingleWorkflowForAllAssets(t *testing.T) {
	tc := &fakeWorkflowClient{}
	tracker := newFakeAssetTracker()
	d := NewGenerationDispatcher(testLog(t), tc, tracker)

	run := &types.AutoGenRun{ID: uuid.New(), WorkflowID: "autogen-test-run"}
	assets := []*types.Asset{testAsset(), testAsset(), testAsset()}
	items := []DispatchInput{{Prompt: "a"}, {Prompt: "b"}, {Prompt: "c"}}

	err := d.DispatchBatch(dbctx.Context{Ctx: context.Background()}, run, assets, items)
	if err != nil {
		t.Fatalf("dispatch batch: unexpected error %v", err)
	}
	if len(tc.started) != 1 || tc.started[0].name != generation.BatchWorkflowName {
		t.Fatalf("started workflows: want one %q, got %v", generation.BatchWorkflowName, tc.started)
	}
	batch, ok := tc.started[0].arg.(generation.BatchInput)
	if !ok {
		t.Fatalf("workflow arg: want generation.BatchInput, got %T", tc.started[0].arg)
	}
	if len(batch.Items) != 3 || batch.RunID != run.ID.String() {
		t.Fatalf("batch input: items=%d run_id=%s", len(batch.Items), batch.RunID)
	}
	for _, a := range assets {
		if got := tracker.workflowIDs[a.ID]; got != run.WorkflowID {
			t.Fatalf("asset %s handle: want=%s got=%s", a.ID, run.WorkflowID, got)
		}
	}
}

func TestDispatchBatchFailureFailsEveryPlaceholder(t *testing.T) {
	tc := &fakeWorkflowClient{startErr: errors.New("down")}
	tracker := newFakeAssetTracker()
	d := NewGenerationDispatcher(testLog(t), tc, tracker)

	run := &types.AutoGenRun{ID: uuid.New(), WorkflowID: "autogen-test-run"}
	assets := []*types.Asset{testAsset(), testAsset()}
	items := []DispatchInput{{Prompt: "a"}, {Prompt: "b"}}

	if err := d.DispatchBatch(dbctx.Context{Ctx: context.Background()}, run, assets, items); err == nil {
		t.Fatalf("dispatch batch: want error, got nil")
	}
	if len(tracker.failed) != 2 {
		t.Fatalf("failed placeholders: want=2 got=%d", len(tracker.failed))
	}
}
