package repos_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/voltastudio/volta-backend/internal/data/repos"
	"github.com/voltastudio/volta-backend/internal/data/repos/testutil"
	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
)

func seedRun(t *testing.T, dbc dbctx.Context, repo repos.AutoGenRunRepo, workflowID string, total int) *types.AutoGenRun {
	t.Helper()
	product := testutil.SeedProduct(t, dbc.Ctx, dbc.Tx, uuid.New())
	version := testutil.SeedVersion(t, dbc.Ctx, dbc.Tx, product.ID)
	runs, err := repo.Create(dbc, []*types.AutoGenRun{{
		ID:         uuid.New(),
		VersionID:  version.ID,
		WorkflowID: workflowID,
		Status:     types.RunStatusRunning,
		TotalCount: total,
	}})
	if err != nil {
		t.Fatalf("seed run: %v", err)
	}
	return runs[0]
}

func TestAutoGenRunRepoLookupByWorkflowID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := repos.NewAutoGenRunRepo(db, testutil.Logger(t))

	run := seedRun(t, dbc, repo, "wf-lookup", 3)

	got, err := repo.GetByWorkflowID(dbc, "wf-lookup")
	if err != nil {
		t.Fatalf("get by workflow id: %v", err)
	}
	if got.ID != run.ID {
		t.Fatalf("lookup: want=%s got=%s", run.ID, got.ID)
	}

	if _, err := repo.GetByWorkflowID(dbc, "wf-missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing workflow: want=ErrNotFound got=%v", err)
	}
}

func TestAutoGenRunRepoIncrementProgress(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := repos.NewAutoGenRunRepo(db, testutil.Logger(t))

	run := seedRun(t, dbc, repo, "wf-progress", 3)

	if err := repo.IncrementProgress(dbc, run.ID, 1, 0); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := repo.IncrementProgress(dbc, run.ID, 1, 1); err != nil {
		t.Fatalf("increment: %v", err)
	}

	got, err := repo.GetByID(dbc, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.CompletedCount != 2 || got.FailedCount != 1 {
		t.Fatalf("counters: want=2/1 got=%d/%d", got.CompletedCount, got.FailedCount)
	}
}

func TestAutoGenRunRepoSetStatusByWorkflowID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := repos.NewAutoGenRunRepo(db, testutil.Logger(t))

	run := seedRun(t, dbc, repo, "wf-status", 1)

	if err := repo.SetStatusByWorkflowID(dbc, "wf-status", types.RunStatusCompleted); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, err := repo.GetByID(dbc, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != types.RunStatusCompleted {
		t.Fatalf("status: want=completed got=%s", got.Status)
	}
}
