package repos_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/voltastudio/volta-backend/internal/data/repos"
	"github.com/voltastudio/volta-backend/internal/data/repos/testutil"
	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
)

func TestAssetRepoCreateAndGet(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	owner := uuid.New()
	product := testutil.SeedProduct(t, ctx, tx, owner)
	version := testutil.SeedVersion(t, ctx, tx, product.ID)

	repo := repos.NewAssetRepo(db, testutil.Logger(t))
	created, err := repo.Create(dbc, []*types.Asset{{
		ID:          uuid.New(),
		VersionID:   version.ID,
		ProductID:   product.ID,
		OwnerUserID: owner,
		Type:        types.AssetTypeImage,
		AssetGroup:  types.AssetGroupMain,
		Status:      types.AssetStatusPending,
	}})
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}

	got, err := repo.GetByID(dbc, created[0].ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if got.VersionID != version.ID || got.Status != types.AssetStatusPending {
		t.Fatalf("roundtrip: want version=%s status=pending got version=%s status=%s",
			version.ID, got.VersionID, got.Status)
	}
}

func TestAssetRepoGetMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := repos.NewAssetRepo(db, testutil.Logger(t))
	if _, err := repo.GetByID(dbc, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing asset: want=ErrNotFound got=%v", err)
	}
}

func TestAssetRepoUpdateFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	owner := uuid.New()
	product := testutil.SeedProduct(t, ctx, tx, owner)
	version := testutil.SeedVersion(t, ctx, tx, product.ID)
	asset := testutil.SeedAsset(t, ctx, tx, version, owner, types.AssetGroupMain, types.AssetStatusPending)

	repo := repos.NewAssetRepo(db, testutil.Logger(t))
	now := time.Now().UTC()
	err := repo.UpdateFields(dbc, asset.ID, map[string]any{
		"status":       types.AssetStatusCompleted,
		"storage_key":  "org/a.png",
		"url":          "https://cdn.test/org/a.png",
		"completed_at": now,
	})
	if err != nil {
		t.Fatalf("update fields: %v", err)
	}

	got, err := repo.GetByID(dbc, asset.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if got.Status != types.AssetStatusCompleted || got.StorageKey != "org/a.png" {
		t.Fatalf("updated row: status=%s storage_key=%s", got.Status, got.StorageKey)
	}
	if got.CompletedAt == nil {
		t.Fatalf("completed_at: want set, got nil")
	}

	if err := repo.UpdateFields(dbc, uuid.New(), map[string]any{"status": "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("update of missing row: want=ErrNotFound got=%v", err)
	}
}

func TestAssetRepoListPending(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	owner := uuid.New()
	product := testutil.SeedProduct(t, ctx, tx, owner)
	version := testutil.SeedVersion(t, ctx, tx, product.ID)
	pending := testutil.SeedAsset(t, ctx, tx, version, owner, types.AssetGroupMain, types.AssetStatusPending)
	processing := testutil.SeedAsset(t, ctx, tx, version, owner, types.AssetGroupMain, types.AssetStatusProcessing)
	testutil.SeedAsset(t, ctx, tx, version, owner, types.AssetGroupMain, types.AssetStatusCompleted)
	testutil.SeedAsset(t, ctx, tx, version, owner, types.AssetGroupMain, types.AssetStatusFailed)

	repo := repos.NewAssetRepo(db, testutil.Logger(t))
	rows, err := repo.ListPending(dbc)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}

	ids := map[uuid.UUID]bool{}
	for _, r := range rows {
		ids[r.ID] = true
	}
	if !ids[pending.ID] || !ids[processing.ID] {
		t.Fatalf("pending list: want both pending and processing rows, got=%v", ids)
	}
}

func TestAssetRepoCountCompletedInGroup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	owner := uuid.New()
	product := testutil.SeedProduct(t, ctx, tx, owner)
	version := testutil.SeedVersion(t, ctx, tx, product.ID)
	a := testutil.SeedAsset(t, ctx, tx, version, owner, types.AssetGroupMain, types.AssetStatusCompleted)
	testutil.SeedAsset(t, ctx, tx, version, owner, types.AssetGroupMain, types.AssetStatusCompleted)
	testutil.SeedAsset(t, ctx, tx, version, owner, "drafts", types.AssetStatusCompleted)
	testutil.SeedAsset(t, ctx, tx, version, owner, types.AssetGroupMain, types.AssetStatusPending)

	repo := repos.NewAssetRepo(db, testutil.Logger(t))
	n, err := repo.CountCompletedInGroup(dbc, version.ID, types.AssetGroupMain, a.ID)
	if err != nil {
		t.Fatalf("count completed: %v", err)
	}
	if n != 1 {
		t.Fatalf("completed siblings excluding %s: want=1 got=%d", a.ID, n)
	}
}

func TestAssetRepoCountByLocator(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	owner := uuid.New()
	product := testutil.SeedProduct(t, ctx, tx, owner)
	version := testutil.SeedVersion(t, ctx, tx, product.ID)
	repo := repos.NewAssetRepo(db, testutil.Logger(t))

	a := testutil.SeedAsset(t, ctx, tx, version, owner, types.AssetGroupMain, types.AssetStatusCompleted)
	b := testutil.SeedAsset(t, ctx, tx, version, owner, types.AssetGroupMain, types.AssetStatusCompleted)
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		if err := repo.UpdateFields(dbc, id, map[string]any{"storage_key": "org/shared.png"}); err != nil {
			t.Fatalf("set storage key: %v", err)
		}
	}

	n, err := repo.CountByLocator(dbc, types.Locator{StorageKey: "org/shared.png"}, a.ID)
	if err != nil {
		t.Fatalf("count by locator: %v", err)
	}
	if n != 1 {
		t.Fatalf("locator referrers excluding %s: want=1 got=%d", a.ID, n)
	}

	n, err = repo.CountByLocator(dbc, types.Locator{}, uuid.Nil)
	if err != nil {
		t.Fatalf("count by zero locator: %v", err)
	}
	if n != 0 {
		t.Fatalf("zero locator: want=0 got=%d", n)
	}
}

func TestAssetRepoFullDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	owner := uuid.New()
	product := testutil.SeedProduct(t, ctx, tx, owner)
	version := testutil.SeedVersion(t, ctx, tx, product.ID)
	asset := testutil.SeedAsset(t, ctx, tx, version, owner, types.AssetGroupMain, types.AssetStatusFailed)

	repo := repos.NewAssetRepo(db, testutil.Logger(t))
	if err := repo.FullDelete(dbc, asset.ID); err != nil {
		t.Fatalf("full delete: %v", err)
	}
	if _, err := repo.GetByID(dbc, asset.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("row after full delete: want=ErrNotFound got=%v", err)
	}
}
