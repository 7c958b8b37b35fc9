package services

import (
	"errors"
	"testing"
	"time"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
)

func assetWithContent(key string, history []types.HistoryEntry) *types.Asset {
	return &types.Asset{
		StorageKey:     key,
		Metadata:       types.MergeMetadata(nil, map[string]any{"width": 512, "height": 512, "file_size": 1000}),
		VersionHistory: types.EncodeHistory(history),
	}
}

func TestComputeUpdatedHistoryFirstFill(t *testing.T) {
	asset := &types.Asset{} // empty placeholder
	history, changed := ComputeUpdatedHistory(asset, types.Locator{StorageKey: "org/a.png"}, "generate", time.Now())
	if changed {
		t.Fatalf("first fill changed: want=false got=true")
	}
	if len(history) != 0 {
		t.Fatalf("first fill history length: want=0 got=%d", len(history))
	}
}

func TestComputeUpdatedHistoryIdenticalLocator(t *testing.T) {
	asset := assetWithContent("org/a.png", nil)
	history, changed := ComputeUpdatedHistory(asset, types.Locator{StorageKey: "org/a.png"}, "generate", time.Now())
	if changed {
		t.Fatalf("identical locator changed: want=false got=true")
	}
	if len(history) != 0 {
		t.Fatalf("identical locator history length: want=0 got=%d", len(history))
	}
}

func TestComputeUpdatedHistoryAppendsOutgoingSnapshot(t *testing.T) {
	asset := assetWithContent("org/a.png", nil)
	now := time.Now()
	history, changed := ComputeUpdatedHistory(asset, types.Locator{StorageKey: "org/b.png"}, "edit", now)
	if !changed {
		t.Fatalf("distinct locator changed: want=true got=false")
	}
	if len(history) != 1 {
		t.Fatalf("history length: want=1 got=%d", len(history))
	}
	entry := history[0]
	if got := entry.Locator.ID(); got != "key:org/a.png" {
		t.Fatalf("snapshot locator: want=key:org/a.png got=%s", got)
	}
	if entry.EditType != "edit" {
		t.Fatalf("snapshot edit type: want=edit got=%s", entry.EditType)
	}
	if entry.Metadata["width"] != float64(512) {
		t.Fatalf("snapshot metadata width: want=512 got=%v", entry.Metadata["width"])
	}
}

func TestComputeUpdatedHistoryCrossScheme(t *testing.T) {
	// Moving from a legacy handle to a storage key is a replacement.
	asset := &types.Asset{LegacyHandle: "legacy-123"}
	history, changed := ComputeUpdatedHistory(asset, types.Locator{StorageKey: "org/a.png"}, "", time.Now())
	if !changed {
		t.Fatalf("cross scheme changed: want=true got=false")
	}
	if got := history[0].Locator.ID(); got != "legacy:legacy-123" {
		t.Fatalf("snapshot locator: want=legacy:legacy-123 got=%s", got)
	}
}

func TestRestoreFromHistorySwapsEntries(t *testing.T) {
	old := types.HistoryEntry{
		Locator:    types.Locator{StorageKey: "org/old.png"},
		Metadata:   map[string]any{"width": float64(256)},
		ReplacedAt: time.Now().Add(-time.Hour),
	}
	asset := assetWithContent("org/current.png", []types.HistoryEntry{old})

	restored, history, err := RestoreFromHistory(asset, "key:org/old.png", time.Now())
	if err != nil {
		t.Fatalf("restore: unexpected error %v", err)
	}
	if got := restored.Locator.ID(); got != "key:org/old.png" {
		t.Fatalf("restored locator: want=key:org/old.png got=%s", got)
	}
	if len(history) != 1 {
		t.Fatalf("history length after restore: want=1 got=%d", len(history))
	}
	if got := history[0].Locator.ID(); got != "key:org/current.png" {
		t.Fatalf("swapped-in locator: want=key:org/current.png got=%s", got)
	}
	if history[0].EditType != "restore" {
		t.Fatalf("swapped-in edit type: want=restore got=%s", history[0].EditType)
	}
}

func TestRestoreFromHistoryNeverGenerated(t *testing.T) {
	asset := &types.Asset{}
	_, _, err := RestoreFromHistory(asset, "key:org/a.png", time.Now())
	if !errors.Is(err, apperr.ErrNoLocator) {
		t.Fatalf("restore on empty asset: want=ErrNoLocator got=%v", err)
	}
}

func TestRestoreFromHistoryMissingEntry(t *testing.T) {
	asset := assetWithContent("org/current.png", nil)
	_, _, err := RestoreFromHistory(asset, "key:org/ghost.png", time.Now())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("restore missing entry: want=ErrNotFound got=%v", err)
	}
}

func TestDeleteFromHistory(t *testing.T) {
	entries := []types.HistoryEntry{
		{Locator: types.Locator{StorageKey: "org/one.png"}},
		{Locator: types.Locator{LegacyHandle: "legacy-2"}},
	}
	asset := assetWithContent("org/current.png", entries)

	history, err := DeleteFromHistory(asset, "legacy:legacy-2")
	if err != nil {
		t.Fatalf("delete history entry: unexpected error %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length after delete: want=1 got=%d", len(history))
	}
	if got := history[0].Locator.ID(); got != "key:org/one.png" {
		t.Fatalf("remaining entry: want=key:org/one.png got=%s", got)
	}

	if _, err := DeleteFromHistory(asset, "key:org/ghost.png"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("delete missing entry: want=ErrNotFound got=%v", err)
	}
}
