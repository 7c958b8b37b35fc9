package services

import (
	"fmt"
	"time"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
)

// The version history ledger. Pure functions over decoded history lists;
// callers persist the returned list only when changed is true.

// ComputeUpdatedHistory decides whether replacing the asset's content with
// newLocator constitutes a new version. History records replacements only:
// identical locator ids are a no-op, and the first-ever fill from empty
// produces no entry.
func ComputeUpdatedHistory(asset *types.Asset, newLocator types.Locator, editType string, now time.Time) (history []types.HistoryEntry, changed bool) {
	current := asset.Locator()
	history = types.DecodeHistory(asset.VersionHistory)

	if current.ID() == newLocator.ID() {
		return history, false
	}
	if current.IsZero() {
		return history, false
	}

	history = append(history, types.HistoryEntry{
		Locator:    current,
		Metadata:   asset.MetadataMap(),
		ReplacedAt: now.UTC(),
		EditType:   editType,
	})
	return history, true
}

// RestoreFromHistory swaps the target history entry with the current content:
// the entry is removed, the current locator is pushed as a new entry, and the
// returned locator/metadata become the asset's content. Restoring into an
// asset that never had content is a caller error.
func RestoreFromHistory(asset *types.Asset, targetLocatorID string, now time.Time) (restored types.HistoryEntry, history []types.HistoryEntry, err error) {
	current := asset.Locator()
	if current.IsZero() {
		return types.HistoryEntry{}, nil, apperr.ErrNoLocator
	}

	history = types.DecodeHistory(asset.VersionHistory)
	idx := -1
	for i, entry := range history {
		if entry.Locator.ID() == targetLocatorID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return types.HistoryEntry{}, nil, fmt.Errorf("history entry %q: %w", targetLocatorID, apperr.ErrNotFound)
	}

	restored = history[idx]
	history = append(history[:idx], history[idx+1:]...)
	history = append(history, types.HistoryEntry{
		Locator:    current,
		Metadata:   asset.MetadataMap(),
		ReplacedAt: now.UTC(),
		EditType:   "restore",
	})
	return restored, history, nil
}

// DeleteFromHistory removes a specific entry by locator identity.
func DeleteFromHistory(asset *types.Asset, targetLocatorID string) ([]types.HistoryEntry, error) {
	if asset.Locator().IsZero() {
		return nil, apperr.ErrNoLocator
	}
	history := types.DecodeHistory(asset.VersionHistory)
	for i, entry := range history {
		if entry.Locator.ID() == targetLocatorID {
			return append(history[:i], history[i+1:]...), nil
		}
	}
	return nil, fmt.Errorf("history entry %q: %w", targetLocatorID, apperr.ErrNotFound)
}
