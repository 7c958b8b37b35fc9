package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/voltastudio/volta-backend/internal/clients/gcp"
	"github.com/voltastudio/volta-backend/internal/clients/s3legacy"
	"github.com/voltastudio/volta-backend/internal/data/repos"
	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/platform/sideeffect"
)

// CreatePlaceholderInput names either a version directly or just a product,
// in which case the product's most recent version is used.
type CreatePlaceholderInput struct {
	VersionID *uuid.UUID
	ProductID *uuid.UUID

	OwnerUserID uuid.UUID
	OrgID       *uuid.UUID

	Type       string
	AssetGroup string
	Prompt     string

	// Target dimensions seed the metadata bag for layout purposes and are
	// overwritten with actual values at finalization.
	TargetWidth  int
	TargetHeight int

	ThreadID       string
	AutoGenRunID   *uuid.UUID
	UpscaledFromID *uuid.UUID
	InspirationIDs []uuid.UUID
}

// FinalizeInput attaches real content to an asset.
type FinalizeInput struct {
	Locator  types.Locator
	URL      string // resolved absolute URL; resolved from the locator when empty
	Width    int
	Height   int
	FileSize int64
	MimeType string
	Duration   float64
	EditType   string
	PreviewURL string

	// AutoSelect makes a first-ever fill the version's active asset. Edit
	// style single-asset flows want this; batch flows usually don't.
	AutoSelect bool

	Alternates []types.AlternateEntry
}

type AssetService interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error)
	ListByVersion(dbc dbctx.Context, versionID uuid.UUID) ([]*types.Asset, error)

	CreatePlaceholder(dbc dbctx.Context, in CreatePlaceholderInput) (*types.Asset, error)
	Finalize(dbc dbctx.Context, assetID uuid.UUID, in FinalizeInput) (*types.Asset, error)
	Fail(dbc dbctx.Context, assetID uuid.UUID, message string)
	MarkPending(dbc dbctx.Context, assetID uuid.UUID) error
	RevertToCompleted(dbc dbctx.Context, assetID uuid.UUID, message string) error
	Delete(dbc dbctx.Context, assetID uuid.UUID) error
	Duplicate(dbc dbctx.Context, assetID uuid.UUID) (*types.Asset, error)
	UpdateAssetGroup(dbc dbctx.Context, assetID uuid.UUID, group string) error
	Archive(dbc dbctx.Context, assetID uuid.UUID) error

	SelectAlternate(dbc dbctx.Context, assetID uuid.UUID, locatorID string) (*types.Asset, error)
	RestoreFromHistory(dbc dbctx.Context, assetID uuid.UUID, locatorID string) (*types.Asset, error)
	DeleteHistoryEntry(dbc dbctx.Context, assetID uuid.UUID, locatorID string) (*types.Asset, error)

	SetWorkflowID(dbc dbctx.Context, assetID uuid.UUID, workflowID string)
	RecordBillingState(dbc dbctx.Context, assetID uuid.UUID, status string, billedCost, costToCompany float64, billingErr string) error
}

type assetService struct {
	db  *gorm.DB
	log *logger.Logger

	assets       repos.AssetRepo
	versions     repos.VersionRepo
	transactions repos.AssetTransactionRepo
	inspirations repos.InspirationRepo
	events       repos.AssetEventRepo

	resolver StorageResolver
	bucket   gcp.BucketService
	legacy   s3legacy.Store
	notify   Notifier
}

func NewAssetService(
	db *gorm.DB,
	baseLog *logger.Logger,
	assets repos.AssetRepo,
	versions repos.VersionRepo,
	transactions repos.AssetTransactionRepo,
	inspirations repos.InspirationRepo,
	events repos.AssetEventRepo,
	resolver StorageResolver,
	bucket gcp.BucketService,
	legacy s3legacy.Store,
	notify Notifier,
) AssetService {
	return &assetService{
		db:           db,
		log:          baseLog.With("service", "AssetService"),
		assets:       assets,
		versions:     versions,
		transactions: transactions,
		inspirations: inspirations,
		events:       events,
		resolver:     resolver,
		bucket:       bucket,
		legacy:       legacy,
		notify:       notify,
	}
}

func (s *assetService) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error) {
	return s.assets.GetByID(dbc, id)
}

func (s *assetService) ListByVersion(dbc dbctx.Context, versionID uuid.UUID) ([]*types.Asset, error) {
	return s.assets.ListByVersionID(dbc, versionID)
}

func (s *assetService) CreatePlaceholder(dbc dbctx.Context, in CreatePlaceholderInput) (*types.Asset, error) {
	if in.OwnerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing owner user id: %w", apperr.ErrInvalidArgument)
	}
	assetType := strings.TrimSpace(in.Type)
	switch assetType {
	case types.AssetTypeImage, types.AssetTypeVideo, types.AssetType3D:
	case "":
		assetType = types.AssetTypeImage
	default:
		return nil, fmt.Errorf("unknown asset type %q: %w", in.Type, apperr.ErrInvalidArgument)
	}

	var version *types.ProductVersion
	var err error
	switch {
	case in.VersionID != nil && *in.VersionID != uuid.Nil:
		version, err = s.versions.GetByID(dbc, *in.VersionID)
	case in.ProductID != nil && *in.ProductID != uuid.Nil:
		version, err = s.versions.GetLatestByProductID(dbc, *in.ProductID)
	default:
		return nil, fmt.Errorf("missing version or product reference: %w", apperr.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}

	group := strings.TrimSpace(in.AssetGroup)
	if group == "" {
		group = types.AssetGroupMain
	}

	meta := map[string]any{}
	if in.TargetWidth > 0 {
		meta["width"] = in.TargetWidth
	}
	if in.TargetHeight > 0 {
		meta["height"] = in.TargetHeight
	}
	metaJSON, _ := json.Marshal(meta)

	inspJSON := datatypes.JSON([]byte("[]"))
	if len(in.InspirationIDs) > 0 {
		if b, merr := json.Marshal(in.InspirationIDs); merr == nil {
			inspJSON = datatypes.JSON(b)
		}
	}

	asset := &types.Asset{
		ID:             uuid.New(),
		VersionID:      version.ID,
		ProductID:      version.ProductID,
		OwnerUserID:    in.OwnerUserID,
		OrgID:          in.OrgID,
		Type:           assetType,
		AssetGroup:     group,
		Status:         types.AssetStatusPending,
		Prompt:         strings.TrimSpace(in.Prompt),
		ThreadID:       strings.TrimSpace(in.ThreadID),
		AutoGenRunID:   in.AutoGenRunID,
		UpscaledFromID: in.UpscaledFromID,
		InspirationIDs: inspJSON,
		Metadata:       datatypes.JSON(metaJSON),
		VersionHistory: datatypes.JSON([]byte("[]")),
		Alternates:     datatypes.JSON([]byte("[]")),
	}

	if _, err := s.assets.Create(dbc, []*types.Asset{asset}); err != nil {
		return nil, err
	}

	s.bumpActivity(dbc, version.ID)
	if len(in.InspirationIDs) > 0 {
		ids := in.InspirationIDs
		sideeffect.Run(s.log, "inspiration_usage_increment", func() error {
			return s.inspirations.IncrementUsage(dbc, ids)
		})
	}

	return asset, nil
}

func (s *assetService) Finalize(dbc dbctx.Context, assetID uuid.UUID, in FinalizeInput) (*types.Asset, error) {
	asset, err := s.assets.GetByID(dbc, assetID)
	if err != nil {
		return nil, err
	}
	if in.Locator.IsZero() {
		return nil, apperr.ErrNoLocator
	}

	now := time.Now().UTC()
	current := asset.Locator()
	contentChanged := current.ID() != in.Locator.ID()
	firstFill := current.IsZero()

	url := strings.TrimSpace(in.URL)
	if url == "" {
		resolved, rerr := s.resolver.Resolve(dbc.Ctx, in.Locator)
		if rerr != nil {
			return nil, rerr
		}
		url = resolved
	}

	metaUpdates := map[string]any{}
	if in.Width > 0 {
		metaUpdates["width"] = in.Width
	}
	if in.Height > 0 {
		metaUpdates["height"] = in.Height
	}
	if in.FileSize > 0 {
		metaUpdates["file_size"] = in.FileSize
	}
	if mt := strings.TrimSpace(in.MimeType); mt != "" {
		metaUpdates["mime_type"] = mt
	}
	if in.Duration > 0 {
		metaUpdates["duration"] = in.Duration
	}

	fields := map[string]any{
		"status":         types.AssetStatusCompleted,
		"status_message": "",
		"url":            url,
		"storage_key":    in.Locator.StorageKey,
		"legacy_handle":  in.Locator.LegacyHandle,
		"metadata":       types.MergeMetadata(asset.Metadata, metaUpdates),
	}

	if history, changed := ComputeUpdatedHistory(asset, in.Locator, in.EditType, now); changed {
		fields["version_history"] = types.EncodeHistory(history)
	}

	// completedAt stamps once per generation attempt. A later distinct edit
	// re-stamps; a duplicate callback with identical content does not.
	if contentChanged || asset.CompletedAt == nil {
		fields["completed_at"] = now
	}

	if len(in.Alternates) > 0 {
		fields["alternates"] = types.EncodeAlternates(in.Alternates)
	}
	if pv := strings.TrimSpace(in.PreviewURL); pv != "" {
		fields["preview_image_url"] = pv
	}

	if err := s.assets.UpdateFields(dbc, assetID, fields); err != nil {
		return nil, err
	}

	if firstFill && in.AutoSelect {
		id := assetID
		sideeffect.Run(s.log, "auto_select_active_asset", func() error {
			return s.versions.SetActiveAsset(dbc, asset.VersionID, &id)
		})
	}
	s.bumpActivity(dbc, asset.VersionID)
	s.emitEvent(dbc, asset, types.AssetEventCompleted, map[string]any{
		"locator_id": in.Locator.ID(),
		"width":      in.Width,
		"height":     in.Height,
	})
	if s.notify != nil {
		sideeffect.Run(s.log, "asset_completed_notification", func() error {
			return s.notify.AssetCompleted(dbc.Ctx, assetID)
		})
	}

	return s.assets.GetByID(dbc, assetID)
}

// Fail transitions an asset to failed with a status message. It never
// returns an error; a fail that cannot be persisted is logged and dropped.
func (s *assetService) Fail(dbc dbctx.Context, assetID uuid.UUID, message string) {
	asset, err := s.assets.GetByID(dbc, assetID)
	if err != nil {
		s.log.Error("Fail: load asset", "asset_id", assetID, "error", err)
		return
	}
	err = s.assets.UpdateFields(dbc, assetID, map[string]any{
		"status":         types.AssetStatusFailed,
		"status_message": strings.TrimSpace(message),
	})
	if err != nil {
		s.log.Error("Fail: update asset", "asset_id", assetID, "error", err)
		return
	}
	s.bumpActivity(dbc, asset.VersionID)
	s.emitEvent(dbc, asset, types.AssetEventFailed, map[string]any{"message": message})
}

// MarkPending re-enters pending for an in-place regeneration. The creation
// timestamp is reset so the sweeper's age checks start over.
func (s *assetService) MarkPending(dbc dbctx.Context, assetID uuid.UUID) error {
	return s.assets.UpdateFields(dbc, assetID, map[string]any{
		"status":         types.AssetStatusPending,
		"status_message": "",
		"created_at":     time.Now().UTC(),
	})
}

// RevertToCompleted undoes MarkPending after a failed regeneration attempt.
// Prior content is untouched since Finalize never ran; the message tells the
// UI why the old content is still showing.
func (s *assetService) RevertToCompleted(dbc dbctx.Context, assetID uuid.UUID, message string) error {
	err := s.assets.UpdateFields(dbc, assetID, map[string]any{
		"status":         types.AssetStatusCompleted,
		"status_message": strings.TrimSpace(message),
	})
	if err != nil {
		return err
	}
	if asset, aerr := s.assets.GetByID(dbc, assetID); aerr == nil {
		s.bumpActivity(dbc, asset.VersionID)
	}
	return nil
}

func (s *assetService) Delete(dbc dbctx.Context, assetID uuid.UUID) error {
	asset, err := s.assets.GetByID(dbc, assetID)
	if err != nil {
		return err
	}
	if err := s.checkMainGroupInvariant(dbc, asset); err != nil {
		return err
	}

	if err := s.transactions.DeleteByAssetID(dbc, assetID); err != nil {
		return fmt.Errorf("delete asset transactions: %w", err)
	}

	// Row deletion and object deletion are separately guarded: the stored
	// object may be shared by duplicates or other referencing records.
	loc := asset.Locator()
	if !loc.IsZero() {
		referrers, cerr := s.assets.CountByLocator(dbc, loc, assetID)
		if cerr != nil {
			return fmt.Errorf("count locator referrers: %w", cerr)
		}
		if referrers == 0 {
			s.deleteStoredObject(dbc, loc)
		}
	}

	if err := s.assets.FullDelete(dbc, assetID); err != nil {
		return err
	}
	s.bumpActivity(dbc, asset.VersionID)
	return nil
}

func (s *assetService) deleteStoredObject(dbc dbctx.Context, loc types.Locator) {
	switch {
	case loc.StorageKey != "":
		if s.bucket != nil {
			key := loc.StorageKey
			sideeffect.Run(s.log, "delete_stored_object", func() error {
				return s.bucket.DeleteFile(dbc.Ctx, key)
			})
		}
	case loc.LegacyHandle != "":
		if s.legacy != nil {
			handle := loc.LegacyHandle
			sideeffect.Run(s.log, "delete_legacy_object", func() error {
				return s.legacy.DeleteObject(dbc.Ctx, handle)
			})
		}
	}
}

func (s *assetService) Duplicate(dbc dbctx.Context, assetID uuid.UUID) (*types.Asset, error) {
	src, err := s.assets.GetByID(dbc, assetID)
	if err != nil {
		return nil, err
	}

	// Shares storage with the source; bytes are never copied. Edit history
	// and workflow correlation start empty on the duplicate.
	dup := &types.Asset{
		ID:              uuid.New(),
		VersionID:       src.VersionID,
		ProductID:       src.ProductID,
		OwnerUserID:     src.OwnerUserID,
		OrgID:           src.OrgID,
		Type:            src.Type,
		AssetGroup:      src.AssetGroup,
		Status:          src.Status,
		URL:             src.URL,
		StorageKey:      src.StorageKey,
		LegacyHandle:    src.LegacyHandle,
		Prompt:          src.Prompt,
		PreviewImageURL: src.PreviewImageURL,
		Metadata:        src.Metadata,
		InspirationIDs:  src.InspirationIDs,
		Alternates:      src.Alternates,
		VersionHistory:  datatypes.JSON([]byte("[]")),
		CompletedAt:     src.CompletedAt,
	}
	if _, err := s.assets.Create(dbc, []*types.Asset{dup}); err != nil {
		return nil, err
	}
	s.bumpActivity(dbc, src.VersionID)
	return dup, nil
}

func (s *assetService) UpdateAssetGroup(dbc dbctx.Context, assetID uuid.UUID, group string) error {
	group = strings.TrimSpace(group)
	if group == "" {
		return fmt.Errorf("missing asset group: %w", apperr.ErrInvalidArgument)
	}
	asset, err := s.assets.GetByID(dbc, assetID)
	if err != nil {
		return err
	}
	if asset.AssetGroup == group {
		return nil
	}
	if err := s.checkMainGroupInvariant(dbc, asset); err != nil {
		return err
	}
	if err := s.assets.UpdateFields(dbc, assetID, map[string]any{"asset_group": group}); err != nil {
		return err
	}
	s.bumpActivity(dbc, asset.VersionID)
	return nil
}

// Archive soft-archives a completed asset: failed status with a sentinel
// message, content retained.
func (s *assetService) Archive(dbc dbctx.Context, assetID uuid.UUID) error {
	asset, err := s.assets.GetByID(dbc, assetID)
	if err != nil {
		return err
	}
	if err := s.checkMainGroupInvariant(dbc, asset); err != nil {
		return err
	}
	if err := s.assets.UpdateFields(dbc, assetID, map[string]any{
		"status":         types.AssetStatusFailed,
		"status_message": types.ArchivedMessage,
	}); err != nil {
		return err
	}
	s.bumpActivity(dbc, asset.VersionID)
	return nil
}

// checkMainGroupInvariant rejects removing the last completed "main" asset
// from a version, whether by delete, group move, or archive.
func (s *assetService) checkMainGroupInvariant(dbc dbctx.Context, asset *types.Asset) error {
	if asset.AssetGroup != types.AssetGroupMain || asset.Status != types.AssetStatusCompleted {
		return nil
	}
	siblings, err := s.assets.CountCompletedInGroup(dbc, asset.VersionID, types.AssetGroupMain, asset.ID)
	if err != nil {
		return err
	}
	if siblings == 0 {
		return apperr.ErrLastMainAsset
	}
	return nil
}

func (s *assetService) SelectAlternate(dbc dbctx.Context, assetID uuid.UUID, locatorID string) (*types.Asset, error) {
	asset, err := s.assets.GetByID(dbc, assetID)
	if err != nil {
		return nil, err
	}

	alternates := types.DecodeAlternates(asset.Alternates)
	idx := -1
	for i, alt := range alternates {
		if alt.Locator.ID() == locatorID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("alternate %q: %w", locatorID, apperr.ErrNotFound)
	}
	chosen := alternates[idx]

	// The outgoing authoritative content swaps into the alternates list and
	// the ledger records the replacement.
	alternates[idx] = types.AlternateEntry{Locator: asset.Locator(), Metadata: asset.MetadataMap()}

	return s.Finalize(dbc, assetID, FinalizeInput{
		Locator:    chosen.Locator,
		Width:      int(altNumber(chosen.Metadata, "width")),
		Height:     int(altNumber(chosen.Metadata, "height")),
		FileSize:   int64(altNumber(chosen.Metadata, "file_size")),
		EditType:   "alternate-select",
		Alternates: alternates,
	})
}

func altNumber(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	if f, ok := m[key].(float64); ok {
		return f
	}
	if i, ok := m[key].(int); ok {
		return float64(i)
	}
	return 0
}

func (s *assetService) RestoreFromHistory(dbc dbctx.Context, assetID uuid.UUID, locatorID string) (*types.Asset, error) {
	asset, err := s.assets.GetByID(dbc, assetID)
	if err != nil {
		return nil, err
	}

	restored, history, err := RestoreFromHistory(asset, locatorID, time.Now())
	if err != nil {
		return nil, err
	}

	url := restored.Locator.URL
	if url == "" {
		if resolved, rerr := s.resolver.Resolve(dbc.Ctx, restored.Locator); rerr == nil {
			url = resolved
		}
	}

	metaJSON, _ := json.Marshal(restored.Metadata)
	err = s.assets.UpdateFields(dbc, assetID, map[string]any{
		"url":             url,
		"storage_key":     restored.Locator.StorageKey,
		"legacy_handle":   restored.Locator.LegacyHandle,
		"metadata":        datatypes.JSON(metaJSON),
		"version_history": types.EncodeHistory(history),
	})
	if err != nil {
		return nil, err
	}
	s.bumpActivity(dbc, asset.VersionID)
	return s.assets.GetByID(dbc, assetID)
}

func (s *assetService) DeleteHistoryEntry(dbc dbctx.Context, assetID uuid.UUID, locatorID string) (*types.Asset, error) {
	asset, err := s.assets.GetByID(dbc, assetID)
	if err != nil {
		return nil, err
	}
	history, err := DeleteFromHistory(asset, locatorID)
	if err != nil {
		return nil, err
	}
	err = s.assets.UpdateFields(dbc, assetID, map[string]any{
		"version_history": types.EncodeHistory(history),
	})
	if err != nil {
		return nil, err
	}
	return s.assets.GetByID(dbc, assetID)
}

// SetWorkflowID records the correlation handle best-effort. The workflow is
// already running by the time we have a handle, so a persistence failure must
// not be treated as a failed dispatch.
func (s *assetService) SetWorkflowID(dbc dbctx.Context, assetID uuid.UUID, workflowID string) {
	sideeffect.Run(s.log, "persist_workflow_handle", func() error {
		return s.assets.UpdateFields(dbc, assetID, map[string]any{"workflow_id": workflowID})
	})
}

// RecordBillingState updates the billing sub-record only. It never touches
// version history or activity bookkeeping.
func (s *assetService) RecordBillingState(dbc dbctx.Context, assetID uuid.UUID, status string, billedCost, costToCompany float64, billingErr string) error {
	fields := map[string]any{
		"billing_status": status,
		"billing_error":  strings.TrimSpace(billingErr),
	}
	if status == types.BillingStatusCharged {
		fields["billed_at"] = time.Now().UTC()
		fields["billed_cost"] = billedCost
		fields["cost"] = costToCompany
	}
	return s.assets.UpdateFields(dbc, assetID, fields)
}

func (s *assetService) bumpActivity(dbc dbctx.Context, versionID uuid.UUID) {
	sideeffect.Run(s.log, "version_activity_bump", func() error {
		return s.versions.TouchActivity(dbc, versionID)
	})
}

func (s *assetService) emitEvent(dbc dbctx.Context, asset *types.Asset, kind string, data map[string]any) {
	sideeffect.Run(s.log, "asset_event_emit", func() error {
		raw, err := json.Marshal(data)
		if err != nil {
			raw = []byte("{}")
		}
		_, err = s.events.Create(dbc, []*types.AssetEvent{{
			ID:        uuid.New(),
			AssetID:   asset.ID,
			VersionID: asset.VersionID,
			ProductID: asset.ProductID,
			OrgID:     asset.OrgID,
			Kind:      kind,
			Data:      datatypes.JSON(raw),
		}})
		return err
	})
}
