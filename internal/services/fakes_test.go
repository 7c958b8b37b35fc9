package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

func testLogger(tb interface{ Fatalf(string, ...any) }) *logger.Logger {
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("init test logger: %v", err)
	}
	return log
}

// ---- asset repo ----

type fakeAssetRepo struct {
	mu     sync.Mutex
	assets map[uuid.UUID]*types.Asset
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: map[uuid.UUID]*types.Asset{}}
}

func (f *fakeAssetRepo) Create(_ dbctx.Context, assets []*types.Asset) ([]*types.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range assets {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		cp := *a
		f.assets[a.ID] = &cp
	}
	return assets, nil
}

func (f *fakeAssetRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, apperr.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssetRepo) ListByVersionID(_ dbctx.Context, versionID uuid.UUID) ([]*types.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Asset
	for _, a := range f.assets {
		if a.VersionID == versionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAssetRepo) ListPending(_ dbctx.Context) ([]*types.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Asset
	for _, a := range f.assets {
		if a.Status == types.AssetStatusPending || a.Status == types.AssetStatusProcessing {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAssetRepo) UpdateFields(_ dbctx.Context, id uuid.UUID, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[id]
	if !ok {
		return fmt.Errorf("asset %s: %w", id, apperr.ErrNotFound)
	}
	for k, v := range fields {
		switch k {
		case "status":
			a.Status = v.(string)
		case "status_message":
			a.StatusMessage = v.(string)
		case "url":
			a.URL = v.(string)
		case "storage_key":
			a.StorageKey = v.(string)
		case "legacy_handle":
			a.LegacyHandle = v.(string)
		case "asset_group":
			a.AssetGroup = v.(string)
		case "workflow_id":
			a.WorkflowID = v.(string)
		case "preview_image_url":
			a.PreviewImageURL = v.(string)
		case "metadata":
			a.Metadata = v.(datatypes.JSON)
		case "version_history":
			a.VersionHistory = v.(datatypes.JSON)
		case "alternates":
			a.Alternates = v.(datatypes.JSON)
		case "created_at":
			a.CreatedAt = v.(time.Time)
		case "completed_at":
			t := v.(time.Time)
			a.CompletedAt = &t
		case "billing_status":
			a.BillingStatus = v.(string)
		case "billing_error":
			a.BillingError = v.(string)
		case "billed_at":
			t := v.(time.Time)
			a.BilledAt = &t
		case "billed_cost":
			a.BilledCost = v.(float64)
		case "cost":
			a.Cost = v.(float64)
		default:
			return fmt.Errorf("fakeAssetRepo: unhandled field %q", k)
		}
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeAssetRepo) FullDelete(_ dbctx.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.assets[id]; !ok {
		return fmt.Errorf("asset %s: %w", id, apperr.ErrNotFound)
	}
	delete(f.assets, id)
	return nil
}

func (f *fakeAssetRepo) CountCompletedInGroup(_ dbctx.Context, versionID uuid.UUID, group string, excludeID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.assets {
		if a.ID == excludeID {
			continue
		}
		if a.VersionID == versionID && a.AssetGroup == group && a.Status == types.AssetStatusCompleted {
			n++
		}
	}
	return n, nil
}

func (f *fakeAssetRepo) CountByLocator(_ dbctx.Context, loc types.Locator, excludeID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.assets {
		if a.ID == excludeID {
			continue
		}
		if a.Locator().ID() == loc.ID() {
			n++
		}
	}
	return n, nil
}

func (f *fakeAssetRepo) get(id uuid.UUID) *types.Asset {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assets[id]
}

// ---- version repo ----

type fakeVersionRepo struct {
	mu            sync.Mutex
	versions      map[uuid.UUID]*types.ProductVersion
	touchCount    int
	activeAssetID *uuid.UUID
	activeRunID   *uuid.UUID
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{versions: map[uuid.UUID]*types.ProductVersion{}}
}

func (f *fakeVersionRepo) add(v *types.ProductVersion) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versions[v.ID] = v
}

func (f *fakeVersionRepo) Create(_ dbctx.Context, versions []*types.ProductVersion) ([]*types.ProductVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range versions {
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		f.versions[v.ID] = v
	}
	return versions, nil
}

func (f *fakeVersionRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.ProductVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.versions[id]
	if !ok {
		return nil, fmt.Errorf("version %s: %w", id, apperr.ErrNotFound)
	}
	return v, nil
}

func (f *fakeVersionRepo) GetLatestByProductID(_ dbctx.Context, productID uuid.UUID) (*types.ProductVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *types.ProductVersion
	for _, v := range f.versions {
		if v.ProductID != productID {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("product has no versions: %w", apperr.ErrNotFound)
	}
	return latest, nil
}

func (f *fakeVersionRepo) TouchActivity(_ dbctx.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touchCount++
	return nil
}

func (f *fakeVersionRepo) SetActiveAsset(_ dbctx.Context, id uuid.UUID, assetID *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeAssetID = assetID
	return nil
}

func (f *fakeVersionRepo) SetActiveRun(_ dbctx.Context, id uuid.UUID, runID *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeRunID = runID
	return nil
}

func (f *fakeVersionRepo) touches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touchCount
}

// ---- small repos ----

type fakeTransactionRepo struct {
	mu      sync.Mutex
	rows    []*types.AssetTransaction
	deleted []uuid.UUID
}

func (f *fakeTransactionRepo) Create(_ dbctx.Context, txs []*types.AssetTransaction) ([]*types.AssetTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, txs...)
	return txs, nil
}

func (f *fakeTransactionRepo) DeleteByAssetID(_ dbctx.Context, assetID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, assetID)
	return nil
}

type fakeInspirationRepo struct {
	mu          sync.Mutex
	incremented [][]uuid.UUID
}

func (f *fakeInspirationRepo) IncrementUsage(_ dbctx.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incremented = append(f.incremented, ids)
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*types.AssetEvent
}

func (f *fakeEventRepo) Create(_ dbctx.Context, events []*types.AssetEvent) ([]*types.AssetEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	return events, nil
}

func (f *fakeEventRepo) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

type fakeRunRepo struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*types.AutoGenRun
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: map[uuid.UUID]*types.AutoGenRun{}}
}

func (f *fakeRunRepo) Create(_ dbctx.Context, runs []*types.AutoGenRun) ([]*types.AutoGenRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range runs {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		f.runs[r.ID] = r
	}
	return runs, nil
}

func (f *fakeRunRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.AutoGenRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, apperr.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRunRepo) GetByWorkflowID(_ dbctx.Context, workflowID string) (*types.AutoGenRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.runs {
		if r.WorkflowID == workflowID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("run for workflow %s: %w", workflowID, apperr.ErrNotFound)
}

func (f *fakeRunRepo) SetStatusByWorkflowID(_ dbctx.Context, workflowID string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.runs {
		if r.WorkflowID == workflowID {
			r.Status = status
			return nil
		}
	}
	return fmt.Errorf("run for workflow %s: %w", workflowID, apperr.ErrNotFound)
}

func (f *fakeRunRepo) IncrementProgress(_ dbctx.Context, id uuid.UUID, completedDelta, failedDelta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return fmt.Errorf("run %s: %w", id, apperr.ErrNotFound)
	}
	r.CompletedCount += completedDelta
	r.FailedCount += failedDelta
	return nil
}

// ---- storage fakes ----

type fakeBucket struct {
	mu       sync.Mutex
	objects  map[string][]byte
	deleted  []string
	uploaded []string
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}}
}

func (f *fakeBucket) UploadFile(_ context.Context, key string, _ io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = []byte("x")
	f.uploaded = append(f.uploaded, key)
	return nil
}

func (f *fakeBucket) DeleteFile(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBucket) ObjectExists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeBucket) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeBucket) put(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = []byte("x")
}

type fakeLegacy struct {
	mu      sync.Mutex
	handles map[string]string
	deleted []string
}

func newFakeLegacy() *fakeLegacy {
	return &fakeLegacy{handles: map[string]string{}}
}

func (f *fakeLegacy) ResolveHandle(_ context.Context, handle string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url, ok := f.handles[handle]
	if !ok {
		return "", fmt.Errorf("legacy object %s: %w", handle, apperr.ErrObjectNotFound)
	}
	return url, nil
}

func (f *fakeLegacy) ObjectExists(_ context.Context, handle string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handles[handle]
	return ok, nil
}

func (f *fakeLegacy) DeleteObject(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handles, handle)
	f.deleted = append(f.deleted, handle)
	return nil
}

func (f *fakeLegacy) put(handle, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handles[handle] = url
}
