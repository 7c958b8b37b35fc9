package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AssetTypeImage = "image"
	AssetTypeVideo = "video"
	AssetType3D    = "3d"

	AssetStatusPending    = "pending"
	AssetStatusProcessing = "processing"
	AssetStatusCompleted  = "completed"
	AssetStatusFailed     = "failed"

	// AssetGroupMain is the reserved group for a version's hero asset. A
	// version may never be left with zero completed main assets by a group
	// move or delete.
	AssetGroupMain = "main"

	BillingStatusPending = "pending"
	BillingStatusCharged = "charged"
	BillingStatusFailed  = "failed"

	// ArchivedMessage is the sentinel status message for soft-archived assets.
	ArchivedMessage = "archived"
)

type Asset struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	// VersionID is authoritative parentage; ProductID is denormalized from
	// the owning version for query convenience.
	VersionID uuid.UUID `gorm:"type:uuid;not null;index" json:"version_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`

	OwnerUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	OrgID       *uuid.UUID `gorm:"type:uuid;index" json:"org_id,omitempty"`

	Type       string `gorm:"column:type;not null;index" json:"type"` // image|video|3d, immutable
	AssetGroup string `gorm:"column:asset_group;not null;index" json:"asset_group"`

	Status        string `gorm:"column:status;not null;index" json:"status"`
	StatusMessage string `gorm:"column:status_message" json:"status_message,omitempty"`

	// Content locator union. StorageKey is the current content-addressed
	// scheme (organizationSlug/mediaType/uuid[.ext]); LegacyHandle is the
	// opaque handle of the legacy backend. URL caches the resolved absolute
	// URL for whichever scheme is authoritative.
	URL          string `gorm:"column:url" json:"url,omitempty"`
	StorageKey   string `gorm:"column:storage_key;index" json:"storage_key,omitempty"`
	LegacyHandle string `gorm:"column:legacy_handle;index" json:"legacy_handle,omitempty"`

	Alternates     datatypes.JSON `gorm:"column:alternates;type:jsonb" json:"alternates,omitempty"`
	VersionHistory datatypes.JSON `gorm:"column:version_history;type:jsonb" json:"version_history,omitempty"`

	Prompt          string `gorm:"column:prompt;type:text" json:"prompt,omitempty"`
	PreviewImageURL string `gorm:"column:preview_image_url" json:"preview_image_url,omitempty"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	// Workflow correlation.
	WorkflowID   string     `gorm:"column:workflow_id;index" json:"workflow_id,omitempty"`
	ThreadID     string     `gorm:"column:thread_id;index" json:"thread_id,omitempty"`
	AutoGenRunID *uuid.UUID `gorm:"type:uuid;column:auto_gen_run_id;index" json:"auto_gen_run_id,omitempty"`

	UpscaledFromID *uuid.UUID     `gorm:"type:uuid;column:upscaled_from_id" json:"upscaled_from_id,omitempty"`
	InspirationIDs datatypes.JSON `gorm:"column:inspiration_ids;type:jsonb" json:"inspiration_ids,omitempty"`

	// Billing bookkeeping. Updated on a separate code path from generation
	// status; never bumps version history or version activity.
	Cost          float64    `gorm:"column:cost;not null;default:0" json:"cost"`
	BilledCost    float64    `gorm:"column:billed_cost;not null;default:0" json:"billed_cost"`
	BillingStatus string     `gorm:"column:billing_status;index" json:"billing_status,omitempty"`
	BilledAt      *time.Time `gorm:"column:billed_at" json:"billed_at,omitempty"`
	BillingError  string     `gorm:"column:billing_error" json:"billing_error,omitempty"`

	CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Asset) TableName() string { return "asset" }

// Locator returns the asset's current content locator union.
func (a *Asset) Locator() Locator {
	if a == nil {
		return Locator{}
	}
	return Locator{URL: a.URL, StorageKey: a.StorageKey, LegacyHandle: a.LegacyHandle}
}

// MetadataMap decodes the free-form metadata bag. Never returns nil.
func (a *Asset) MetadataMap() map[string]any {
	out := map[string]any{}
	if a == nil || len(a.Metadata) == 0 {
		return out
	}
	s := strings.TrimSpace(string(a.Metadata))
	if s == "" || s == "null" {
		return out
	}
	_ = json.Unmarshal(a.Metadata, &out)
	return out
}

// HasCompleteMetadata reports whether finalize-time metadata has been applied:
// positive pixel dimensions and file size. Used with a matching locator as the
// duplicate-completion signal.
func (a *Asset) HasCompleteMetadata() bool {
	m := a.MetadataMap()
	return metaNumber(m, "width") > 0 && metaNumber(m, "height") > 0 && metaNumber(m, "file_size") > 0
}

func metaNumber(m map[string]any, key string) float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

// MergeMetadata overlays updates onto an existing metadata bag, preserving
// unrelated keys. Nil values in updates delete the key.
func MergeMetadata(existing datatypes.JSON, updates map[string]any) datatypes.JSON {
	merged := map[string]any{}
	if len(existing) > 0 {
		s := strings.TrimSpace(string(existing))
		if s != "" && s != "null" {
			_ = json.Unmarshal(existing, &merged)
		}
	}
	for k, v := range updates {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return existing
	}
	return datatypes.JSON(b)
}
