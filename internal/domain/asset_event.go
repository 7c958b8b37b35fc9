package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AssetEventCompleted = "completed"
	AssetEventFailed    = "failed"
	AssetEventSwept     = "swept"
)

// AssetEvent is an append-only ledger of asset lifecycle events consumed by
// downstream analytics. Emission is always best-effort.
type AssetEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AssetID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"asset_id"`
	VersionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"version_id"`
	ProductID uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	OrgID     *uuid.UUID     `gorm:"type:uuid;index" json:"org_id,omitempty"`
	Kind      string         `gorm:"column:kind;not null;index" json:"kind"`
	Data      datatypes.JSON `gorm:"column:data;type:jsonb" json:"data,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AssetEvent) TableName() string { return "asset_event" }
