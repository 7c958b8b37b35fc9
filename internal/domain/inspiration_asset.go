package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InspirationAsset is an aesthetic/style reference record. UsageCount is
// incremented fire-and-forget whenever a placeholder names it as a source.
type InspirationAsset struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	OrgID       *uuid.UUID     `gorm:"type:uuid;index" json:"org_id,omitempty"`
	Name        string         `gorm:"column:name" json:"name,omitempty"`
	URL         string         `gorm:"column:url" json:"url,omitempty"`
	StorageKey  string         `gorm:"column:storage_key;index" json:"storage_key,omitempty"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	UsageCount  int            `gorm:"column:usage_count;not null;default:0" json:"usage_count"`
	CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (InspirationAsset) TableName() string { return "inspiration_asset" }
