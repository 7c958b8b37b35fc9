package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	OrgID       *uuid.UUID     `gorm:"type:uuid;index" json:"org_id,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Product) TableName() string { return "product" }

// ProductVersion groups assets and owns shared pattern/layout metadata. Its
// UpdatedAt doubles as the activity timestamp bumped by most asset mutations.
type ProductVersion struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Name      string    `gorm:"column:name" json:"name,omitempty"`

	PatternMetadata datatypes.JSON `gorm:"column:pattern_metadata;type:jsonb" json:"pattern_metadata,omitempty"`

	// ActiveAssetID points at "the" displayed asset for this version.
	ActiveAssetID *uuid.UUID `gorm:"type:uuid;column:active_asset_id" json:"active_asset_id,omitempty"`

	// ActiveAutoGenRunID tracks the in-flight batch generation run, if any.
	ActiveAutoGenRunID *uuid.UUID `gorm:"type:uuid;column:active_auto_gen_run_id" json:"active_auto_gen_run_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProductVersion) TableName() string { return "product_version" }
