package domain

import (
	"time"

	"github.com/google/uuid"
)

// AssetTransaction is a financial record dependent on an asset. Rows are
// deleted when their asset is deleted; they never gate the delete itself.
type AssetTransaction struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AssetID       uuid.UUID `gorm:"type:uuid;not null;index" json:"asset_id"`
	OwnerUserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Kind          string    `gorm:"column:kind;not null;index" json:"kind"` // generation|upscale|edit
	Amount        float64   `gorm:"column:amount;not null;default:0" json:"amount"`
	CostToCompany float64   `gorm:"column:cost_to_company;not null;default:0" json:"cost_to_company"`
	CreatedAt     time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (AssetTransaction) TableName() string { return "asset_transaction" }
