package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// AutoGenRun tracks a batch of asset generations sharing one workflow/run id.
// The video reconciler and the sweeper read and update these rows
// independently of the asset rows they track.
type AutoGenRun struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VersionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"version_id"`
	WorkflowID string    `gorm:"column:workflow_id;index" json:"workflow_id,omitempty"`
	Status     string    `gorm:"column:status;not null;index" json:"status"`

	TotalCount     int `gorm:"column:total_count;not null;default:0" json:"total_count"`
	CompletedCount int `gorm:"column:completed_count;not null;default:0" json:"completed_count"`
	FailedCount    int `gorm:"column:failed_count;not null;default:0" json:"failed_count"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AutoGenRun) TableName() string { return "auto_gen_run" }
