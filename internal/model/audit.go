package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSubmitProposal   = "SUBMIT_PROPOSAL"
	ActionApproveProposal  = "APPROVE_PROPOSAL"
	ActionRejectProposal   = "REJECT_PROPOSAL"
	ActionRequestChanges   = "REQUEST_CHANGES"
	ActionCompleteProposal = "COMPLETE_PROPOSAL"

	// Schedule feed actions
	ActionUploadScheduleRow = "UPLOAD_SCHEDULE_ROW"
	ActionDeleteScheduleRow = "DELETE_SCHEDULE_ROW"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
