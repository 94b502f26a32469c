package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateRate = "CREATE_RATE"
	ActionUpdateRate = "UPDATE_RATE"
	ActionDeleteRate = "DELETE_RATE"

	ActionCreateCostSummary  = "CREATE_COST_SUMMARY"
	ActionRefreshCostSummary = "REFRESH_COST_SUMMARY"
	ActionDeleteCostSummary  = "DELETE_COST_SUMMARY"

	ActionAllocateSpecialCase  = "ALLOCATE_SPECIAL_CASE_PAYMENTS"
	ActionPaySpecialCase       = "PAY_SPECIAL_CASE_PAYMENT"
	ActionDeleteSpecialCases   = "DELETE_SPECIAL_CASE_PAYMENTS"
	ActionResetApprovalFields  = "RESET_APPROVAL_FIELDS"
	ActionRecordApproval       = "RECORD_APPROVAL_DECISION"
	ActionUpdateCostComponents = "UPDATE_COST_COMPONENTS"
	ActionAssignStudentCode    = "ASSIGN_STUDENT_CODE"
	ActionEnrollStudent        = "ENROLL_STUDENT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:char(36);index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:json" json:"details"`                       // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
