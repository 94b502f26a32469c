package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Approval workflow states stored on payment records
const (
	ApprovalPending  = "Pending"
	ApprovalApproved = "Approved"
	ApprovalRejected = "Rejected"
)

// PaymentMainDetail is the root record of a course-costing request. Cost
// components, the derived cost/revenue summaries, and special-case payments
// all hang off it. The seven approval workflow fields must never survive a
// change to the underlying cost data (see repository.PaymentRepository
// ResetApprovals).
type PaymentMainDetail struct {
	ID               uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	UserID           uuid.UUID  `gorm:"type:char(36);not null;index" json:"user_id"` // Owning ERP user
	User             *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CourseID         uuid.UUID  `gorm:"type:char(36);not null;index" json:"course_id"`
	Course           *Course    `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	BatchID          *uuid.UUID `gorm:"type:char(36);index" json:"batch_id"`
	Batch            *Batch     `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
	ParticipantCount int        `gorm:"not null" json:"participant_count"`

	CTMApproval        string `gorm:"type:varchar(20);not null;default:'Pending'" json:"ctm_approval"`
	DCTM01Approval     string `gorm:"type:varchar(20);not null;default:'Pending'" json:"dctm01_approval"`
	DCTM02Approval     string `gorm:"type:varchar(20);not null;default:'Pending'" json:"dctm02_approval"`
	AccountantApproval string `gorm:"type:varchar(20);not null;default:'Pending'" json:"accountant_approval"`
	SectionalApproval  string `gorm:"type:varchar(20);not null;default:'Pending'" json:"sectional_approval"`

	CTMDetails        *string `gorm:"type:text" json:"ctm_details"`
	DCTM01Details     *string `gorm:"type:text" json:"dctm01_details"`
	DCTM02Details     *string `gorm:"type:text" json:"dctm02_details"`
	AccountantDetails *string `gorm:"type:text" json:"accountant_details"`
	SectionalDetails  *string `gorm:"type:text" json:"sectional_details"`
	SectionType       *string `gorm:"type:varchar(100)" json:"section_type"`

	UpdatedByID *uuid.UUID `gorm:"type:char(36)" json:"updated_by_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (p *PaymentMainDetail) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (PaymentMainDetail) TableName() string {
	return "payment_main_details"
}
