package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CostSummary is the derived output of the cost-summary calculation. It is
// deleted and fully reinserted on creation and updated in place only by the
// refresh path, which also cascades into RevenueSummary.
type CostSummary struct {
	ID        uuid.UUID          `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentID uuid.UUID          `gorm:"type:char(36);not null;uniqueIndex" json:"payment_id"`
	Payment   *PaymentMainDetail `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`

	TotalCostExpense   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_cost_expense"` // A + B + C
	ProvisionInflation decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"provision_inflation"`
	NBT                decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"nbt"`
	ProfitMargin       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"profit_margin"`
	SubtotalBeforeVAT  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal_before_vat"`
	VAT                decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"vat"`
	TotalCourseCost    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_course_cost"`
	CourseFeePerHead   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"course_fee_per_head"`
	RoundedCFPH        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"rounded_cfph"` // Fee per head rounded up to nearest 50
	RoundedCT          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"rounded_ct"`   // RoundedCFPH * participants

	CheckBy   *string   `gorm:"type:varchar(255)" json:"check_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *CostSummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// RevenueSummary mirrors the rounded revenue target of a payment record.
// It is overwritten whenever the cost summary refreshes.
type RevenueSummary struct {
	ID               uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentID        uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex" json:"payment_id"`
	CourseID         uuid.UUID       `gorm:"type:char(36);not null;index" json:"course_id"`
	BatchID          *uuid.UUID      `gorm:"type:char(36);index" json:"batch_id"`
	ParticipantCount int             `gorm:"not null" json:"participant_count"`
	TotalRevenue     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_revenue"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (s *RevenueSummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
