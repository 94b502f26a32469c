package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SpecialCasePayment is an additional payable line item outside the
// standard A+B+C cost structure, expressed either as a fixed amount or as a
// percentage of the rounded course total. AmountPaid only ever grows and is
// capped at TotalPayable.
type SpecialCasePayment struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_sc_payment_title" json:"payment_id"`
	Title     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_sc_payment_title;column:sc_title" json:"sc_title"`

	Description    string           `gorm:"type:text" json:"description"`
	PercentPayment bool             `gorm:"not null;column:percent_payment_or_not" json:"percent_payment_or_not"`
	Percentage     *decimal.Decimal `gorm:"type:decimal(10,4)" json:"percentage"`
	TotalPayable   decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"total_payable"`
	AmountPaid     decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"amount_paid"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *SpecialCasePayment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
