package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// The three cost component tables are append-only: the most recently
// created row per payment id is the authoritative one, older rows are
// history. Special-case payment allocation mutates the latest delivery
// row's total in place.

// DevelopmentCost holds the course development work sub-total (component A).
type DevelopmentCost struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentID uuid.UUID       `gorm:"type:char(36);not null;index" json:"payment_id"`
	TotalCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_cost"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

func (c *DevelopmentCost) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (DevelopmentCost) TableName() string { return "course_development_costs" }

// DeliveryCost holds the course delivery sub-total (component B).
type DeliveryCost struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentID uuid.UUID       `gorm:"type:char(36);not null;index" json:"payment_id"`
	TotalCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_cost"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

func (c *DeliveryCost) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (DeliveryCost) TableName() string { return "course_delivery_costs" }

// OverheadCost holds the course overheads sub-total (component C).
type OverheadCost struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentID uuid.UUID       `gorm:"type:char(36);not null;index" json:"payment_id"`
	TotalCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_cost"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

func (c *OverheadCost) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (OverheadCost) TableName() string { return "course_overhead_costs" }
