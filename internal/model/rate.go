package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rate category the cost-summary calculation reads from. A rate change
// takes effect on all future calculations immediately; there is no
// versioning. The four required rate names live in the costing package.
const RateCategoryCostSummary = "Cost Summary Rates"

// Rate is a flat key/value percentage entry scoped under a category label.
type Rate struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	Category  string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_rate_category_name" json:"category"`
	RateName  string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_rate_category_name" json:"rate_name"`
	RateValue decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate_value"` // e.g. 15 = 15%
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r *Rate) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
