package repository

import (
	"context"

	"training-erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CostComponentRepository reads the authoritative (latest) row of each of
// the three cost component tables and appends new rows. Only the delivery
// total is ever updated in place, by special-case payment allocation.
type CostComponentRepository interface {
	CreateDevelopment(ctx context.Context, row *model.DevelopmentCost) error
	CreateDelivery(ctx context.Context, row *model.DeliveryCost) error
	CreateOverhead(ctx context.Context, row *model.OverheadCost) error
	LatestDevelopment(ctx context.Context, paymentID uuid.UUID) (*model.DevelopmentCost, error)
	LatestDelivery(ctx context.Context, paymentID uuid.UUID) (*model.DeliveryCost, error)
	LatestOverhead(ctx context.Context, paymentID uuid.UUID) (*model.OverheadCost, error)
	UpdateDelivery(ctx context.Context, row *model.DeliveryCost) error
}

type costComponentRepository struct {
	db *gorm.DB
}

func NewCostComponentRepository(db *gorm.DB) CostComponentRepository {
	return &costComponentRepository{db: db}
}

func (r *costComponentRepository) CreateDevelopment(ctx context.Context, row *model.DevelopmentCost) error {
	return GetDB(ctx, r.db).Create(row).Error
}

func (r *costComponentRepository) CreateDelivery(ctx context.Context, row *model.DeliveryCost) error {
	return GetDB(ctx, r.db).Create(row).Error
}

func (r *costComponentRepository) CreateOverhead(ctx context.Context, row *model.OverheadCost) error {
	return GetDB(ctx, r.db).Create(row).Error
}

func (r *costComponentRepository) LatestDevelopment(ctx context.Context, paymentID uuid.UUID) (*model.DevelopmentCost, error) {
	var row model.DevelopmentCost
	if err := GetDB(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *costComponentRepository) LatestDelivery(ctx context.Context, paymentID uuid.UUID) (*model.DeliveryCost, error) {
	var row model.DeliveryCost
	if err := GetDB(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *costComponentRepository) LatestOverhead(ctx context.Context, paymentID uuid.UUID) (*model.OverheadCost, error) {
	var row model.OverheadCost
	if err := GetDB(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *costComponentRepository) UpdateDelivery(ctx context.Context, row *model.DeliveryCost) error {
	return GetDB(ctx, r.db).Save(row).Error
}
