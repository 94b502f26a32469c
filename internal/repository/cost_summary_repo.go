package repository

import (
	"context"

	"training-erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CostSummaryRepository interface {
	Create(ctx context.Context, summary *model.CostSummary) error
	Update(ctx context.Context, summary *model.CostSummary) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CostSummary, error)
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*model.CostSummary, error)
	DeleteByPaymentID(ctx context.Context, paymentID uuid.UUID) error
}

type costSummaryRepository struct {
	db *gorm.DB
}

func NewCostSummaryRepository(db *gorm.DB) CostSummaryRepository {
	return &costSummaryRepository{db: db}
}

func (r *costSummaryRepository) Create(ctx context.Context, summary *model.CostSummary) error {
	return GetDB(ctx, r.db).Create(summary).Error
}

func (r *costSummaryRepository) Update(ctx context.Context, summary *model.CostSummary) error {
	return GetDB(ctx, r.db).Save(summary).Error
}

func (r *costSummaryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CostSummary, error) {
	var summary model.CostSummary
	if err := GetDB(ctx, r.db).First(&summary, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *costSummaryRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*model.CostSummary, error) {
	var summary model.CostSummary
	if err := GetDB(ctx, r.db).First(&summary, "payment_id = ?", paymentID).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *costSummaryRepository) DeleteByPaymentID(ctx context.Context, paymentID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("payment_id = ?", paymentID).Delete(&model.CostSummary{}).Error
}
