package repository

import (
	"context"
	"errors"

	"training-erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RevenueSummaryRepository interface {
	Upsert(ctx context.Context, summary *model.RevenueSummary) error
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*model.RevenueSummary, error)
	DeleteByPaymentID(ctx context.Context, paymentID uuid.UUID) error
}

type revenueSummaryRepository struct {
	db *gorm.DB
}

func NewRevenueSummaryRepository(db *gorm.DB) RevenueSummaryRepository {
	return &revenueSummaryRepository{db: db}
}

// Upsert overwrites the revenue summary of a payment, creating it when the
// cost summary is first derived.
func (r *revenueSummaryRepository) Upsert(ctx context.Context, summary *model.RevenueSummary) error {
	db := GetDB(ctx, r.db)

	var existing model.RevenueSummary
	err := db.First(&existing, "payment_id = ?", summary.PaymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(summary).Error
	}
	if err != nil {
		return err
	}

	existing.CourseID = summary.CourseID
	existing.BatchID = summary.BatchID
	existing.ParticipantCount = summary.ParticipantCount
	existing.TotalRevenue = summary.TotalRevenue
	if err := db.Save(&existing).Error; err != nil {
		return err
	}
	*summary = existing
	return nil
}

func (r *revenueSummaryRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*model.RevenueSummary, error) {
	var summary model.RevenueSummary
	if err := GetDB(ctx, r.db).First(&summary, "payment_id = ?", paymentID).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *revenueSummaryRepository) DeleteByPaymentID(ctx context.Context, paymentID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("payment_id = ?", paymentID).Delete(&model.RevenueSummary{}).Error
}
