package repository

import (
	"context"

	"training-erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.PaymentMainDetail) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentMainDetail, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.PaymentMainDetail, error)
	List(ctx context.Context, page, limit int) ([]model.PaymentMainDetail, int64, error)
	ResetApprovals(ctx context.Context, paymentID uuid.UUID, actingUserID *uuid.UUID) (int64, error)
	UpdateApproval(ctx context.Context, paymentID uuid.UUID, updates map[string]interface{}) (int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.PaymentMainDetail) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentMainDetail, error) {
	var payment model.PaymentMainDetail
	if err := GetDB(ctx, r.db).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.PaymentMainDetail, error) {
	var payment model.PaymentMainDetail
	if err := GetDB(ctx, r.db).Preload("Course").Preload("Batch").First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) List(ctx context.Context, page, limit int) ([]model.PaymentMainDetail, int64, error) {
	var payments []model.PaymentMainDetail
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.PaymentMainDetail{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// ResetApprovals flips every approval workflow field back to Pending and
// clears the free-text detail fields in a single UPDATE. Returns the number
// of rows touched so callers can distinguish a missing payment.
func (r *paymentRepository) ResetApprovals(ctx context.Context, paymentID uuid.UUID, actingUserID *uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.PaymentMainDetail{}).
		Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"ctm_approval":        model.ApprovalPending,
			"dctm01_approval":     model.ApprovalPending,
			"dctm02_approval":     model.ApprovalPending,
			"accountant_approval": model.ApprovalPending,
			"sectional_approval":  model.ApprovalPending,
			"ctm_details":         nil,
			"dctm01_details":      nil,
			"dctm02_details":      nil,
			"accountant_details":  nil,
			"sectional_details":   nil,
			"section_type":        nil,
			"updated_by_id":       actingUserID,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// UpdateApproval applies a single reviewer's decision. The service layer
// owns the column names so one UPDATE covers any approval stage.
func (r *paymentRepository) UpdateApproval(ctx context.Context, paymentID uuid.UUID, updates map[string]interface{}) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.PaymentMainDetail{}).
		Where("id = ?", paymentID).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
