package repository

import (
	"context"

	"training-erp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SpecialCaseRepository interface {
	Create(ctx context.Context, payment *model.SpecialCasePayment) error
	Update(ctx context.Context, payment *model.SpecialCasePayment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SpecialCasePayment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SpecialCasePayment, error)
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]model.SpecialCasePayment, error)
	DeleteByPaymentAndTitle(ctx context.Context, paymentID uuid.UUID, title string) error
	DeleteAllByPayment(ctx context.Context, paymentID uuid.UUID) error
	SumTotalPayable(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error)
}

type specialCaseRepository struct {
	db *gorm.DB
}

func NewSpecialCaseRepository(db *gorm.DB) SpecialCaseRepository {
	return &specialCaseRepository{db: db}
}

func (r *specialCaseRepository) Create(ctx context.Context, payment *model.SpecialCasePayment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *specialCaseRepository) Update(ctx context.Context, payment *model.SpecialCasePayment) error {
	return GetDB(ctx, r.db).Save(payment).Error
}

func (r *specialCaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SpecialCasePayment, error) {
	var payment model.SpecialCasePayment
	if err := GetDB(ctx, r.db).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByIDForUpdate locks the row so concurrent amount_paid increments
// serialize instead of both reading the same balance.
func (r *specialCaseRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SpecialCasePayment, error) {
	var payment model.SpecialCasePayment
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *specialCaseRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]model.SpecialCasePayment, error) {
	var payments []model.SpecialCasePayment
	if err := GetDB(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Order("created_at asc").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *specialCaseRepository) DeleteByPaymentAndTitle(ctx context.Context, paymentID uuid.UUID, title string) error {
	return GetDB(ctx, r.db).
		Where("payment_id = ? AND sc_title = ?", paymentID, title).
		Delete(&model.SpecialCasePayment{}).Error
}

func (r *specialCaseRepository) DeleteAllByPayment(ctx context.Context, paymentID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Delete(&model.SpecialCasePayment{}).Error
}

func (r *specialCaseRepository) SumTotalPayable(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := GetDB(ctx, r.db).
		Model(&model.SpecialCasePayment{}).
		Select("COALESCE(SUM(total_payable), 0)").
		Where("payment_id = ?", paymentID).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
