package repository

import (
	"context"

	"training-erp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RateRepository interface {
	Create(ctx context.Context, rate *model.Rate) error
	Update(ctx context.Context, rate *model.Rate) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Rate, error)
	FindByName(ctx context.Context, category, name string) (*model.Rate, error)
	ListByCategory(ctx context.Context, category string) ([]model.Rate, error)
	ValuesByCategory(ctx context.Context, category string) (map[string]decimal.Decimal, error)
}

type rateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) RateRepository {
	return &rateRepository{db: db}
}

func (r *rateRepository) Create(ctx context.Context, rate *model.Rate) error {
	return GetDB(ctx, r.db).Create(rate).Error
}

func (r *rateRepository) Update(ctx context.Context, rate *model.Rate) error {
	return GetDB(ctx, r.db).Save(rate).Error
}

func (r *rateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Rate{}).Error
}

func (r *rateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Rate, error) {
	var rate model.Rate
	if err := GetDB(ctx, r.db).First(&rate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *rateRepository) FindByName(ctx context.Context, category, name string) (*model.Rate, error) {
	var rate model.Rate
	if err := GetDB(ctx, r.db).
		Where("category = ? AND rate_name = ?", category, name).
		First(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *rateRepository) ListByCategory(ctx context.Context, category string) ([]model.Rate, error) {
	var rates []model.Rate
	if err := GetDB(ctx, r.db).
		Where("category = ?", category).
		Order("rate_name asc").
		Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

// ValuesByCategory flattens a category into name → percentage, the shape
// the cost calculator consumes.
func (r *rateRepository) ValuesByCategory(ctx context.Context, category string) (map[string]decimal.Decimal, error) {
	rates, err := r.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	values := make(map[string]decimal.Decimal, len(rates))
	for _, rate := range rates {
		values[rate.RateName] = rate.RateValue
	}
	return values, nil
}
