package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"training-erp/internal/model"
	"training-erp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRateRequest struct {
	Category  string `json:"category" binding:"required"`
	RateName  string `json:"rate_name" binding:"required"`
	RateValue string `json:"rate_value" binding:"required"` // Percentage string, e.g. "15" for 15%
}

type UpdateRateRequest struct {
	RateValue string `json:"rate_value" binding:"required"`
}

type RateResponse struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	RateName  string `json:"rate_name"`
	RateValue string `json:"rate_value"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// --- Interface ---

type RateService interface {
	List(ctx context.Context, category string) ([]RateResponse, error)
	Create(ctx context.Context, actor Actor, req CreateRateRequest) (RateResponse, error)
	Update(ctx context.Context, actor Actor, id string, req UpdateRateRequest) (RateResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type rateService struct {
	rateRepo  repository.RateRepository
	auditRepo repository.AuditRepository
}

func NewRateService(rateRepo repository.RateRepository, auditRepo repository.AuditRepository) RateService {
	return &rateService{rateRepo: rateRepo, auditRepo: auditRepo}
}

// --- Implementation ---

func (s *rateService) List(ctx context.Context, category string) ([]RateResponse, error) {
	if category == "" {
		category = model.RateCategoryCostSummary
	}

	rates, err := s.rateRepo.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}

	res := make([]RateResponse, 0, len(rates))
	for _, r := range rates {
		res = append(res, toRateResponse(r))
	}
	return res, nil
}

func (s *rateService) Create(ctx context.Context, actor Actor, req CreateRateRequest) (RateResponse, error) {
	value, err := parseRateValue(req.RateValue)
	if err != nil {
		return RateResponse{}, err
	}

	if _, err := s.rateRepo.FindByName(ctx, req.Category, req.RateName); err == nil {
		return RateResponse{}, fmt.Errorf("rate '%s' already exists in category '%s'", req.RateName, req.Category)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return RateResponse{}, fmt.Errorf("failed to check existing rate: %w", err)
	}

	rate := model.Rate{
		Category:  req.Category,
		RateName:  req.RateName,
		RateValue: value,
	}
	if err := s.rateRepo.Create(ctx, &rate); err != nil {
		return RateResponse{}, fmt.Errorf("failed to create rate: %w", err)
	}

	writeAuditLog(ctx, s.auditRepo, actor, model.ActionCreateRate, rate.ID.String(), rate.RateName+" "+value.StringFixed(4), req)

	return toRateResponse(rate), nil
}

func (s *rateService) Update(ctx context.Context, actor Actor, id string, req UpdateRateRequest) (RateResponse, error) {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return RateResponse{}, fmt.Errorf("invalid rate id: %w", err)
	}

	rate, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RateResponse{}, fmt.Errorf("rate not found: %w", ErrNotFound)
		}
		return RateResponse{}, fmt.Errorf("failed to fetch rate: %w", err)
	}

	value, err := parseRateValue(req.RateValue)
	if err != nil {
		return RateResponse{}, err
	}

	rate.RateValue = value
	if err := s.rateRepo.Update(ctx, rate); err != nil {
		return RateResponse{}, fmt.Errorf("failed to update rate: %w", err)
	}

	writeAuditLog(ctx, s.auditRepo, actor, model.ActionUpdateRate, rate.ID.String(), rate.RateName+" "+value.StringFixed(4), req)

	return toRateResponse(*rate), nil
}

func (s *rateService) Delete(ctx context.Context, actor Actor, id string) error {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid rate id: %w", err)
	}

	rate, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("rate not found: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to fetch rate: %w", err)
	}

	if err := s.rateRepo.Delete(ctx, rateID); err != nil {
		return fmt.Errorf("failed to delete rate: %w", err)
	}

	writeAuditLog(ctx, s.auditRepo, actor, model.ActionDeleteRate, rate.ID.String(), rate.RateName, map[string]string{"deleted_id": id})

	return nil
}

// --- Helpers ---

func parseRateValue(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate value: %w", err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("rate value must not be negative")
	}
	return value, nil
}

func toRateResponse(r model.Rate) RateResponse {
	return RateResponse{
		ID:        r.ID.String(),
		Category:  r.Category,
		RateName:  r.RateName,
		RateValue: r.RateValue.StringFixed(4),
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
}
