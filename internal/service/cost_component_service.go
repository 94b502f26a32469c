package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"training-erp/internal/model"
	"training-erp/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type UpdateCostComponentsRequest struct {
	DevelopmentCost *string `json:"development_cost"` // decimal strings; nil leaves the component untouched
	DeliveryCost    *string `json:"delivery_cost"`
	OverheadCost    *string `json:"overhead_cost"`
}

type CostComponentValue struct {
	TotalCost string `json:"total_cost"`
	UpdatedAt string `json:"updated_at"`
}

type CostComponentsResponse struct {
	PaymentID       string              `json:"payment_id"`
	DevelopmentCost *CostComponentValue `json:"development_cost"`
	DeliveryCost    *CostComponentValue `json:"delivery_cost"`
	OverheadCost    *CostComponentValue `json:"overhead_cost"`
}

// --- Interface ---

// CostComponentService manages the three cost component tables behind a
// payment record. Updates append new rows; the component tables keep the
// full history and the calculation always reads the newest row. Changing a
// component does not touch an existing summary — the summary stays stale
// until it is explicitly refreshed or recreated.
type CostComponentService interface {
	Get(ctx context.Context, actor Actor, paymentID string) (CostComponentsResponse, error)
	Update(ctx context.Context, actor Actor, paymentID string, req UpdateCostComponentsRequest) (CostComponentsResponse, error)
}

type costComponentService struct {
	costRepo    repository.CostComponentRepository
	paymentRepo repository.PaymentRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewCostComponentService(
	costRepo repository.CostComponentRepository,
	paymentRepo repository.PaymentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CostComponentService {
	return &costComponentService{
		costRepo:    costRepo,
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *costComponentService) Get(ctx context.Context, actor Actor, paymentID string) (CostComponentsResponse, error) {
	id, err := s.loadPayment(ctx, actor, paymentID)
	if err != nil {
		return CostComponentsResponse{}, err
	}

	return s.currentComponents(ctx, id)
}

func (s *costComponentService) Update(ctx context.Context, actor Actor, paymentID string, req UpdateCostComponentsRequest) (CostComponentsResponse, error) {
	id, err := s.loadPayment(ctx, actor, paymentID)
	if err != nil {
		return CostComponentsResponse{}, err
	}

	dev, err := parseOptionalCost("development_cost", req.DevelopmentCost)
	if err != nil {
		return CostComponentsResponse{}, err
	}
	delivery, err := parseOptionalCost("delivery_cost", req.DeliveryCost)
	if err != nil {
		return CostComponentsResponse{}, err
	}
	overhead, err := parseOptionalCost("overhead_cost", req.OverheadCost)
	if err != nil {
		return CostComponentsResponse{}, err
	}
	if dev == nil && delivery == nil && overhead == nil {
		return CostComponentsResponse{}, fmt.Errorf("at least one cost component must be given")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if dev != nil {
			row := &model.DevelopmentCost{PaymentID: id, TotalCost: *dev}
			if cErr := s.costRepo.CreateDevelopment(txCtx, row); cErr != nil {
				return fmt.Errorf("failed to record development cost: %w", cErr)
			}
		}
		if delivery != nil {
			row := &model.DeliveryCost{PaymentID: id, TotalCost: *delivery}
			if cErr := s.costRepo.CreateDelivery(txCtx, row); cErr != nil {
				return fmt.Errorf("failed to record delivery cost: %w", cErr)
			}
		}
		if overhead != nil {
			row := &model.OverheadCost{PaymentID: id, TotalCost: *overhead}
			if cErr := s.costRepo.CreateOverhead(txCtx, row); cErr != nil {
				return fmt.Errorf("failed to record overhead cost: %w", cErr)
			}
		}
		return nil
	})
	if err != nil {
		return CostComponentsResponse{}, err
	}

	writeAuditLog(ctx, s.auditRepo, actor, model.ActionUpdateCostComponents, id.String(), "", req)

	return s.currentComponents(ctx, id)
}

// --- Helpers ---

func (s *costComponentService) loadPayment(ctx context.Context, actor Actor, paymentID string) (uuid.UUID, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid payment id: %w", err)
	}

	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fmt.Errorf("payment record not found: %w", ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("failed to fetch payment record: %w", err)
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *costComponentService) currentComponents(ctx context.Context, id uuid.UUID) (CostComponentsResponse, error) {
	resp := CostComponentsResponse{PaymentID: id.String()}

	dev, err := s.costRepo.LatestDevelopment(ctx, id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return resp, fmt.Errorf("failed to fetch development cost: %w", err)
	}
	if dev != nil {
		resp.DevelopmentCost = &CostComponentValue{
			TotalCost: dev.TotalCost.StringFixed(4),
			UpdatedAt: dev.CreatedAt.Format(time.RFC3339),
		}
	}

	delivery, err := s.costRepo.LatestDelivery(ctx, id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return resp, fmt.Errorf("failed to fetch delivery cost: %w", err)
	}
	if delivery != nil {
		resp.DeliveryCost = &CostComponentValue{
			TotalCost: delivery.TotalCost.StringFixed(4),
			UpdatedAt: delivery.CreatedAt.Format(time.RFC3339),
		}
	}

	overhead, err := s.costRepo.LatestOverhead(ctx, id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return resp, fmt.Errorf("failed to fetch overhead cost: %w", err)
	}
	if overhead != nil {
		resp.OverheadCost = &CostComponentValue{
			TotalCost: overhead.TotalCost.StringFixed(4),
			UpdatedAt: overhead.CreatedAt.Format(time.RFC3339),
		}
	}

	return resp, nil
}
