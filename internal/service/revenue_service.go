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

type RevenueSummaryResponse struct {
	ID               string  `json:"id"`
	PaymentID        string  `json:"payment_id"`
	CourseID         string  `json:"course_id"`
	BatchID          *string `json:"batch_id"`
	ParticipantCount int     `json:"participant_count"`
	TotalRevenue     string  `json:"total_revenue"`
	UpdatedAt        string  `json:"updated_at"`
}

// --- Interface ---

// RevenueService exposes the revenue side of a summarized payment record.
// The rows themselves are written only by the cost summary service.
type RevenueService interface {
	GetByPayment(ctx context.Context, actor Actor, paymentID string) (RevenueSummaryResponse, error)
}

type revenueService struct {
	revenueRepo repository.RevenueSummaryRepository
	paymentRepo repository.PaymentRepository
}

func NewRevenueService(
	revenueRepo repository.RevenueSummaryRepository,
	paymentRepo repository.PaymentRepository,
) RevenueService {
	return &revenueService{
		revenueRepo: revenueRepo,
		paymentRepo: paymentRepo,
	}
}

// --- Implementation ---

func (s *revenueService) GetByPayment(ctx context.Context, actor Actor, paymentID string) (RevenueSummaryResponse, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return RevenueSummaryResponse{}, fmt.Errorf("invalid payment id: %w", err)
	}

	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RevenueSummaryResponse{}, fmt.Errorf("payment record not found: %w", ErrNotFound)
		}
		return RevenueSummaryResponse{}, fmt.Errorf("failed to fetch payment record: %w", err)
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return RevenueSummaryResponse{}, err
	}

	summary, err := s.revenueRepo.FindByPaymentID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RevenueSummaryResponse{}, fmt.Errorf("no revenue summary for this payment record: %w", ErrNotFound)
		}
		return RevenueSummaryResponse{}, fmt.Errorf("failed to fetch revenue summary: %w", err)
	}

	return toRevenueSummaryResponse(summary), nil
}

// --- Helpers ---

func toRevenueSummaryResponse(r *model.RevenueSummary) RevenueSummaryResponse {
	resp := RevenueSummaryResponse{
		ID:               r.ID.String(),
		PaymentID:        r.PaymentID.String(),
		CourseID:         r.CourseID.String(),
		ParticipantCount: r.ParticipantCount,
		TotalRevenue:     r.TotalRevenue.StringFixed(2),
		UpdatedAt:        r.UpdatedAt.Format(time.RFC3339),
	}
	if r.BatchID != nil {
		v := r.BatchID.String()
		resp.BatchID = &v
	}
	return resp
}
