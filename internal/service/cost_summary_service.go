package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"training-erp/internal/costing"
	"training-erp/internal/model"
	"training-erp/internal/repository"
	ws "training-erp/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCostSummaryRequest struct {
	PaymentMainDetailsID string  `json:"payment_main_details_id" binding:"required"`
	CheckBy              *string `json:"check_by"`
}

type CostSummaryResponse struct {
	ID                 string  `json:"id"`
	PaymentID          string  `json:"payment_id"`
	TotalCostExpense   string  `json:"total_cost_expense"`
	ProvisionInflation string  `json:"provision_inflation"`
	NBT                string  `json:"nbt"`
	ProfitMargin       string  `json:"profit_margin"`
	SubtotalBeforeVAT  string  `json:"subtotal_before_vat"`
	VAT                string  `json:"vat"`
	TotalCourseCost    string  `json:"total_course_cost"`
	CourseFeePerHead   string  `json:"course_fee_per_head"`
	RoundedCFPH        string  `json:"rounded_cfph"`
	RoundedCT          string  `json:"rounded_ct"`
	CheckBy            *string `json:"check_by"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type DeleteCostSummaryResponse struct {
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"` // set when the approval reset failed after the delete committed
}

// --- Interface ---

type CostSummaryService interface {
	Create(ctx context.Context, actor Actor, req CreateCostSummaryRequest) (CostSummaryResponse, error)
	Get(ctx context.Context, actor Actor, id string) (CostSummaryResponse, error)
	Refresh(ctx context.Context, actor Actor, id string, req CreateCostSummaryRequest) (CostSummaryResponse, error)
	Delete(ctx context.Context, actor Actor, id string) (DeleteCostSummaryResponse, error)
}

type costSummaryService struct {
	paymentRepo repository.PaymentRepository
	costRepo    repository.CostComponentRepository
	rateRepo    repository.RateRepository
	summaryRepo repository.CostSummaryRepository
	revenueRepo repository.RevenueSummaryRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewCostSummaryService(
	paymentRepo repository.PaymentRepository,
	costRepo repository.CostComponentRepository,
	rateRepo repository.RateRepository,
	summaryRepo repository.CostSummaryRepository,
	revenueRepo repository.RevenueSummaryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) CostSummaryService {
	return &costSummaryService{
		paymentRepo: paymentRepo,
		costRepo:    costRepo,
		rateRepo:    rateRepo,
		summaryRepo: summaryRepo,
		revenueRepo: revenueRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Implementation ---

func (s *costSummaryService) Create(ctx context.Context, actor Actor, req CreateCostSummaryRequest) (CostSummaryResponse, error) {
	paymentID, err := uuid.Parse(req.PaymentMainDetailsID)
	if err != nil {
		return CostSummaryResponse{}, fmt.Errorf("invalid payment_main_details_id: %w", err)
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CostSummaryResponse{}, fmt.Errorf("payment record not found: %w", ErrNotFound)
		}
		return CostSummaryResponse{}, fmt.Errorf("failed to fetch payment record: %w", err)
	}

	if err := authorizePaymentAccess(payment, actor); err != nil {
		return CostSummaryResponse{}, err
	}

	result, err := computeForPayment(ctx, s.costRepo, s.rateRepo, payment)
	if err != nil {
		return CostSummaryResponse{}, err
	}

	actorID := actorUUIDOrNil(actor)
	summary := summaryFromResult(paymentID, result, req.CheckBy)
	revenue := revenueFromResult(payment, result)

	// Summary and revenue rows are replaced as a unit, and stale approvals
	// must not survive the recalculation; one transaction covers all three.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.summaryRepo.DeleteByPaymentID(txCtx, paymentID); delErr != nil {
			return fmt.Errorf("failed to clear previous cost summary: %w", delErr)
		}
		if createErr := s.summaryRepo.Create(txCtx, summary); createErr != nil {
			return fmt.Errorf("failed to create cost summary: %w", createErr)
		}
		if upErr := s.revenueRepo.Upsert(txCtx, revenue); upErr != nil {
			return fmt.Errorf("failed to write revenue summary: %w", upErr)
		}
		if _, resetErr := s.paymentRepo.ResetApprovals(txCtx, paymentID, actorID); resetErr != nil {
			return fmt.Errorf("failed to reset approval fields: %w", resetErr)
		}
		return nil
	})
	if err != nil {
		return CostSummaryResponse{}, err
	}

	s.writeAudit(ctx, actor, model.ActionCreateCostSummary, summary.ID.String(), paymentID.String(), req)
	s.notify("cost_summary_created", paymentID)

	return toCostSummaryResponse(*summary), nil
}

func (s *costSummaryService) Get(ctx context.Context, actor Actor, id string) (CostSummaryResponse, error) {
	summaryID, err := uuid.Parse(id)
	if err != nil {
		return CostSummaryResponse{}, fmt.Errorf("invalid cost summary id: %w", err)
	}

	summary, err := s.summaryRepo.FindByID(ctx, summaryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CostSummaryResponse{}, fmt.Errorf("cost summary not found: %w", ErrNotFound)
		}
		return CostSummaryResponse{}, fmt.Errorf("failed to fetch cost summary: %w", err)
	}

	payment, err := s.paymentRepo.FindByID(ctx, summary.PaymentID)
	if err != nil {
		return CostSummaryResponse{}, fmt.Errorf("failed to fetch payment record: %w", err)
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return CostSummaryResponse{}, err
	}

	return toCostSummaryResponse(*summary), nil
}

// Refresh recomputes the summary in place from the current cost components
// and rates, and cascades the rounded total into the revenue summary.
// Approvals are left untouched: a refresh with unchanged inputs is
// idempotent.
func (s *costSummaryService) Refresh(ctx context.Context, actor Actor, id string, req CreateCostSummaryRequest) (CostSummaryResponse, error) {
	summaryID, err := uuid.Parse(id)
	if err != nil {
		return CostSummaryResponse{}, fmt.Errorf("invalid cost summary id: %w", err)
	}

	summary, err := s.summaryRepo.FindByID(ctx, summaryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CostSummaryResponse{}, fmt.Errorf("cost summary not found: %w", ErrNotFound)
		}
		return CostSummaryResponse{}, fmt.Errorf("failed to fetch cost summary: %w", err)
	}

	payment, err := s.paymentRepo.FindByID(ctx, summary.PaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CostSummaryResponse{}, fmt.Errorf("payment record not found: %w", ErrNotFound)
		}
		return CostSummaryResponse{}, fmt.Errorf("failed to fetch payment record: %w", err)
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return CostSummaryResponse{}, err
	}

	result, err := computeForPayment(ctx, s.costRepo, s.rateRepo, payment)
	if err != nil {
		return CostSummaryResponse{}, err
	}

	applyResult(summary, result)
	if req.CheckBy != nil {
		summary.CheckBy = req.CheckBy
	}
	revenue := revenueFromResult(payment, result)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if upErr := s.summaryRepo.Update(txCtx, summary); upErr != nil {
			return fmt.Errorf("failed to update cost summary: %w", upErr)
		}
		if upErr := s.revenueRepo.Upsert(txCtx, revenue); upErr != nil {
			return fmt.Errorf("failed to update revenue summary: %w", upErr)
		}
		return nil
	})
	if err != nil {
		return CostSummaryResponse{}, err
	}

	s.writeAudit(ctx, actor, model.ActionRefreshCostSummary, summary.ID.String(), summary.PaymentID.String(), req)
	s.notify("cost_summary_refreshed", summary.PaymentID)

	return toCostSummaryResponse(*summary), nil
}

func (s *costSummaryService) Delete(ctx context.Context, actor Actor, id string) (DeleteCostSummaryResponse, error) {
	summaryID, err := uuid.Parse(id)
	if err != nil {
		return DeleteCostSummaryResponse{}, fmt.Errorf("invalid cost summary id: %w", err)
	}

	summary, err := s.summaryRepo.FindByID(ctx, summaryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeleteCostSummaryResponse{}, fmt.Errorf("cost summary not found: %w", ErrNotFound)
		}
		return DeleteCostSummaryResponse{}, fmt.Errorf("failed to fetch cost summary: %w", err)
	}

	payment, err := s.paymentRepo.FindByID(ctx, summary.PaymentID)
	if err != nil {
		return DeleteCostSummaryResponse{}, fmt.Errorf("failed to fetch payment record: %w", err)
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return DeleteCostSummaryResponse{}, err
	}

	paymentID := summary.PaymentID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.summaryRepo.DeleteByPaymentID(txCtx, paymentID); delErr != nil {
			return fmt.Errorf("failed to delete cost summary: %w", delErr)
		}
		if delErr := s.revenueRepo.DeleteByPaymentID(txCtx, paymentID); delErr != nil {
			return fmt.Errorf("failed to delete revenue summary: %w", delErr)
		}
		return nil
	})
	if err != nil {
		return DeleteCostSummaryResponse{}, err
	}

	resp := DeleteCostSummaryResponse{Message: "Cost summary deleted"}

	// The delete has committed; a failed reset degrades the response
	// instead of rolling back the primary change.
	if _, resetErr := s.paymentRepo.ResetApprovals(ctx, paymentID, actorUUIDOrNil(actor)); resetErr != nil {
		resp.Warning = "approval fields could not be reset: " + resetErr.Error()
	}

	s.writeAudit(ctx, actor, model.ActionDeleteCostSummary, summaryID.String(), paymentID.String(), nil)
	s.notify("cost_summary_deleted", paymentID)

	return resp, nil
}

// --- Helpers ---

// computeForPayment loads the authoritative cost components and the rate
// table and runs the calculation. Absent component rows default to zero.
func computeForPayment(
	ctx context.Context,
	costRepo repository.CostComponentRepository,
	rateRepo repository.RateRepository,
	payment *model.PaymentMainDetail,
) (costing.Result, error) {
	dev := decimal.Zero
	if row, err := costRepo.LatestDevelopment(ctx, payment.ID); err == nil {
		dev = row.TotalCost
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return costing.Result{}, fmt.Errorf("failed to fetch development cost: %w", err)
	}

	delivery := decimal.Zero
	if row, err := costRepo.LatestDelivery(ctx, payment.ID); err == nil {
		delivery = row.TotalCost
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return costing.Result{}, fmt.Errorf("failed to fetch delivery cost: %w", err)
	}

	overhead := decimal.Zero
	if row, err := costRepo.LatestOverhead(ctx, payment.ID); err == nil {
		overhead = row.TotalCost
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return costing.Result{}, fmt.Errorf("failed to fetch overhead cost: %w", err)
	}

	values, err := rateRepo.ValuesByCategory(ctx, model.RateCategoryCostSummary)
	if err != nil {
		return costing.Result{}, fmt.Errorf("failed to fetch rates: %w", err)
	}
	rates, err := costing.RatesFromValues(values)
	if err != nil {
		return costing.Result{}, err
	}

	return costing.Compute(dev, delivery, overhead, payment.ParticipantCount, rates)
}

func summaryFromResult(paymentID uuid.UUID, r costing.Result, checkBy *string) *model.CostSummary {
	summary := &model.CostSummary{PaymentID: paymentID, CheckBy: checkBy}
	applyResult(summary, r)
	return summary
}

func applyResult(summary *model.CostSummary, r costing.Result) {
	summary.TotalCostExpense = r.TotalCostExpense
	summary.ProvisionInflation = r.ProvisionInflation
	summary.NBT = r.NBT
	summary.ProfitMargin = r.ProfitMargin
	summary.SubtotalBeforeVAT = r.SubtotalBeforeVAT
	summary.VAT = r.VAT
	summary.TotalCourseCost = r.TotalCourseCost
	summary.CourseFeePerHead = r.CourseFeePerHead
	summary.RoundedCFPH = r.RoundedCFPH
	summary.RoundedCT = r.RoundedCT
}

func revenueFromResult(payment *model.PaymentMainDetail, r costing.Result) *model.RevenueSummary {
	return &model.RevenueSummary{
		PaymentID:        payment.ID,
		CourseID:         payment.CourseID,
		BatchID:          payment.BatchID,
		ParticipantCount: payment.ParticipantCount,
		TotalRevenue:     r.RoundedCT,
	}
}

func toCostSummaryResponse(s model.CostSummary) CostSummaryResponse {
	return CostSummaryResponse{
		ID:                 s.ID.String(),
		PaymentID:          s.PaymentID.String(),
		TotalCostExpense:   s.TotalCostExpense.StringFixed(4),
		ProvisionInflation: s.ProvisionInflation.StringFixed(4),
		NBT:                s.NBT.StringFixed(4),
		ProfitMargin:       s.ProfitMargin.StringFixed(4),
		SubtotalBeforeVAT:  s.SubtotalBeforeVAT.StringFixed(4),
		VAT:                s.VAT.StringFixed(4),
		TotalCourseCost:    s.TotalCourseCost.StringFixed(4),
		CourseFeePerHead:   s.CourseFeePerHead.StringFixed(4),
		RoundedCFPH:        s.RoundedCFPH.StringFixed(2),
		RoundedCT:          s.RoundedCT.StringFixed(2),
		CheckBy:            s.CheckBy,
		CreatedAt:          s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          s.UpdatedAt.Format(time.RFC3339),
	}
}

func actorUUIDOrNil(actor Actor) *uuid.UUID {
	id, err := uuid.Parse(actor.UserID)
	if err != nil {
		return nil
	}
	return &id
}

func (s *costSummaryService) writeAudit(ctx context.Context, actor Actor, action, entityID, entityName string, details interface{}) {
	writeAuditLog(ctx, s.auditRepo, actor, action, entityID, entityName, details)
}

func (s *costSummaryService) notify(event string, paymentID uuid.UUID) {
	notifyCostingEvent(s.hub, event, paymentID)
}

// notifyCostingEvent pushes a costing event to the websocket hub without
// blocking the request when no dispatcher is draining the channel.
func notifyCostingEvent(hub *ws.Hub, event string, paymentID uuid.UUID) {
	if hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"event":      event,
		"payment_id": paymentID.String(),
	})
	select {
	case hub.Broadcast <- payload:
	default:
	}
}
