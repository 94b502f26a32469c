package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"training-erp/internal/model"
	"training-erp/internal/repository"
	ws "training-erp/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SpecialCaseEntry struct {
	Title          string           `json:"sc_title" binding:"required"`
	Description    string           `json:"description"`
	PercentPayment bool             `json:"percent_payment_or_not"`
	Percentage     *decimal.Decimal `json:"percentage"`
	TotalPayable   *decimal.Decimal `json:"total_payable"`
	AmountPaid     *decimal.Decimal `json:"amount_paid"`
}

type AllocateSpecialCasesRequest struct {
	PaymentMainDetailsID string             `json:"payments_main_details_id" binding:"required"`
	Entries              []SpecialCaseEntry `json:"entries" binding:"required,min=1,dive"`
}

// PaySpecialCaseRequest carries the increment to add to the recorded
// paid amount, not the new balance.
type PaySpecialCaseRequest struct {
	AmountPaid decimal.Decimal `json:"amount_paid" binding:"required"`
}

type SpecialCaseResponse struct {
	ID             string  `json:"id"`
	PaymentID      string  `json:"payment_id"`
	Title          string  `json:"sc_title"`
	Description    string  `json:"description"`
	PercentPayment bool    `json:"percent_payment_or_not"`
	Percentage     *string `json:"percentage"`
	TotalPayable   string  `json:"total_payable"`
	AmountPaid     string  `json:"amount_paid"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type AllocateSpecialCasesResponse struct {
	Created          []SpecialCaseResponse `json:"created"`
	UpdatedTotalCost *string               `json:"updated_total_cost,omitempty"`
}

type DeleteSpecialCasesResponse struct {
	Deleted          int64   `json:"deleted"`
	UpdatedTotalCost *string `json:"updated_total_cost,omitempty"`
	Warning          string  `json:"warning,omitempty"`
}

// --- Interface ---

type SpecialCaseService interface {
	AllocateBulk(ctx context.Context, actor Actor, req AllocateSpecialCasesRequest) (AllocateSpecialCasesResponse, error)
	ListByPayment(ctx context.Context, actor Actor, paymentID string) ([]SpecialCaseResponse, error)
	Pay(ctx context.Context, actor Actor, id string, req PaySpecialCaseRequest) (SpecialCaseResponse, error)
	DeleteAllForPayment(ctx context.Context, actor Actor, paymentID string) (DeleteSpecialCasesResponse, error)
}

type specialCaseService struct {
	paymentRepo repository.PaymentRepository
	scRepo      repository.SpecialCaseRepository
	costRepo    repository.CostComponentRepository
	rateRepo    repository.RateRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewSpecialCaseService(
	paymentRepo repository.PaymentRepository,
	scRepo repository.SpecialCaseRepository,
	costRepo repository.CostComponentRepository,
	rateRepo repository.RateRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) SpecialCaseService {
	return &specialCaseService{
		paymentRepo: paymentRepo,
		scRepo:      scRepo,
		costRepo:    costRepo,
		rateRepo:    rateRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

var percentHundred = decimal.NewFromInt(100)

// --- Implementation ---

// AllocateBulk upserts special-case payments keyed by (payment, title) and
// folds the sum of the created payables into the delivery cost total, so
// the next summary calculation absorbs them.
func (s *specialCaseService) AllocateBulk(ctx context.Context, actor Actor, req AllocateSpecialCasesRequest) (AllocateSpecialCasesResponse, error) {
	paymentID, err := uuid.Parse(req.PaymentMainDetailsID)
	if err != nil {
		return AllocateSpecialCasesResponse{}, fmt.Errorf("invalid payment_main_details_id: %w", err)
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AllocateSpecialCasesResponse{}, fmt.Errorf("payment record not found: %w", ErrNotFound)
		}
		return AllocateSpecialCasesResponse{}, fmt.Errorf("failed to fetch payment record: %w", err)
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return AllocateSpecialCasesResponse{}, err
	}

	// Percentage entries resolve against the rounded course total, so the
	// full calculation must be possible before anything is written.
	roundedTotal := decimal.Zero
	if hasPercentEntry(req.Entries) {
		result, calcErr := computeForPayment(ctx, s.costRepo, s.rateRepo, payment)
		if calcErr != nil {
			return AllocateSpecialCasesResponse{}, fmt.Errorf("cannot resolve percentage-based payable: %w", calcErr)
		}
		roundedTotal = result.RoundedCT
	}

	rows := make([]*model.SpecialCasePayment, 0, len(req.Entries))
	addedPayable := decimal.Zero
	seen := make(map[string]bool, len(req.Entries))
	for _, entry := range req.Entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			return AllocateSpecialCasesResponse{}, fmt.Errorf("sc_title must not be empty")
		}
		if seen[title] {
			return AllocateSpecialCasesResponse{}, fmt.Errorf("duplicate sc_title %q in request", title)
		}
		seen[title] = true

		row, buildErr := buildSpecialCaseRow(paymentID, title, entry, roundedTotal)
		if buildErr != nil {
			return AllocateSpecialCasesResponse{}, buildErr
		}
		rows = append(rows, row)
		addedPayable = addedPayable.Add(row.TotalPayable)
	}

	var updatedTotal *decimal.Decimal
	actorID := actorUUIDOrNil(actor)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, row := range rows {
			if delErr := s.scRepo.DeleteByPaymentAndTitle(txCtx, paymentID, row.Title); delErr != nil {
				return fmt.Errorf("failed to replace special case %q: %w", row.Title, delErr)
			}
			if createErr := s.scRepo.Create(txCtx, row); createErr != nil {
				return fmt.Errorf("failed to create special case %q: %w", row.Title, createErr)
			}
		}

		if _, resetErr := s.paymentRepo.ResetApprovals(txCtx, paymentID, actorID); resetErr != nil {
			return fmt.Errorf("failed to reset approval fields: %w", resetErr)
		}

		delivery, dErr := s.costRepo.LatestDelivery(txCtx, paymentID)
		if dErr != nil {
			if errors.Is(dErr, gorm.ErrRecordNotFound) {
				return nil // nothing to fold into yet
			}
			return fmt.Errorf("failed to fetch delivery cost: %w", dErr)
		}
		delivery.TotalCost = delivery.TotalCost.Add(addedPayable)
		if upErr := s.costRepo.UpdateDelivery(txCtx, delivery); upErr != nil {
			return fmt.Errorf("failed to update delivery cost: %w", upErr)
		}
		updatedTotal = &delivery.TotalCost
		return nil
	})
	if err != nil {
		return AllocateSpecialCasesResponse{}, err
	}

	s.writeAudit(ctx, actor, model.ActionAllocateSpecialCase, paymentID.String(), payment.ID.String(), req)
	notifyCostingEvent(s.hub, "special_cases_allocated", paymentID)

	resp := AllocateSpecialCasesResponse{Created: make([]SpecialCaseResponse, 0, len(rows))}
	for _, row := range rows {
		resp.Created = append(resp.Created, toSpecialCaseResponse(*row))
	}
	if updatedTotal != nil {
		v := updatedTotal.StringFixed(4)
		resp.UpdatedTotalCost = &v
	}
	return resp, nil
}

func (s *specialCaseService) ListByPayment(ctx context.Context, actor Actor, paymentIDStr string) ([]SpecialCaseResponse, error) {
	paymentID, err := uuid.Parse(paymentIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid payment id: %w", err)
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment record not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch payment record: %w", err)
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return nil, err
	}

	rows, err := s.scRepo.ListByPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list special cases: %w", err)
	}

	out := make([]SpecialCaseResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSpecialCaseResponse(row))
	}
	return out, nil
}

// Pay records a partial payment against a special case. The paid amount
// only grows and never exceeds the payable; the row is locked for the
// duration so concurrent payments serialize.
func (s *specialCaseService) Pay(ctx context.Context, actor Actor, id string, req PaySpecialCaseRequest) (SpecialCaseResponse, error) {
	scID, err := uuid.Parse(id)
	if err != nil {
		return SpecialCaseResponse{}, fmt.Errorf("invalid special case id: %w", err)
	}
	if req.AmountPaid.LessThanOrEqual(decimal.Zero) {
		return SpecialCaseResponse{}, fmt.Errorf("payment amount must be greater than zero")
	}

	var updated *model.SpecialCasePayment
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		row, findErr := s.scRepo.FindByIDForUpdate(txCtx, scID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("special case payment not found: %w", ErrNotFound)
			}
			return fmt.Errorf("failed to fetch special case payment: %w", findErr)
		}

		payment, pErr := s.paymentRepo.FindByID(txCtx, row.PaymentID)
		if pErr != nil {
			return fmt.Errorf("failed to fetch payment record: %w", pErr)
		}
		if authErr := authorizePaymentAccess(payment, actor); authErr != nil {
			return authErr
		}

		if row.TotalPayable.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("cannot pay against unset total for special case %q", row.Title)
		}
		remaining := row.TotalPayable.Sub(row.AmountPaid)
		if remaining.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("special case %q is already fully paid", row.Title)
		}
		if req.AmountPaid.GreaterThan(remaining) {
			return fmt.Errorf("payment of %s exceeds the remaining balance of %s",
				req.AmountPaid.StringFixed(2), remaining.StringFixed(2))
		}

		row.AmountPaid = row.AmountPaid.Add(req.AmountPaid)
		if upErr := s.scRepo.Update(txCtx, row); upErr != nil {
			return fmt.Errorf("failed to record payment: %w", upErr)
		}
		updated = row
		return nil
	})
	if err != nil {
		return SpecialCaseResponse{}, err
	}

	s.writeAudit(ctx, actor, model.ActionPaySpecialCase, scID.String(), updated.Title, req)
	notifyCostingEvent(s.hub, "special_case_paid", updated.PaymentID)

	return toSpecialCaseResponse(*updated), nil
}

// DeleteAllForPayment removes every special case of the payment and backs
// their combined payable out of the delivery cost, clamping at zero.
func (s *specialCaseService) DeleteAllForPayment(ctx context.Context, actor Actor, paymentIDStr string) (DeleteSpecialCasesResponse, error) {
	paymentID, err := uuid.Parse(paymentIDStr)
	if err != nil {
		return DeleteSpecialCasesResponse{}, fmt.Errorf("invalid payment id: %w", err)
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeleteSpecialCasesResponse{}, fmt.Errorf("payment record not found: %w", ErrNotFound)
		}
		return DeleteSpecialCasesResponse{}, fmt.Errorf("failed to fetch payment record: %w", err)
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return DeleteSpecialCasesResponse{}, err
	}

	var deleted int64
	var updatedTotal *decimal.Decimal
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, listErr := s.scRepo.ListByPayment(txCtx, paymentID)
		if listErr != nil {
			return fmt.Errorf("failed to list special cases: %w", listErr)
		}
		deleted = int64(len(rows))
		if deleted == 0 {
			return nil
		}

		removedPayable, sumErr := s.scRepo.SumTotalPayable(txCtx, paymentID)
		if sumErr != nil {
			return fmt.Errorf("failed to sum special case payables: %w", sumErr)
		}

		delivery, dErr := s.costRepo.LatestDelivery(txCtx, paymentID)
		if dErr == nil {
			delivery.TotalCost = delivery.TotalCost.Sub(removedPayable)
			if delivery.TotalCost.IsNegative() {
				delivery.TotalCost = decimal.Zero
			}
			if upErr := s.costRepo.UpdateDelivery(txCtx, delivery); upErr != nil {
				return fmt.Errorf("failed to update delivery cost: %w", upErr)
			}
			updatedTotal = &delivery.TotalCost
		} else if !errors.Is(dErr, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to fetch delivery cost: %w", dErr)
		}

		if delErr := s.scRepo.DeleteAllByPayment(txCtx, paymentID); delErr != nil {
			return fmt.Errorf("failed to delete special cases: %w", delErr)
		}
		return nil
	})
	if err != nil {
		return DeleteSpecialCasesResponse{}, err
	}

	resp := DeleteSpecialCasesResponse{Deleted: deleted}
	if updatedTotal != nil {
		v := updatedTotal.StringFixed(4)
		resp.UpdatedTotalCost = &v
	}

	if deleted > 0 {
		// Deletes are committed; a failed reset only degrades the response.
		if _, resetErr := s.paymentRepo.ResetApprovals(ctx, paymentID, actorUUIDOrNil(actor)); resetErr != nil {
			resp.Warning = "approval fields could not be reset: " + resetErr.Error()
		}
		s.writeAudit(ctx, actor, model.ActionDeleteSpecialCases, paymentID.String(), payment.ID.String(), nil)
		notifyCostingEvent(s.hub, "special_cases_deleted", paymentID)
	}

	return resp, nil
}

// --- Helpers ---

func hasPercentEntry(entries []SpecialCaseEntry) bool {
	for _, e := range entries {
		if e.PercentPayment {
			return true
		}
	}
	return false
}

func buildSpecialCaseRow(paymentID uuid.UUID, title string, entry SpecialCaseEntry, roundedTotal decimal.Decimal) (*model.SpecialCasePayment, error) {
	row := &model.SpecialCasePayment{
		PaymentID:      paymentID,
		Title:          title,
		Description:    entry.Description,
		PercentPayment: entry.PercentPayment,
	}

	if entry.PercentPayment {
		if entry.Percentage == nil {
			return nil, fmt.Errorf("special case %q: percentage is required for percentage-based payables", title)
		}
		pct := *entry.Percentage
		if pct.LessThanOrEqual(decimal.Zero) || pct.GreaterThan(percentHundred) {
			return nil, fmt.Errorf("special case %q: percentage must be between 0 and 100", title)
		}
		row.Percentage = &pct
		row.TotalPayable = roundedTotal.Mul(pct).Div(percentHundred)
	} else {
		if entry.TotalPayable == nil {
			return nil, fmt.Errorf("special case %q: total_payable is required for fixed payables", title)
		}
		if entry.TotalPayable.IsNegative() {
			return nil, fmt.Errorf("special case %q: total_payable must not be negative", title)
		}
		row.TotalPayable = *entry.TotalPayable
	}

	if entry.AmountPaid != nil {
		if entry.AmountPaid.IsNegative() {
			return nil, fmt.Errorf("special case %q: amount_paid must not be negative", title)
		}
		if entry.AmountPaid.GreaterThan(row.TotalPayable) {
			return nil, fmt.Errorf("special case %q: amount_paid cannot exceed total_payable", title)
		}
		row.AmountPaid = *entry.AmountPaid
	}

	return row, nil
}

func toSpecialCaseResponse(row model.SpecialCasePayment) SpecialCaseResponse {
	resp := SpecialCaseResponse{
		ID:             row.ID.String(),
		PaymentID:      row.PaymentID.String(),
		Title:          row.Title,
		Description:    row.Description,
		PercentPayment: row.PercentPayment,
		TotalPayable:   row.TotalPayable.StringFixed(4),
		AmountPaid:     row.AmountPaid.StringFixed(4),
		CreatedAt:      row.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      row.UpdatedAt.Format(time.RFC3339),
	}
	if row.Percentage != nil {
		v := row.Percentage.StringFixed(4)
		resp.Percentage = &v
	}
	return resp
}

func (s *specialCaseService) writeAudit(ctx context.Context, actor Actor, action, entityID, entityName string, details interface{}) {
	writeAuditLog(ctx, s.auditRepo, actor, action, entityID, entityName, details)
}
