package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"training-erp/internal/model"
	"training-erp/internal/repository"
	ws "training-erp/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type ApprovalDecisionRequest struct {
	Stage       string  `json:"stage" binding:"required,oneof=ctm dctm01 dctm02 accountant sectional"`
	Status      string  `json:"status" binding:"required,oneof=Approved Rejected"`
	Details     *string `json:"details"`
	SectionType *string `json:"section_type"` // only honored on the sectional stage
}

type ApprovalStatusResponse struct {
	PaymentID          string  `json:"payment_id"`
	CTMApproval        string  `json:"ctm_approval"`
	DCTM01Approval     string  `json:"dctm01_approval"`
	DCTM02Approval     string  `json:"dctm02_approval"`
	AccountantApproval string  `json:"accountant_approval"`
	SectionalApproval  string  `json:"sectional_approval"`
	CTMDetails         *string `json:"ctm_details"`
	DCTM01Details      *string `json:"dctm01_details"`
	DCTM02Details      *string `json:"dctm02_details"`
	AccountantDetails  *string `json:"accountant_details"`
	SectionalDetails   *string `json:"sectional_details"`
	SectionType        *string `json:"section_type"`
	FullyApproved      bool    `json:"fully_approved"`
	UpdatedAt          string  `json:"updated_at"`
}

// --- Interface ---

// ApprovalService records reviewer decisions on the five approval stages of
// a payment record. Any cost mutation wipes these decisions back to Pending.
type ApprovalService interface {
	Decide(ctx context.Context, actor Actor, paymentID string, req ApprovalDecisionRequest) (ApprovalStatusResponse, error)
	GetStatus(ctx context.Context, actor Actor, paymentID string) (ApprovalStatusResponse, error)
}

type approvalService struct {
	paymentRepo repository.PaymentRepository
	auditRepo   repository.AuditRepository
	hub         *ws.Hub
}

func NewApprovalService(
	paymentRepo repository.PaymentRepository,
	auditRepo repository.AuditRepository,
	hub *ws.Hub,
) ApprovalService {
	return &approvalService{
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		hub:         hub,
	}
}

// --- Implementation ---

// approvalStage binds a request stage name to its columns and the role that
// may decide it. SuperAdmin may decide any stage.
type approvalStage struct {
	statusColumn  string
	detailsColumn string
	role          string
}

var approvalStages = map[string]approvalStage{
	"ctm":        {statusColumn: "ctm_approval", detailsColumn: "ctm_details", role: model.RoleCTM},
	"dctm01":     {statusColumn: "dctm01_approval", detailsColumn: "dctm01_details", role: model.RoleDCTM01},
	"dctm02":     {statusColumn: "dctm02_approval", detailsColumn: "dctm02_details", role: model.RoleDCTM02},
	"accountant": {statusColumn: "accountant_approval", detailsColumn: "accountant_details", role: model.RoleFinanceManager},
	"sectional":  {statusColumn: "sectional_approval", detailsColumn: "sectional_details", role: model.RoleSectionalHead},
}

func (s *approvalService) Decide(ctx context.Context, actor Actor, paymentID string, req ApprovalDecisionRequest) (ApprovalStatusResponse, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return ApprovalStatusResponse{}, fmt.Errorf("invalid payment id: %w", err)
	}

	stage, ok := approvalStages[req.Stage]
	if !ok {
		return ApprovalStatusResponse{}, fmt.Errorf("unknown approval stage %q", req.Stage)
	}
	if actor.Role != model.RoleSuperAdmin && actor.Role != stage.role {
		return ApprovalStatusResponse{}, fmt.Errorf("role %q may not decide the %s stage: %w", actor.Role, req.Stage, ErrForbidden)
	}

	if _, err := s.paymentRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApprovalStatusResponse{}, fmt.Errorf("payment record not found: %w", ErrNotFound)
		}
		return ApprovalStatusResponse{}, fmt.Errorf("failed to fetch payment record: %w", err)
	}

	updates := map[string]interface{}{
		stage.statusColumn: req.Status,
		"updated_by_id":    actorUUIDOrNil(actor),
	}
	if req.Details != nil {
		updates[stage.detailsColumn] = *req.Details
	}
	if req.Stage == "sectional" && req.SectionType != nil {
		updates["section_type"] = *req.SectionType
	}

	rows, err := s.paymentRepo.UpdateApproval(ctx, id, updates)
	if err != nil {
		return ApprovalStatusResponse{}, fmt.Errorf("failed to record approval decision: %w", err)
	}
	if rows == 0 {
		return ApprovalStatusResponse{}, fmt.Errorf("payment record not found: %w", ErrNotFound)
	}

	writeAuditLog(ctx, s.auditRepo, actor, model.ActionRecordApproval, id.String(), req.Stage, map[string]string{
		"stage":  req.Stage,
		"status": req.Status,
	})
	notifyCostingEvent(s.hub, "approval_decided", id)

	return s.status(ctx, id)
}

func (s *approvalService) GetStatus(ctx context.Context, actor Actor, paymentID string) (ApprovalStatusResponse, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return ApprovalStatusResponse{}, fmt.Errorf("invalid payment id: %w", err)
	}

	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApprovalStatusResponse{}, fmt.Errorf("payment record not found: %w", ErrNotFound)
		}
		return ApprovalStatusResponse{}, fmt.Errorf("failed to fetch payment record: %w", err)
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return ApprovalStatusResponse{}, err
	}

	return toApprovalStatusResponse(payment), nil
}

// --- Helpers ---

func (s *approvalService) status(ctx context.Context, id uuid.UUID) (ApprovalStatusResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return ApprovalStatusResponse{}, fmt.Errorf("failed to reload payment record: %w", err)
	}
	return toApprovalStatusResponse(payment), nil
}

func toApprovalStatusResponse(p *model.PaymentMainDetail) ApprovalStatusResponse {
	fullyApproved := p.CTMApproval == model.ApprovalApproved &&
		p.DCTM01Approval == model.ApprovalApproved &&
		p.DCTM02Approval == model.ApprovalApproved &&
		p.AccountantApproval == model.ApprovalApproved &&
		p.SectionalApproval == model.ApprovalApproved

	return ApprovalStatusResponse{
		PaymentID:          p.ID.String(),
		CTMApproval:        p.CTMApproval,
		DCTM01Approval:     p.DCTM01Approval,
		DCTM02Approval:     p.DCTM02Approval,
		AccountantApproval: p.AccountantApproval,
		SectionalApproval:  p.SectionalApproval,
		CTMDetails:         p.CTMDetails,
		DCTM01Details:      p.DCTM01Details,
		DCTM02Details:      p.DCTM02Details,
		AccountantDetails:  p.AccountantDetails,
		SectionalDetails:   p.SectionalDetails,
		SectionType:        p.SectionType,
		FullyApproved:      fullyApproved,
		UpdatedAt:          p.UpdatedAt.Format(time.RFC3339),
	}
}
