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

type CreatePaymentRequest struct {
	CourseID         string  `json:"course_id" binding:"required"`
	BatchID          *string `json:"batch_id"`
	ParticipantCount int     `json:"participant_count" binding:"required,gt=0"`
	DevelopmentCost  *string `json:"development_cost"` // decimal strings
	DeliveryCost     *string `json:"delivery_cost"`
	OverheadCost     *string `json:"overhead_cost"`
}

type PaymentResponse struct {
	ID                 string  `json:"id"`
	UserID             string  `json:"user_id"`
	CourseID           string  `json:"course_id"`
	BatchID            *string `json:"batch_id"`
	ParticipantCount   int     `json:"participant_count"`
	CTMApproval        string  `json:"ctm_approval"`
	DCTM01Approval     string  `json:"dctm01_approval"`
	DCTM02Approval     string  `json:"dctm02_approval"`
	AccountantApproval string  `json:"accountant_approval"`
	SectionalApproval  string  `json:"sectional_approval"`
	SectionType        *string `json:"section_type"`
	CreatedAt          string  `json:"created_at"`
}

type ResetApprovalsResponse struct {
	PaymentID   string `json:"payment_id"`
	UpdatedRows int64  `json:"updated_rows"`
}

// --- Interface ---

type PaymentService interface {
	Create(ctx context.Context, actor Actor, req CreatePaymentRequest) (PaymentResponse, error)
	Get(ctx context.Context, actor Actor, id string) (PaymentResponse, error)
	List(ctx context.Context, actor Actor, page, limit int) ([]PaymentResponse, int64, error)
	ResetApprovals(ctx context.Context, actor Actor, paymentID string) (ResetApprovalsResponse, error)
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	costRepo    repository.CostComponentRepository
	courseRepo  repository.CourseRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	costRepo repository.CostComponentRepository,
	courseRepo repository.CourseRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		costRepo:    costRepo,
		courseRepo:  courseRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

// Create opens a costing request owned by the requester. Cost component
// rows given inline are appended in the same transaction; each later
// calculation reads the newest row of each component table.
func (s *paymentService) Create(ctx context.Context, actor Actor, req CreatePaymentRequest) (PaymentResponse, error) {
	actorID, err := actor.uuid()
	if err != nil {
		return PaymentResponse{}, err
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("invalid course_id: %w", err)
	}
	if _, err := s.courseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentResponse{}, fmt.Errorf("course not found: %w", ErrNotFound)
		}
		return PaymentResponse{}, fmt.Errorf("failed to fetch course: %w", err)
	}

	payment := &model.PaymentMainDetail{
		UserID:           actorID,
		CourseID:         courseID,
		ParticipantCount: req.ParticipantCount,
	}
	if req.BatchID != nil {
		batchID, parseErr := uuid.Parse(*req.BatchID)
		if parseErr != nil {
			return PaymentResponse{}, fmt.Errorf("invalid batch_id: %w", parseErr)
		}
		batch, batchErr := s.courseRepo.FindBatchByID(ctx, batchID)
		if batchErr != nil {
			if errors.Is(batchErr, gorm.ErrRecordNotFound) {
				return PaymentResponse{}, fmt.Errorf("batch not found: %w", ErrNotFound)
			}
			return PaymentResponse{}, fmt.Errorf("failed to fetch batch: %w", batchErr)
		}
		if batch.CourseID != courseID {
			return PaymentResponse{}, fmt.Errorf("batch does not belong to the given course")
		}
		payment.BatchID = &batchID
	}

	dev, err := parseOptionalCost("development_cost", req.DevelopmentCost)
	if err != nil {
		return PaymentResponse{}, err
	}
	delivery, err := parseOptionalCost("delivery_cost", req.DeliveryCost)
	if err != nil {
		return PaymentResponse{}, err
	}
	overhead, err := parseOptionalCost("overhead_cost", req.OverheadCost)
	if err != nil {
		return PaymentResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.paymentRepo.Create(txCtx, payment); createErr != nil {
			return fmt.Errorf("failed to create payment record: %w", createErr)
		}
		if dev != nil {
			row := &model.DevelopmentCost{PaymentID: payment.ID, TotalCost: *dev}
			if cErr := s.costRepo.CreateDevelopment(txCtx, row); cErr != nil {
				return fmt.Errorf("failed to create development cost: %w", cErr)
			}
		}
		if delivery != nil {
			row := &model.DeliveryCost{PaymentID: payment.ID, TotalCost: *delivery}
			if cErr := s.costRepo.CreateDelivery(txCtx, row); cErr != nil {
				return fmt.Errorf("failed to create delivery cost: %w", cErr)
			}
		}
		if overhead != nil {
			row := &model.OverheadCost{PaymentID: payment.ID, TotalCost: *overhead}
			if cErr := s.costRepo.CreateOverhead(txCtx, row); cErr != nil {
				return fmt.Errorf("failed to create overhead cost: %w", cErr)
			}
		}
		return nil
	})
	if err != nil {
		return PaymentResponse{}, err
	}

	return toPaymentResponse(*payment), nil
}

func (s *paymentService) Get(ctx context.Context, actor Actor, id string) (PaymentResponse, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("invalid payment id: %w", err)
	}

	payment, err := s.paymentRepo.FindByIDWithRelations(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentResponse{}, fmt.Errorf("payment record not found: %w", ErrNotFound)
		}
		return PaymentResponse{}, fmt.Errorf("failed to fetch payment record: %w", err)
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return PaymentResponse{}, err
	}

	return toPaymentResponse(*payment), nil
}

func (s *paymentService) List(ctx context.Context, actor Actor, page, limit int) ([]PaymentResponse, int64, error) {
	payments, total, err := s.paymentRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payment records: %w", err)
	}

	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		if authorizePaymentAccess(&p, actor) != nil {
			continue // non-privileged users only see their own records
		}
		out = append(out, toPaymentResponse(p))
	}
	return out, total, nil
}

// ResetApprovals is the standalone reset surface; the costing services also
// invoke the same repository operation after each cost mutation.
func (s *paymentService) ResetApprovals(ctx context.Context, actor Actor, id string) (ResetApprovalsResponse, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return ResetApprovalsResponse{}, fmt.Errorf("invalid payment id: %w", err)
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ResetApprovalsResponse{}, fmt.Errorf("payment record not found: %w", ErrNotFound)
		}
		return ResetApprovalsResponse{}, fmt.Errorf("failed to fetch payment record: %w", err)
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return ResetApprovalsResponse{}, err
	}

	rows, err := s.paymentRepo.ResetApprovals(ctx, paymentID, actorUUIDOrNil(actor))
	if err != nil {
		return ResetApprovalsResponse{}, fmt.Errorf("failed to reset approval fields: %w", err)
	}
	if rows == 0 {
		return ResetApprovalsResponse{}, fmt.Errorf("payment record not found: %w", ErrNotFound)
	}

	writeAuditLog(ctx, s.auditRepo, actor, model.ActionResetApprovalFields, paymentID.String(), "", nil)

	return ResetApprovalsResponse{PaymentID: paymentID.String(), UpdatedRows: rows}, nil
}

// --- Helpers ---

func parseOptionalCost(field string, raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("%s must not be negative", field)
	}
	return &value, nil
}

func toPaymentResponse(p model.PaymentMainDetail) PaymentResponse {
	resp := PaymentResponse{
		ID:                 p.ID.String(),
		UserID:             p.UserID.String(),
		CourseID:           p.CourseID.String(),
		ParticipantCount:   p.ParticipantCount,
		CTMApproval:        p.CTMApproval,
		DCTM01Approval:     p.DCTM01Approval,
		DCTM02Approval:     p.DCTM02Approval,
		AccountantApproval: p.AccountantApproval,
		SectionalApproval:  p.SectionalApproval,
		SectionType:        p.SectionType,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
	}
	if p.BatchID != nil {
		v := p.BatchID.String()
		resp.BatchID = &v
	}
	return resp
}
