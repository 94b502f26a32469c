package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"training-erp/internal/model"
	"training-erp/internal/repository"

	"github.com/google/uuid"
)

// Sentinel errors handlers translate into HTTP status codes. Services wrap
// these with context via fmt.Errorf("...: %w", ...).
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Actor is the authenticated requester, extracted from the JWT by the auth
// middleware.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) uuid() (uuid.UUID, error) {
	id, err := uuid.Parse(a.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	return id, nil
}

/// authorizePaymentAccess enforces the ownership rule: the requester must
// own the payment record or hold a privileged role.
func authorizePaymentAccess(payment *model.PaymentMainDetail, actor Actor) error {
	if model.IsPrivilegedRole(actor.Role) {
		return nil
	}
	actorID, err := actor.uuid()
	if err != nil {
		return fmt.Errorf("access denied: %w", ErrForbidden)
	}
	if payment.UserID == actorID {
		return nil
	}
	return fmt.Errorf("you do not have access to this payment record: %w", ErrForbidden)
}

func writeAuditLog(ctx context.Context, auditRepo repository.AuditRepository, actor Actor, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     actorUUIDOrNil(actor),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	// Best-effort audit log — don't fail the operation if logging fails
	_ = auditRepo.Log(ctx, entry)
}
