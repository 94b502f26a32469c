package service

import (
	"context"
	"testing"

	"training-erp/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApprovalFixture() (*fakePaymentRepo, *model.PaymentMainDetail, ApprovalService) {
	payments := newFakePaymentRepo()
	payment := &model.PaymentMainDetail{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		CourseID:           uuid.New(),
		ParticipantCount:   10,
		CTMApproval:        model.ApprovalPending,
		DCTM01Approval:     model.ApprovalPending,
		DCTM02Approval:     model.ApprovalPending,
		AccountantApproval: model.ApprovalPending,
		SectionalApproval:  model.ApprovalPending,
	}
	payments.payments[payment.ID] = payment
	svc := NewApprovalService(payments, &fakeAuditRepo{}, nil)
	return payments, payment, svc
}

func TestDecideStageRoleBinding(t *testing.T) {
	_, payment, svc := newApprovalFixture()
	ctx := context.Background()

	ctm := Actor{UserID: uuid.NewString(), Role: model.RoleCTM}
	resp, err := svc.Decide(ctx, ctm, payment.ID.String(), ApprovalDecisionRequest{
		Stage:   "ctm",
		Status:  model.ApprovalApproved,
		Details: strPtr("budget looks right"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, resp.CTMApproval)
	require.NotNil(t, resp.CTMDetails)
	assert.Equal(t, "budget looks right", *resp.CTMDetails)
	assert.False(t, resp.FullyApproved)

	// A reviewer may only decide their own stage.
	_, err = svc.Decide(ctx, ctm, payment.ID.String(), ApprovalDecisionRequest{
		Stage:  "accountant",
		Status: model.ApprovalApproved,
	})
	require.ErrorIs(t, err, ErrForbidden)

	// SuperAdmin decides any stage.
	admin := Actor{UserID: uuid.NewString(), Role: model.RoleSuperAdmin}
	resp, err = svc.Decide(ctx, admin, payment.ID.String(), ApprovalDecisionRequest{
		Stage:  "accountant",
		Status: model.ApprovalRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalRejected, resp.AccountantApproval)
}

func TestDecideSectionalStageSetsSectionType(t *testing.T) {
	_, payment, svc := newApprovalFixture()
	ctx := context.Background()

	head := Actor{UserID: uuid.NewString(), Role: model.RoleSectionalHead}
	resp, err := svc.Decide(ctx, head, payment.ID.String(), ApprovalDecisionRequest{
		Stage:       "sectional",
		Status:      model.ApprovalApproved,
		SectionType: strPtr("Finance"),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.SectionType)
	assert.Equal(t, "Finance", *resp.SectionType)

	// section_type is ignored outside the sectional stage.
	ctm := Actor{UserID: uuid.NewString(), Role: model.RoleCTM}
	resp, err = svc.Decide(ctx, ctm, payment.ID.String(), ApprovalDecisionRequest{
		Stage:       "ctm",
		Status:      model.ApprovalApproved,
		SectionType: strPtr("Engineering"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Finance", *resp.SectionType)
}

func TestFullyApprovedNeedsAllFiveStages(t *testing.T) {
	_, payment, svc := newApprovalFixture()
	ctx := context.Background()
	admin := Actor{UserID: uuid.NewString(), Role: model.RoleSuperAdmin}

	var resp ApprovalStatusResponse
	var err error
	for _, stage := range []string{"ctm", "dctm01", "dctm02", "accountant", "sectional"} {
		assert.False(t, resp.FullyApproved)
		resp, err = svc.Decide(ctx, admin, payment.ID.String(), ApprovalDecisionRequest{
			Stage:  stage,
			Status: model.ApprovalApproved,
		})
		require.NoError(t, err)
	}
	assert.True(t, resp.FullyApproved)
}

func TestDecidePaymentNotFound(t *testing.T) {
	_, _, svc := newApprovalFixture()

	admin := Actor{UserID: uuid.NewString(), Role: model.RoleSuperAdmin}
	_, err := svc.Decide(context.Background(), admin, uuid.NewString(), ApprovalDecisionRequest{
		Stage:  "ctm",
		Status: model.ApprovalApproved,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetStatusChecksOwnership(t *testing.T) {
	_, payment, svc := newApprovalFixture()
	ctx := context.Background()

	owner := Actor{UserID: payment.UserID.String(), Role: model.RoleCoordinator}
	resp, err := svc.GetStatus(ctx, owner, payment.ID.String())
	require.NoError(t, err)
	assert.Equal(t, payment.ID.String(), resp.PaymentID)

	stranger := Actor{UserID: uuid.NewString(), Role: model.RoleCoordinator}
	_, err = svc.GetStatus(ctx, stranger, payment.ID.String())
	require.ErrorIs(t, err, ErrForbidden)
}
