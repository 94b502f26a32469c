package service

import (
	"context"
	"errors"
	"testing"

	"training-erp/internal/costing"
	"training-erp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func strPtr(s string) *string { return &s }

type costSummaryFixture struct {
	payments  *fakePaymentRepo
	costs     *fakeCostComponentRepo
	rates     *fakeRateRepo
	summaries *fakeCostSummaryRepo
	revenues  *fakeRevenueRepo
	audit     *fakeAuditRepo
	svc       CostSummaryService
	payment   *model.PaymentMainDetail
}

// newCostSummaryFixture wires a payment for 10 participants with components
// 1000/500/300 and the rate table 5/2/10/15, so the expected figures follow
// the staged chain: base 1800, rounded fee 250, rounded total 2500.
func newCostSummaryFixture() *costSummaryFixture {
	f := &costSummaryFixture{
		payments:  newFakePaymentRepo(),
		costs:     newFakeCostComponentRepo(),
		rates:     newFakeRateRepo(),
		summaries: newFakeCostSummaryRepo(),
		revenues:  newFakeRevenueRepo(),
		audit:     &fakeAuditRepo{},
	}
	f.svc = NewCostSummaryService(
		f.payments, f.costs, f.rates, f.summaries, f.revenues, f.audit, &fakeTxManager{}, nil)

	f.payment = &model.PaymentMainDetail{
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
	f.payments.payments[f.payment.ID] = f.payment

	f.costs.dev[f.payment.ID] = &model.DevelopmentCost{PaymentID: f.payment.ID, TotalCost: dec("1000")}
	f.costs.delivery[f.payment.ID] = &model.DeliveryCost{PaymentID: f.payment.ID, TotalCost: dec("500")}
	f.costs.overhead[f.payment.ID] = &model.OverheadCost{PaymentID: f.payment.ID, TotalCost: dec("300")}

	f.rates.seed(model.RateCategoryCostSummary, costing.RateInflation, decimal.NewFromInt(5))
	f.rates.seed(model.RateCategoryCostSummary, costing.RateNBT, decimal.NewFromInt(2))
	f.rates.seed(model.RateCategoryCostSummary, costing.RateProfitMargin, decimal.NewFromInt(10))
	f.rates.seed(model.RateCategoryCostSummary, costing.RateVAT, decimal.NewFromInt(15))

	return f
}

// owner returns the payment owner acting under an unprivileged role.
func (f *costSummaryFixture) owner() Actor {
	return Actor{UserID: f.payment.UserID.String(), Role: model.RoleCoordinator}
}

func (f *costSummaryFixture) removeRate(name string) {
	for id, rate := range f.rates.rates {
		if rate.RateName == name {
			delete(f.rates.rates, id)
		}
	}
}

func TestCreateCostSummary(t *testing.T) {
	f := newCostSummaryFixture()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.owner(), CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
		CheckBy:              strPtr("J. Perera"),
	})
	require.NoError(t, err)

	assert.Equal(t, "1800.0000", resp.TotalCostExpense)
	assert.Equal(t, "90.0000", resp.ProvisionInflation)
	assert.Equal(t, "37.8000", resp.NBT)
	assert.Equal(t, "192.7800", resp.ProfitMargin)
	assert.Equal(t, "2120.5800", resp.SubtotalBeforeVAT)
	assert.Equal(t, "318.0870", resp.VAT)
	assert.Equal(t, "2438.6670", resp.TotalCourseCost)
	assert.Equal(t, "243.8667", resp.CourseFeePerHead)
	assert.Equal(t, "250.00", resp.RoundedCFPH)
	assert.Equal(t, "2500.00", resp.RoundedCT)
	require.NotNil(t, resp.CheckBy)
	assert.Equal(t, "J. Perera", *resp.CheckBy)

	stored, err := f.summaries.FindByPaymentID(ctx, f.payment.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID.String(), resp.ID)

	revenue, err := f.revenues.FindByPaymentID(ctx, f.payment.ID)
	require.NoError(t, err)
	assert.True(t, revenue.TotalRevenue.Equal(dec("2500")), "revenue = %s", revenue.TotalRevenue)
	assert.Equal(t, 10, revenue.ParticipantCount)

	assert.Equal(t, 1, f.payments.resets)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, model.ActionCreateCostSummary, f.audit.entries[0].Action)
}

func TestCreateCostSummaryResetsApprovals(t *testing.T) {
	f := newCostSummaryFixture()
	f.payment.CTMApproval = model.ApprovalApproved
	f.payment.AccountantApproval = model.ApprovalRejected
	f.payment.CTMDetails = strPtr("looks fine")

	_, err := f.svc.Create(context.Background(), f.owner(), CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalPending, f.payment.CTMApproval)
	assert.Equal(t, model.ApprovalPending, f.payment.AccountantApproval)
	assert.Nil(t, f.payment.CTMDetails)
}

func TestCreateCostSummaryReplacesExisting(t *testing.T) {
	f := newCostSummaryFixture()
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.owner(), CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
	})
	require.NoError(t, err)

	second, err := f.svc.Create(ctx, f.owner(), CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	stored, err := f.summaries.FindByPaymentID(ctx, f.payment.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, stored.ID.String())
}

func TestCreateCostSummaryMissingRate(t *testing.T) {
	f := newCostSummaryFixture()
	f.removeRate(costing.RateVAT)

	_, err := f.svc.Create(context.Background(), f.owner(), CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
	})
	require.Error(t, err)

	var missing *costing.MissingRateError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, err.Error(), "Missing or invalid rate(s)")

	// Nothing may be written when the calculation fails.
	_, findErr := f.summaries.FindByPaymentID(context.Background(), f.payment.ID)
	require.Error(t, findErr)
	assert.Equal(t, 0, f.payments.resets)
}

func TestCreateCostSummaryZeroParticipants(t *testing.T) {
	f := newCostSummaryFixture()
	f.payment.ParticipantCount = 0

	_, err := f.svc.Create(context.Background(), f.owner(), CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
	})
	var invalid *costing.InvalidCostError
	require.ErrorAs(t, err, &invalid)
}

func TestCreateCostSummaryNotFound(t *testing.T) {
	f := newCostSummaryFixture()

	_, err := f.svc.Create(context.Background(), f.owner(), CreateCostSummaryRequest{
		PaymentMainDetailsID: uuid.NewString(),
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCostSummaryOwnership(t *testing.T) {
	f := newCostSummaryFixture()
	ctx := context.Background()

	stranger := Actor{UserID: uuid.NewString(), Role: model.RoleCoordinator}
	_, err := f.svc.Create(ctx, stranger, CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
	})
	require.ErrorIs(t, err, ErrForbidden)

	created, err := f.svc.Create(ctx, f.owner(), CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
	})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, stranger, created.ID)
	require.ErrorIs(t, err, ErrForbidden)

	// A privileged role reads records it does not own.
	manager := Actor{UserID: uuid.NewString(), Role: model.RoleFinanceManager}
	got, err := f.svc.Get(ctx, manager, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestRefreshKeepsApprovals(t *testing.T) {
	f := newCostSummaryFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.owner(), CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
	})
	require.NoError(t, err)

	f.payment.CTMApproval = model.ApprovalApproved
	f.payment.SectionalApproval = model.ApprovalApproved
	resetsBefore := f.payments.resets

	// Bump development cost so the refresh has something to recompute:
	// base 2800 runs out to a rounded total of 4000.
	f.costs.dev[f.payment.ID].TotalCost = dec("2000")

	refreshed, err := f.svc.Refresh(ctx, f.owner(), created.ID, CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, refreshed.ID)
	assert.Equal(t, "2800.0000", refreshed.TotalCostExpense)
	assert.Equal(t, "400.00", refreshed.RoundedCFPH)
	assert.Equal(t, "4000.00", refreshed.RoundedCT)

	assert.Equal(t, model.ApprovalApproved, f.payment.CTMApproval)
	assert.Equal(t, model.ApprovalApproved, f.payment.SectionalApproval)
	assert.Equal(t, resetsBefore, f.payments.resets)

	revenue, err := f.revenues.FindByPaymentID(ctx, f.payment.ID)
	require.NoError(t, err)
	assert.True(t, revenue.TotalRevenue.Equal(dec("4000")), "revenue = %s", revenue.TotalRevenue)
}

func TestDeleteCostSummary(t *testing.T) {
	f := newCostSummaryFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.owner(), CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
	})
	require.NoError(t, err)

	f.payment.CTMApproval = model.ApprovalApproved

	resp, err := f.svc.Delete(ctx, f.owner(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Warning)

	_, err = f.summaries.FindByPaymentID(ctx, f.payment.ID)
	require.Error(t, err)
	_, err = f.revenues.FindByPaymentID(ctx, f.payment.ID)
	require.Error(t, err)

	assert.Equal(t, model.ApprovalPending, f.payment.CTMApproval)
}

func TestDeleteCostSummaryResetWarning(t *testing.T) {
	f := newCostSummaryFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.owner(), CreateCostSummaryRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
	})
	require.NoError(t, err)

	// The reset failing after the delete committed must not fail the call.
	f.payments.resetErr = errors.New("deadlock")

	resp, err := f.svc.Delete(ctx, f.owner(), created.ID)
	require.NoError(t, err)
	assert.Contains(t, resp.Warning, "approval fields could not be reset")

	_, err = f.summaries.FindByPaymentID(ctx, f.payment.ID)
	require.Error(t, err, "delete must stick even when the reset fails")
}
