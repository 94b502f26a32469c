package service

import (
	"context"
	"testing"

	"training-erp/internal/costing"
	"training-erp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type specialCaseFixture struct {
	payments *fakePaymentRepo
	cases    *fakeSpecialCaseRepo
	costs    *fakeCostComponentRepo
	rates    *fakeRateRepo
	audit    *fakeAuditRepo
	svc      SpecialCaseService
	payment  *model.PaymentMainDetail
}

// newSpecialCaseFixture reuses the standard costing setup: components
// 1000/500/300 over 10 participants and rates 5/2/10/15, giving a rounded
// course total of 2500 for percentage-based payables.
func newSpecialCaseFixture() *specialCaseFixture {
	f := &specialCaseFixture{
		payments: newFakePaymentRepo(),
		cases:    newFakeSpecialCaseRepo(),
		costs:    newFakeCostComponentRepo(),
		rates:    newFakeRateRepo(),
		audit:    &fakeAuditRepo{},
	}
	f.svc = NewSpecialCaseService(
		f.payments, f.cases, f.costs, f.rates, f.audit, &fakeTxManager{}, nil)

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

func (f *specialCaseFixture) owner() Actor {
	return Actor{UserID: f.payment.UserID.String(), Role: model.RoleCoordinator}
}

func (f *specialCaseFixture) decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func (f *specialCaseFixture) seedCase(title string, payable, paid string) *model.SpecialCasePayment {
	row := &model.SpecialCasePayment{
		ID:           uuid.New(),
		PaymentID:    f.payment.ID,
		Title:        title,
		TotalPayable: dec(payable),
		AmountPaid:   dec(paid),
	}
	f.cases.rows[row.ID] = row
	return row
}

func TestAllocatePercentagePayable(t *testing.T) {
	f := newSpecialCaseFixture()

	resp, err := f.svc.AllocateBulk(context.Background(), f.owner(), AllocateSpecialCasesRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
		Entries: []SpecialCaseEntry{{
			Title:          "External examiner",
			PercentPayment: true,
			Percentage:     f.decPtr("10"),
		}},
	})
	require.NoError(t, err)

	// 10% of the rounded total 2500.
	require.Len(t, resp.Created, 1)
	assert.Equal(t, "250.0000", resp.Created[0].TotalPayable)
	require.NotNil(t, resp.Created[0].Percentage)
	assert.Equal(t, "10.0000", *resp.Created[0].Percentage)

	// The payable folds into the delivery cost total.
	require.NotNil(t, resp.UpdatedTotalCost)
	assert.Equal(t, "750.0000", *resp.UpdatedTotalCost)
	assert.True(t, f.costs.delivery[f.payment.ID].TotalCost.Equal(dec("750")))

	assert.Equal(t, 1, f.payments.resets)
}

func TestAllocateFixedPayable(t *testing.T) {
	f := newSpecialCaseFixture()
	// Fixed payables never need the rate table.
	f.rates = newFakeRateRepo()
	f.svc = NewSpecialCaseService(
		f.payments, f.cases, f.costs, f.rates, f.audit, &fakeTxManager{}, nil)

	resp, err := f.svc.AllocateBulk(context.Background(), f.owner(), AllocateSpecialCasesRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
		Entries: []SpecialCaseEntry{{
			Title:        "Lab rental",
			TotalPayable: f.decPtr("120"),
			AmountPaid:   f.decPtr("20"),
		}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Created, 1)
	assert.Equal(t, "120.0000", resp.Created[0].TotalPayable)
	assert.Equal(t, "20.0000", resp.Created[0].AmountPaid)
	require.NotNil(t, resp.UpdatedTotalCost)
	assert.Equal(t, "620.0000", *resp.UpdatedTotalCost)
}

func TestAllocateReplacesSameTitle(t *testing.T) {
	f := newSpecialCaseFixture()
	ctx := context.Background()

	_, err := f.svc.AllocateBulk(ctx, f.owner(), AllocateSpecialCasesRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
		Entries:              []SpecialCaseEntry{{Title: "Venue", TotalPayable: f.decPtr("100")}},
	})
	require.NoError(t, err)

	_, err = f.svc.AllocateBulk(ctx, f.owner(), AllocateSpecialCasesRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
		Entries:              []SpecialCaseEntry{{Title: "Venue", TotalPayable: f.decPtr("130")}},
	})
	require.NoError(t, err)

	rows, err := f.cases.ListByPayment(ctx, f.payment.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "same title must upsert, not duplicate")
	assert.True(t, rows[0].TotalPayable.Equal(dec("130")))
}

func TestAllocateValidation(t *testing.T) {
	f := newSpecialCaseFixture()

	tests := []struct {
		name    string
		entries []SpecialCaseEntry
		errText string
	}{
		{
			"duplicate titles in one request",
			[]SpecialCaseEntry{
				{Title: "Venue", TotalPayable: f.decPtr("100")},
				{Title: "Venue", TotalPayable: f.decPtr("200")},
			},
			"duplicate sc_title",
		},
		{
			"blank title",
			[]SpecialCaseEntry{{Title: "   ", TotalPayable: f.decPtr("100")}},
			"sc_title must not be empty",
		},
		{
			"percentage entry without percentage",
			[]SpecialCaseEntry{{Title: "Venue", PercentPayment: true}},
			"percentage is required",
		},
		{
			"percentage above 100",
			[]SpecialCaseEntry{{Title: "Venue", PercentPayment: true, Percentage: f.decPtr("150")}},
			"percentage must be between 0 and 100",
		},
		{
			"fixed entry without payable",
			[]SpecialCaseEntry{{Title: "Venue"}},
			"total_payable is required",
		},
		{
			"negative payable",
			[]SpecialCaseEntry{{Title: "Venue", TotalPayable: f.decPtr("-5")}},
			"total_payable must not be negative",
		},
		{
			"paid above payable",
			[]SpecialCaseEntry{{Title: "Venue", TotalPayable: f.decPtr("100"), AmountPaid: f.decPtr("150")}},
			"amount_paid cannot exceed total_payable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AllocateBulk(context.Background(), f.owner(), AllocateSpecialCasesRequest{
				PaymentMainDetailsID: f.payment.ID.String(),
				Entries:              tt.entries,
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestAllocatePercentageNeedsRates(t *testing.T) {
	f := newSpecialCaseFixture()
	f.rates = newFakeRateRepo()
	f.svc = NewSpecialCaseService(
		f.payments, f.cases, f.costs, f.rates, f.audit, &fakeTxManager{}, nil)

	_, err := f.svc.AllocateBulk(context.Background(), f.owner(), AllocateSpecialCasesRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
		Entries: []SpecialCaseEntry{{
			Title:          "Venue",
			PercentPayment: true,
			Percentage:     f.decPtr("10"),
		}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot resolve percentage-based payable")

	var missing *costing.MissingRateError
	assert.ErrorAs(t, err, &missing)
}

func TestAllocateWithoutDeliveryRow(t *testing.T) {
	f := newSpecialCaseFixture()
	delete(f.costs.delivery, f.payment.ID)

	resp, err := f.svc.AllocateBulk(context.Background(), f.owner(), AllocateSpecialCasesRequest{
		PaymentMainDetailsID: f.payment.ID.String(),
		Entries:              []SpecialCaseEntry{{Title: "Venue", TotalPayable: f.decPtr("100")}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Created, 1)
	assert.Nil(t, resp.UpdatedTotalCost, "no delivery row means nothing to fold into")
	assert.Equal(t, 1, f.payments.resets, "approvals reset even when the fold is skipped")
}

func TestPaySpecialCase(t *testing.T) {
	f := newSpecialCaseFixture()
	ctx := context.Background()
	row := f.seedCase("Venue", "100", "30")

	resp, err := f.svc.Pay(ctx, f.owner(), row.ID.String(), PaySpecialCaseRequest{AmountPaid: dec("50")})
	require.NoError(t, err)
	assert.Equal(t, "80.0000", resp.AmountPaid)

	// Paying more than the remaining 20 must fail without changing the row.
	_, err = f.svc.Pay(ctx, f.owner(), row.ID.String(), PaySpecialCaseRequest{AmountPaid: dec("30")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds the remaining balance of 20.00")
	assert.True(t, row.AmountPaid.Equal(dec("80")))

	resp, err = f.svc.Pay(ctx, f.owner(), row.ID.String(), PaySpecialCaseRequest{AmountPaid: dec("20")})
	require.NoError(t, err)
	assert.Equal(t, "100.0000", resp.AmountPaid)

	_, err = f.svc.Pay(ctx, f.owner(), row.ID.String(), PaySpecialCaseRequest{AmountPaid: dec("1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already fully paid")
}

func TestPaySpecialCaseValidation(t *testing.T) {
	f := newSpecialCaseFixture()
	ctx := context.Background()

	row := f.seedCase("Venue", "100", "0")
	_, err := f.svc.Pay(ctx, f.owner(), row.ID.String(), PaySpecialCaseRequest{AmountPaid: decimal.Zero})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be greater than zero")

	unset := f.seedCase("Pending quote", "0", "0")
	_, err = f.svc.Pay(ctx, f.owner(), unset.ID.String(), PaySpecialCaseRequest{AmountPaid: dec("10")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot pay against unset total")

	_, err = f.svc.Pay(ctx, f.owner(), uuid.NewString(), PaySpecialCaseRequest{AmountPaid: dec("10")})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAllClampsDelivery(t *testing.T) {
	f := newSpecialCaseFixture()
	ctx := context.Background()
	f.seedCase("Venue", "400", "0")
	f.seedCase("Examiner", "300", "100")
	f.payment.CTMApproval = model.ApprovalApproved

	resp, err := f.svc.DeleteAllForPayment(ctx, f.owner(), f.payment.ID.String())
	require.NoError(t, err)

	assert.Equal(t, int64(2), resp.Deleted)
	// Backing 700 out of a 500 delivery total clamps at zero.
	require.NotNil(t, resp.UpdatedTotalCost)
	assert.Equal(t, "0.0000", *resp.UpdatedTotalCost)
	assert.True(t, f.costs.delivery[f.payment.ID].TotalCost.IsZero())

	rows, err := f.cases.ListByPayment(ctx, f.payment.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.Equal(t, model.ApprovalPending, f.payment.CTMApproval)
	assert.Empty(t, resp.Warning)
}

func TestDeleteAllNoRows(t *testing.T) {
	f := newSpecialCaseFixture()
	f.payment.CTMApproval = model.ApprovalApproved

	resp, err := f.svc.DeleteAllForPayment(context.Background(), f.owner(), f.payment.ID.String())
	require.NoError(t, err)

	assert.Equal(t, int64(0), resp.Deleted)
	assert.Nil(t, resp.UpdatedTotalCost)
	// An empty delete is a no-op: approvals and the audit trail stay as-is.
	assert.Equal(t, model.ApprovalApproved, f.payment.CTMApproval)
	assert.Empty(t, f.audit.entries)
	assert.True(t, f.costs.delivery[f.payment.ID].TotalCost.Equal(dec("500")))
}
