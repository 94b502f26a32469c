package costing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rate names the calculation requires. Values are whole percentages
// (15 = 15%), matching how the rate table stores them.
const (
	RateProfitMargin = "Profit Margin Percentage"
	RateNBT          = "NBT"
	RateInflation    = "Provision For Inflation Percentage"
	RateVAT          = "VAT"
)

// RoundingUnit is the currency increment the per-head fee is rounded up to.
var RoundingUnit = decimal.NewFromInt(50)

var requiredRates = []string{RateInflation, RateNBT, RateProfitMargin, RateVAT}

var oneHundred = decimal.NewFromInt(100)

// MissingRateError reports which of the four required rate names were
// absent from the rate map.
type MissingRateError struct {
	Names []string
}

func (e *MissingRateError) Error() string {
	return "Missing or invalid rate(s): " + strings.Join(e.Names, ", ")
}

// InvalidCostError reports non-positive base cost or participant count.
type InvalidCostError struct {
	Reason string
}

func (e *InvalidCostError) Error() string {
	return e.Reason
}

// Result holds every stage of the derived cost chain. Each adjustment
// compounds on the running subtotal, not on the original base.
type Result struct {
	TotalCostExpense   decimal.Decimal // dev + delivery + overhead
	ProvisionInflation decimal.Decimal
	NBT                decimal.Decimal
	ProfitMargin       decimal.Decimal
	SubtotalBeforeVAT  decimal.Decimal
	VAT                decimal.Decimal
	TotalCourseCost    decimal.Decimal
	CourseFeePerHead   decimal.Decimal
	RoundedCFPH        decimal.Decimal // fee per head rounded up to the nearest RoundingUnit
	RoundedCT          decimal.Decimal // RoundedCFPH * participants
}

// Compute derives the full cost summary for one payment record. Pure
// function; callers own persistence.
//
// Stage order is fixed: inflation, then NBT on (base + inflation), then
// profit margin on the running subtotal, then VAT on everything.
func Compute(dev, delivery, overhead decimal.Decimal, participants int, rates map[string]decimal.Decimal) (Result, error) {
	var missing []string
	for _, name := range requiredRates {
		if _, ok := rates[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Result{}, &MissingRateError{Names: missing}
	}

	if participants <= 0 {
		return Result{}, &InvalidCostError{Reason: "participant count must be greater than zero"}
	}
	for _, c := range []decimal.Decimal{dev, delivery, overhead} {
		if c.IsNegative() {
			return Result{}, &InvalidCostError{Reason: "cost components must not be negative"}
		}
	}

	base := dev.Add(delivery).Add(overhead)
	if !base.IsPositive() {
		return Result{}, &InvalidCostError{Reason: "total cost expense must be greater than zero"}
	}

	inflation := base.Mul(rates[RateInflation]).Div(oneHundred)
	nbt := base.Add(inflation).Mul(rates[RateNBT]).Div(oneHundred)
	profit := base.Add(inflation).Add(nbt).Mul(rates[RateProfitMargin]).Div(oneHundred)
	subtotal := base.Add(inflation).Add(nbt).Add(profit)
	vat := subtotal.Mul(rates[RateVAT]).Div(oneHundred)
	total := subtotal.Add(vat)

	count := decimal.NewFromInt(int64(participants))
	feePerHead := total.Div(count)
	roundedFee := RoundUpToUnit(feePerHead)
	roundedTotal := roundedFee.Mul(count)

	return Result{
		TotalCostExpense:   base,
		ProvisionInflation: inflation,
		NBT:                nbt,
		ProfitMargin:       profit,
		SubtotalBeforeVAT:  subtotal,
		VAT:                vat,
		TotalCourseCost:    total,
		CourseFeePerHead:   feePerHead,
		RoundedCFPH:        roundedFee,
		RoundedCT:          roundedTotal,
	}, nil
}

// RoundUpToUnit rounds v up to the nearest RoundingUnit multiple.
func RoundUpToUnit(v decimal.Decimal) decimal.Decimal {
	return v.Div(RoundingUnit).Ceil().Mul(RoundingUnit)
}

// RatesFromValues builds the rate map from the four stored percentages,
// keeping the error text stable for handlers.
func RatesFromValues(values map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(requiredRates))
	var missing []string
	for _, name := range requiredRates {
		v, ok := values[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out[name] = v
	}
	if len(missing) > 0 {
		return nil, &MissingRateError{Names: missing}
	}
	return out, nil
}

// RequiredRateNames returns the rate names Compute demands, in stage order.
func RequiredRateNames() []string {
	names := make([]string, len(requiredRates))
	copy(names, requiredRates)
	return names
}
