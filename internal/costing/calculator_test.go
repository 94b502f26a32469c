package costing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		RateInflation:    decimal.NewFromInt(5),
		RateNBT:          decimal.NewFromInt(2),
		RateProfitMargin: decimal.NewFromInt(10),
		RateVAT:          decimal.NewFromInt(15),
	}
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputeStagedChain(t *testing.T) {
	res, err := Compute(d("1000"), d("500"), d("300"), 10, standardRates())
	require.NoError(t, err)

	// Each stage compounds on the running subtotal, not on the base.
	assert.True(t, res.TotalCostExpense.Equal(d("1800")), "base = %s", res.TotalCostExpense)
	assert.True(t, res.ProvisionInflation.Equal(d("90")), "inflation = %s", res.ProvisionInflation)
	assert.True(t, res.NBT.Equal(d("37.8")), "nbt = %s", res.NBT)
	assert.True(t, res.ProfitMargin.Equal(d("192.78")), "profit = %s", res.ProfitMargin)
	assert.True(t, res.SubtotalBeforeVAT.Equal(d("2120.58")), "subtotal = %s", res.SubtotalBeforeVAT)
	assert.True(t, res.VAT.Equal(d("318.087")), "vat = %s", res.VAT)
	assert.True(t, res.TotalCourseCost.Equal(d("2438.667")), "total = %s", res.TotalCourseCost)
	assert.True(t, res.CourseFeePerHead.Equal(d("243.8667")), "fee per head = %s", res.CourseFeePerHead)
	assert.True(t, res.RoundedCFPH.Equal(d("250")), "rounded fee = %s", res.RoundedCFPH)
	assert.True(t, res.RoundedCT.Equal(d("2500")), "rounded total = %s", res.RoundedCT)
}

func TestComputeZeroRates(t *testing.T) {
	rates := map[string]decimal.Decimal{
		RateInflation:    decimal.Zero,
		RateNBT:          decimal.Zero,
		RateProfitMargin: decimal.Zero,
		RateVAT:          decimal.Zero,
	}

	res, err := Compute(d("100"), d("0"), d("0"), 2, rates)
	require.NoError(t, err)

	assert.True(t, res.TotalCourseCost.Equal(d("100")))
	assert.True(t, res.CourseFeePerHead.Equal(d("50")))
	// 50 is already a rounding unit multiple; rounding must not bump it.
	assert.True(t, res.RoundedCFPH.Equal(d("50")))
	assert.True(t, res.RoundedCT.Equal(d("100")))
}

func TestComputeMissingRates(t *testing.T) {
	rates := standardRates()
	delete(rates, RateVAT)

	_, err := Compute(d("1000"), d("500"), d("300"), 10, rates)
	require.Error(t, err)

	var missing *MissingRateError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{RateVAT}, missing.Names)
	assert.Contains(t, err.Error(), "Missing or invalid rate(s)")
	assert.Contains(t, err.Error(), "VAT")
}

func TestComputeMissingRatesListsAll(t *testing.T) {
	_, err := Compute(d("100"), d("0"), d("0"), 1, map[string]decimal.Decimal{})

	var missing *MissingRateError
	require.ErrorAs(t, err, &missing)
	assert.Len(t, missing.Names, 4)
}

func TestComputeInvalidInputs(t *testing.T) {
	tests := []struct {
		name          string
		dev, del, ovh string
		participants  int
	}{
		{"zero participants", "100", "0", "0", 0},
		{"negative participants", "100", "0", "0", -3},
		{"negative component", "-1", "100", "0", 5},
		{"zero base", "0", "0", "0", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(d(tt.dev), d(tt.del), d(tt.ovh), tt.participants, standardRates())
			var invalid *InvalidCostError
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestRoundUpToUnit(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"0.01", "50"},
		{"49.99", "50"},
		{"50", "50"},
		{"50.01", "100"},
		{"243.8667", "250"},
		{"2500", "2500"},
	}

	for _, tt := range tests {
		got := RoundUpToUnit(d(tt.in))
		assert.True(t, got.Equal(d(tt.want)), "RoundUpToUnit(%s) = %s, want %s", tt.in, got, tt.want)
	}
}

func TestRoundUpNeverDecreases(t *testing.T) {
	for _, in := range []string{"1", "49", "51", "99.99", "101", "1234.5678"} {
		v := d(in)
		rounded := RoundUpToUnit(v)
		assert.True(t, rounded.GreaterThanOrEqual(v), "rounded %s below input %s", rounded, v)
		assert.True(t, rounded.Mod(RoundingUnit).IsZero(), "rounded %s not a unit multiple", rounded)
	}
}

func TestRatesFromValues(t *testing.T) {
	values := standardRates()
	values["Unrelated"] = decimal.NewFromInt(99)

	rates, err := RatesFromValues(values)
	require.NoError(t, err)
	assert.Len(t, rates, 4)
	assert.NotContains(t, rates, "Unrelated")

	delete(values, RateNBT)
	delete(values, RateInflation)
	_, err = RatesFromValues(values)
	var missing *MissingRateError
	require.ErrorAs(t, err, &missing)
	assert.ElementsMatch(t, []string{RateNBT, RateInflation}, missing.Names)
}

func TestRequiredRateNamesIsACopy(t *testing.T) {
	names := RequiredRateNames()
	require.Len(t, names, 4)
	names[0] = "tampered"
	assert.NotEqual(t, "tampered", RequiredRateNames()[0])
}
