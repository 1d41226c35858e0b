// internal/credit/emi.go
package credit

import "github.com/shopspring/decimal"

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// MonthlyInstallment computes the fixed EMI for a loan:
//
//	EMI = P x r x (1+r)^n / ((1+r)^n - 1)
//
// where r is the monthly rate (annual rate / 12 / 100) and n the tenure in
// months. The result is rounded to 2 decimal places with ties away from zero
// (standard currency rounding, not banker's rounding). All arithmetic stays in
// decimal; the approval gates compare against this value, so cent-level float
// drift is not acceptable.
//
// Degenerate inputs are accommodated, not rejected: zero tenure yields zero,
// zero rate falls back to straight-line division.
func MonthlyInstallment(principal, annualRatePercent decimal.Decimal, tenureMonths int) decimal.Decimal {
	if tenureMonths == 0 {
		return decimal.Zero
	}

	n := decimal.NewFromInt(int64(tenureMonths))

	if annualRatePercent.IsZero() {
		return principal.Div(n).Round(2)
	}

	monthlyRate := annualRatePercent.Div(twelve).Div(hundred)
	compound := decimal.NewFromInt(1).Add(monthlyRate).Pow(n)

	numerator := principal.Mul(monthlyRate).Mul(compound)
	denominator := compound.Sub(decimal.NewFromInt(1))

	return numerator.Div(denominator).Round(2)
}
