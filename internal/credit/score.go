// internal/credit/score.go
package credit

import (
	"credit-workers/internal/models"
)

// Score weights. The four sub-scores sum to at most 100.
const (
	PaymentHistoryWeight = 40
	LoanCountWeight      = 20
	CurrentYearWeight    = 20
	VolumeWeight         = 20
)

// Score computes the applicant's credit score in [0,100] from their full loan
// history and exposure profile. An applicant with no history gets the neutral
// default of 50.
//
// currentYear must be captured once by the caller at the start of an
// evaluation and held fixed, so a single evaluation stays internally
// consistent across a year boundary.
func Score(profile Profile, loans []models.Loan, currentYear int) int {
	if len(loans) == 0 {
		return 50
	}

	total := PaymentHistoryScore(loans) +
		LoanCountScore(len(loans)) +
		CurrentYearScore(loans, currentYear) +
		VolumeScore(profile)

	// int cast truncates toward zero. The approval bands (>50, >30, >10) are
	// sensitive to this; do not switch to rounding.
	if total < 0 {
		return 0
	}
	if total > 100 {
		return 100
	}
	return int(total)
}

// PaymentHistoryScore rewards the fraction of EMIs paid on time across the
// applicant's entire history, scaled to PaymentHistoryWeight. A degenerate
// zero total tenure scores half weight.
func PaymentHistoryScore(loans []models.Loan) float64 {
	totalEMIs := 0
	paidOnTime := 0

	for _, loan := range loans {
		totalEMIs += loan.TenureMonths
		paidOnTime += loan.EMIsPaidOnTime
	}

	if totalEMIs == 0 {
		return PaymentHistoryWeight / 2
	}

	return float64(paidOnTime) / float64(totalEMIs) * PaymentHistoryWeight
}

// LoanCountScore deducts 2 points per historical loan, exhausted at 10+ loans.
func LoanCountScore(loanCount int) float64 {
	if loanCount == 0 {
		return LoanCountWeight
	}

	deduction := loanCount * 2
	if deduction > LoanCountWeight {
		deduction = LoanCountWeight
	}

	return float64(LoanCountWeight - deduction)
}

// CurrentYearScore deducts 4 points per loan approved in the current calendar
// year, exhausted at 5+ loans. Recent borrowing velocity is penalized faster
// than lifetime count.
func CurrentYearScore(loans []models.Loan, currentYear int) float64 {
	count := 0
	for _, loan := range loans {
		if loan.DateOfApproval != nil && loan.DateOfApproval.Year() == currentYear {
			count++
		}
	}

	if count == 0 {
		return CurrentYearWeight
	}

	deduction := count * 4
	if deduction > CurrentYearWeight {
		deduction = CurrentYearWeight
	}

	return float64(CurrentYearWeight - deduction)
}

// VolumeScore rewards low credit utilization (current debt over approved
// limit). At or over the limit, or with no limit at all, it scores zero.
func VolumeScore(profile Profile) float64 {
	if profile.ApprovedLimit.IsZero() {
		return 0
	}

	utilization, _ := profile.CurrentDebt.Div(profile.ApprovedLimit).Float64()
	if utilization >= 1.0 {
		return 0
	}

	return (1 - utilization) * VolumeWeight
}
