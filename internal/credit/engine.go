// internal/credit/engine.go

// Package credit implements the loan decision engine: credit scoring,
// rate-correction policy, installment math, and the layered eligibility gates.
//
// Every function here is a pure function of its inputs. Policy rejections are
// normal Decision values, never errors. The engine assumes well-formed input
// (positive amount, tenure in range, non-negative rates); validating requests
// before invoking it is the job of the validate-loan-request worker.
package credit

import (
	"fmt"
	"math"

	"credit-workers/internal/models"

	"github.com/shopspring/decimal"
)

// Profile is the applicant's exposure snapshot, supplied by the storage layer.
// CurrentDebt is maintained externally as the sum of installment x remaining
// EMIs over active loans; the engine never recomputes it.
type Profile struct {
	ApprovedLimit decimal.Decimal `json:"approvedLimit"`
	CurrentDebt   decimal.Decimal `json:"currentDebt"`
	MonthlySalary decimal.Decimal `json:"monthlySalary"`
}

// Request is one loan application.
type Request struct {
	LoanAmount   decimal.Decimal `json:"loanAmount"`
	TenureMonths int             `json:"tenureMonths"`
	InterestRate decimal.Decimal `json:"interestRate"`
}

// Decision is the fully populated outcome of one evaluation.
type Decision struct {
	Approved              bool            `json:"approved"`
	CreditScore           int             `json:"creditScore"`
	InterestRate          decimal.Decimal `json:"interestRate"`
	CorrectedInterestRate decimal.Decimal `json:"correctedInterestRate"`
	MonthlyInstallment    decimal.Decimal `json:"monthlyInstallment"`
	Message               string          `json:"message"`
}

// MaxEMIToSalaryRatio is the affordability ceiling: total EMIs may not exceed
// half the monthly salary.
const MaxEMIToSalaryRatio = 0.5

// Evaluate runs the eligibility pipeline over an immutable snapshot of the
// applicant's profile and loan history. Gates run in order and short-circuit
// on the first failure:
//
//  1. exposure gate (debt over limit rejects before scoring)
//  2. credit score
//  3. rate correction by score band
//  4. installment at the corrected rate
//  5. affordability gate (EMI to salary ratio)
//  6. final approval band
func Evaluate(profile Profile, loans []models.Loan, req Request, currentYear int) Decision {
	if profile.CurrentDebt.GreaterThan(profile.ApprovedLimit) {
		return Decision{
			Approved:              false,
			CreditScore:           0,
			InterestRate:          req.InterestRate,
			CorrectedInterestRate: req.InterestRate,
			MonthlyInstallment:    decimal.Zero,
			Message:               "Current loans exceed approved limit",
		}
	}

	creditScore := Score(profile, loans, currentYear)

	approved := creditScore > 0
	correctedRate := CorrectRate(creditScore, req.InterestRate)

	emi := MonthlyInstallment(req.LoanAmount, correctedRate, req.TenureMonths)

	totalEMI := emi
	for _, loan := range loans {
		if loan.IsActive() {
			totalEMI = totalEMI.Add(loan.MonthlyInstallment)
		}
	}

	if ok, ratio := checkEMIToSalaryRatio(totalEMI, profile.MonthlySalary); !ok {
		return Decision{
			Approved:              false,
			CreditScore:           creditScore,
			InterestRate:          req.InterestRate,
			CorrectedInterestRate: correctedRate,
			MonthlyInstallment:    emi,
			Message:               fmt.Sprintf("EMI to salary ratio (%s) exceeds 50%% limit", formatRatio(ratio)),
		}
	}

	var message string
	switch {
	case creditScore > 50:
		message = "Loan approved"
	case creditScore > 30:
		message = "Loan approved with higher interest rate"
	case creditScore > 10:
		message = "Loan approved with significantly higher interest rate"
	default:
		// Overrides the score>0 pre-approval above for scores in (0,10].
		approved = false
		message = "Credit score too low for approval"
	}

	return Decision{
		Approved:              approved,
		CreditScore:           creditScore,
		InterestRate:          req.InterestRate,
		CorrectedInterestRate: correctedRate,
		MonthlyInstallment:    emi,
		Message:               message,
	}
}

// CorrectRate applies the policy-mandated minimum interest rate for the score
// band. Scores of 10 or below keep the requested rate; they are rejected in
// the final band anyway.
func CorrectRate(creditScore int, requestedRate decimal.Decimal) decimal.Decimal {
	switch {
	case creditScore > 50:
		return requestedRate
	case creditScore > 30:
		return decimal.Max(requestedRate, decimal.NewFromInt(12))
	case creditScore > 10:
		return decimal.Max(requestedRate, decimal.NewFromInt(16))
	default:
		return requestedRate
	}
}

// checkEMIToSalaryRatio validates total periodic obligations against income.
// A zero salary makes the ratio infinite and always fails.
func checkEMIToSalaryRatio(totalEMI, monthlySalary decimal.Decimal) (bool, float64) {
	if monthlySalary.IsZero() {
		return false, math.Inf(1)
	}

	ratio, _ := totalEMI.Div(monthlySalary).Float64()
	return ratio <= MaxEMIToSalaryRatio, ratio
}

func formatRatio(ratio float64) string {
	if math.IsInf(ratio, 1) {
		return "infinite"
	}
	return fmt.Sprintf("%.2f%%", ratio*100)
}
