// internal/credit/engine_test.go
package credit

import (
	"testing"

	"credit-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateNewCustomer(t *testing.T) {
	// No history: neutral score of 50 lands in the (30,50] band, so the rate
	// is floored at 12% and the decision is a conditional approval.
	profile := Profile{
		ApprovedLimit: d("0"),
		CurrentDebt:   d("0"),
		MonthlySalary: d("50000"),
	}
	req := Request{LoanAmount: d("100000"), TenureMonths: 12, InterestRate: d("10")}

	decision := Evaluate(profile, nil, req, 2026)

	assert.True(t, decision.Approved)
	assert.Equal(t, 50, decision.CreditScore)
	assert.Equal(t, "10", decision.InterestRate.String())
	assert.Equal(t, "12", decision.CorrectedInterestRate.String())
	assert.Equal(t, "8884.88", decision.MonthlyInstallment.StringFixed(2))
	assert.Equal(t, "Loan approved with higher interest rate", decision.Message)
}

func TestEvaluateExposureGate(t *testing.T) {
	// Debt over the approved limit rejects before any scoring happens.
	profile := Profile{
		ApprovedLimit: d("100000"),
		CurrentDebt:   d("120000"),
		MonthlySalary: d("50000"),
	}
	req := Request{LoanAmount: d("50000"), TenureMonths: 12, InterestRate: d("10")}

	decision := Evaluate(profile, nil, req, 2026)

	assert.False(t, decision.Approved)
	assert.Equal(t, 0, decision.CreditScore)
	assert.Equal(t, "Current loans exceed approved limit", decision.Message)
	assert.True(t, decision.MonthlyInstallment.IsZero())
	assert.Equal(t, "10", decision.CorrectedInterestRate.String())
}

func TestEvaluateExposureGateBoundary(t *testing.T) {
	// Debt exactly at the limit passes the gate.
	profile := Profile{
		ApprovedLimit: d("100000"),
		CurrentDebt:   d("100000"),
		MonthlySalary: d("500000"),
	}
	req := Request{LoanAmount: d("100000"), TenureMonths: 12, InterestRate: d("10")}

	decision := Evaluate(profile, nil, req, 2026)
	assert.NotEqual(t, "Current loans exceed approved limit", decision.Message)
}

func TestEvaluateStrongHistoryKeepsRequestedRate(t *testing.T) {
	loans := make([]models.Loan, 12)
	for i := range loans {
		loans[i] = models.Loan{
			TenureMonths:       12,
			EMIsPaidOnTime:     12,
			MonthlyInstallment: d("5000"),
			DateOfApproval:     approvedOn(2020 + i%5),
		}
	}

	profile := Profile{
		ApprovedLimit: d("100000"),
		CurrentDebt:   d("0"),
		MonthlySalary: d("50000"),
	}
	req := Request{LoanAmount: d("100000"), TenureMonths: 12, InterestRate: d("10.5")}

	decision := Evaluate(profile, loans, req, 2026)

	require.True(t, decision.Approved)
	assert.Equal(t, 80, decision.CreditScore)
	assert.True(t, decision.CorrectedInterestRate.Equal(req.InterestRate),
		"score above 50 must keep the requested rate")
	assert.Equal(t, "8814.86", decision.MonthlyInstallment.StringFixed(2))
	assert.Equal(t, "Loan approved", decision.Message)
}

func TestEvaluateZeroSalaryAlwaysRejects(t *testing.T) {
	profile := Profile{
		ApprovedLimit: d("100000"),
		CurrentDebt:   d("0"),
		MonthlySalary: d("0"),
	}
	req := Request{LoanAmount: d("100000"), TenureMonths: 12, InterestRate: d("10")}

	decision := Evaluate(profile, nil, req, 2026)

	assert.False(t, decision.Approved)
	assert.Equal(t, "EMI to salary ratio (infinite) exceeds 50% limit", decision.Message)
	// The installment is still reported so the applicant sees what was priced.
	assert.Equal(t, "8884.88", decision.MonthlyInstallment.StringFixed(2))
}

func TestEvaluateAffordabilityGate(t *testing.T) {
	profile := Profile{
		ApprovedLimit: d("1000000"),
		CurrentDebt:   d("0"),
		MonthlySalary: d("10000"),
	}
	req := Request{LoanAmount: d("100000"), TenureMonths: 12, InterestRate: d("10")}

	decision := Evaluate(profile, nil, req, 2026)

	assert.False(t, decision.Approved)
	assert.Equal(t, 50, decision.CreditScore)
	// New customer: rate floored at 12, EMI 8884.88, ratio 88.85% of salary.
	assert.Equal(t, "EMI to salary ratio (88.85%) exceeds 50% limit", decision.Message)
}

func TestEvaluateAffordabilityCountsActiveLoansOnly(t *testing.T) {
	loans := []models.Loan{
		// Active: 4 of 12 EMIs paid, installment contributes to the ratio.
		{TenureMonths: 12, EMIsPaidOnTime: 4, MonthlyInstallment: d("20000"), DateOfApproval: approvedOn(2025)},
		// Closed: fully repaid, must not contribute.
		{TenureMonths: 12, EMIsPaidOnTime: 12, MonthlyInstallment: d("90000"), DateOfApproval: approvedOn(2023)},
	}

	profile := Profile{
		ApprovedLimit: d("1000000"),
		CurrentDebt:   d("160000"),
		MonthlySalary: d("50000"),
	}
	req := Request{LoanAmount: d("100000"), TenureMonths: 12, InterestRate: d("10")}

	decision := Evaluate(profile, loans, req, 2026)

	// score: payment 16/24*40 = 26.67, count 16, year 20, volume (1-0.16)*20
	// = 16.8, total 79.46 -> 79. Rate stays at 10, EMI 8790.59... check gate:
	// 20000 + EMI > 25000, so the ratio gate rejects despite the good score.
	assert.False(t, decision.Approved)
	assert.Equal(t, 79, decision.CreditScore)
	assert.Contains(t, decision.Message, "exceeds 50% limit")
}

func TestEvaluateLowScoreRejected(t *testing.T) {
	// Heavy recent borrowing with poor repayment drives the score to the
	// bottom band, which is rejected outright.
	loans := make([]models.Loan, 10)
	for i := range loans {
		loans[i] = models.Loan{
			TenureMonths:   12,
			EMIsPaidOnTime: 1,
			DateOfApproval: approvedOn(2026),
		}
	}

	profile := Profile{
		ApprovedLimit: d("100000"),
		CurrentDebt:   d("95000"),
		MonthlySalary: d("500000"),
	}
	req := Request{LoanAmount: d("100000"), TenureMonths: 12, InterestRate: d("10")}

	decision := Evaluate(profile, loans, req, 2026)

	// payment 10/120*40 = 3.33, count 0, year 0, volume 1 -> total 4.33 -> 4.
	assert.False(t, decision.Approved)
	assert.Equal(t, 4, decision.CreditScore)
	assert.Equal(t, "Credit score too low for approval", decision.Message)
	assert.True(t, decision.CorrectedInterestRate.Equal(req.InterestRate),
		"bottom band keeps the requested rate")
}

func TestEvaluateSignificantlyHigherRateBand(t *testing.T) {
	loans := make([]models.Loan, 7)
	for i := range loans {
		year := 2022
		if i < 3 {
			year = 2026
		}
		loans[i] = models.Loan{
			TenureMonths:   12,
			EMIsPaidOnTime: 3,
			DateOfApproval: approvedOn(year),
		}
	}

	profile := Profile{
		ApprovedLimit: d("100000"),
		CurrentDebt:   d("100000"),
		MonthlySalary: d("500000"),
	}
	req := Request{LoanAmount: d("100000"), TenureMonths: 12, InterestRate: d("10")}

	decision := Evaluate(profile, loans, req, 2026)

	// payment 21/84*40 = 10, count 6, year 20-12 = 8, volume 0 -> 24.
	require.Equal(t, 24, decision.CreditScore)
	assert.True(t, decision.Approved)
	assert.Equal(t, "16", decision.CorrectedInterestRate.String())
	assert.Equal(t, "Loan approved with significantly higher interest rate", decision.Message)
}

func TestEvaluateHigherRateBandKeepsLargerRequestedRate(t *testing.T) {
	// A requested rate above the band floor must not be lowered.
	profile := Profile{
		ApprovedLimit: d("0"),
		CurrentDebt:   d("0"),
		MonthlySalary: d("100000"),
	}
	req := Request{LoanAmount: d("100000"), TenureMonths: 12, InterestRate: d("14")}

	decision := Evaluate(profile, nil, req, 2026)

	require.Equal(t, 50, decision.CreditScore)
	assert.Equal(t, "14", decision.CorrectedInterestRate.String())
}

func TestCorrectRate(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		rate     string
		expected string
	}{
		{"top band keeps rate", 80, "8", "8"},
		{"top band boundary", 51, "8", "8"},
		{"mid band floors at 12", 50, "8", "12"},
		{"mid band keeps higher rate", 40, "13", "13"},
		{"mid band lower boundary", 31, "8", "12"},
		{"low band floors at 16", 30, "8", "16"},
		{"low band keeps higher rate", 20, "18", "18"},
		{"low band lower boundary", 11, "8", "16"},
		{"bottom band keeps rate", 10, "8", "8"},
		{"zero score keeps rate", 0, "8", "8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CorrectRate(tt.score, d(tt.rate))
			assert.True(t, got.Equal(d(tt.expected)),
				"CorrectRate(%d, %s) = %s, want %s", tt.score, tt.rate, got, tt.expected)
		})
	}
}
