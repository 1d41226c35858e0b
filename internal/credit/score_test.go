// internal/credit/score_test.go
package credit

import (
	"testing"
	"time"

	"credit-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func approvedOn(year int) *time.Time {
	ts := time.Date(year, time.March, 15, 0, 0, 0, 0, time.UTC)
	return &ts
}

func TestScoreNoHistory(t *testing.T) {
	profile := Profile{
		ApprovedLimit: d("1800000"),
		CurrentDebt:   d("0"),
		MonthlySalary: d("50000"),
	}

	assert.Equal(t, 50, Score(profile, nil, 2026))
	assert.Equal(t, 50, Score(profile, []models.Loan{}, 2026))
}

func TestScorePerfectHistory(t *testing.T) {
	// Twelve fully repaid loans from prior years: full payment history, loan
	// count component exhausted, no current-year activity, zero utilization.
	loans := make([]models.Loan, 12)
	for i := range loans {
		loans[i] = models.Loan{
			TenureMonths:   12,
			EMIsPaidOnTime: 12,
			DateOfApproval: approvedOn(2020 + i%5),
		}
	}

	profile := Profile{
		ApprovedLimit: d("100000"),
		CurrentDebt:   d("0"),
		MonthlySalary: d("50000"),
	}

	// 40 (payment) + 0 (count capped) + 20 (year) + 20 (volume) = 80
	assert.Equal(t, 80, Score(profile, loans, 2026))
}

func TestScoreMixedHistoryTruncates(t *testing.T) {
	loans := []models.Loan{
		{TenureMonths: 12, EMIsPaidOnTime: 10, DateOfApproval: approvedOn(2024)},
		{TenureMonths: 24, EMIsPaidOnTime: 18, DateOfApproval: approvedOn(2026)},
	}

	profile := Profile{
		ApprovedLimit: d("100000"),
		CurrentDebt:   d("40000"),
		MonthlySalary: d("50000"),
	}

	// payment 28/36*40 = 31.11, count 20-4 = 16, year 20-4 = 16,
	// volume (1-0.4)*20 = 12. Sum 75.11 truncates to 75.
	assert.Equal(t, 75, Score(profile, loans, 2026))
}

func TestPaymentHistoryScore(t *testing.T) {
	tests := []struct {
		name     string
		loans    []models.Loan
		expected float64
	}{
		{
			name: "all on time",
			loans: []models.Loan{
				{TenureMonths: 12, EMIsPaidOnTime: 12},
				{TenureMonths: 6, EMIsPaidOnTime: 6},
			},
			expected: 40,
		},
		{
			name: "half on time",
			loans: []models.Loan{
				{TenureMonths: 10, EMIsPaidOnTime: 5},
				{TenureMonths: 10, EMIsPaidOnTime: 5},
			},
			expected: 20,
		},
		{
			name: "none on time",
			loans: []models.Loan{
				{TenureMonths: 12, EMIsPaidOnTime: 0},
			},
			expected: 0,
		},
		{
			name: "zero total tenure scores half weight",
			loans: []models.Loan{
				{TenureMonths: 0, EMIsPaidOnTime: 0},
			},
			expected: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, PaymentHistoryScore(tt.loans), 1e-9)
		})
	}
}

func TestLoanCountScore(t *testing.T) {
	assert.InDelta(t, 20.0, LoanCountScore(0), 1e-9)
	assert.InDelta(t, 18.0, LoanCountScore(1), 1e-9)
	assert.InDelta(t, 10.0, LoanCountScore(5), 1e-9)
	assert.InDelta(t, 2.0, LoanCountScore(9), 1e-9)
	assert.InDelta(t, 0.0, LoanCountScore(10), 1e-9)
	assert.InDelta(t, 0.0, LoanCountScore(50), 1e-9)
}

func TestCurrentYearScore(t *testing.T) {
	loans := []models.Loan{
		{DateOfApproval: approvedOn(2026)},
		{DateOfApproval: approvedOn(2026)},
		{DateOfApproval: approvedOn(2025)},
		{DateOfApproval: nil},
	}

	// Two approvals in 2026: 20 - 2*4 = 12.
	assert.InDelta(t, 12.0, CurrentYearScore(loans, 2026), 1e-9)
	// Only one in 2025.
	assert.InDelta(t, 16.0, CurrentYearScore(loans, 2025), 1e-9)
	// None in 2024.
	assert.InDelta(t, 20.0, CurrentYearScore(loans, 2024), 1e-9)

	// Five or more exhausts the component.
	busy := make([]models.Loan, 6)
	for i := range busy {
		busy[i] = models.Loan{DateOfApproval: approvedOn(2026)}
	}
	assert.InDelta(t, 0.0, CurrentYearScore(busy, 2026), 1e-9)
}

func TestVolumeScore(t *testing.T) {
	tests := []struct {
		name     string
		limit    string
		debt     string
		expected float64
	}{
		{"zero utilization", "100000", "0", 20},
		{"forty percent utilization", "100000", "40000", 12},
		{"at the limit", "100000", "100000", 0},
		{"over the limit", "100000", "150000", 0},
		{"zero limit", "0", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := Profile{ApprovedLimit: d(tt.limit), CurrentDebt: d(tt.debt)}
			assert.InDelta(t, tt.expected, VolumeScore(profile), 1e-9)
		})
	}
}
