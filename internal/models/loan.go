// internal/models/loan.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan represents one historical or active loan on a customer's record.
type Loan struct {
	LoanID             string          `json:"loanId"`
	CustomerID         int64           `json:"customerId"`
	LoanAmount         decimal.Decimal `json:"loanAmount"`
	TenureMonths       int             `json:"tenureMonths"`
	InterestRate       decimal.Decimal `json:"interestRate"`
	MonthlyInstallment decimal.Decimal `json:"monthlyInstallment"`
	EMIsPaidOnTime     int             `json:"emisPaidOnTime"`
	DateOfApproval     *time.Time      `json:"dateOfApproval,omitempty"`
	EndDate            *time.Time      `json:"endDate,omitempty"`
}

// IsActive reports whether the loan still has unpaid installments.
func (l Loan) IsActive() bool {
	return l.EMIsPaidOnTime < l.TenureMonths
}

// RemainingEMIs returns the count of installments still owed.
func (l Loan) RemainingEMIs() int {
	if remaining := l.TenureMonths - l.EMIsPaidOnTime; remaining > 0 {
		return remaining
	}
	return 0
}

// RemainingAmount returns installment x remaining installments, the loan's
// contribution to the customer's current debt.
func (l Loan) RemainingAmount() decimal.Decimal {
	return l.MonthlyInstallment.Mul(decimal.NewFromInt(int64(l.RemainingEMIs())))
}
