// internal/workers/loan/create-loan-record/models.go
package createloanrecord

import "github.com/shopspring/decimal"

type Input struct {
	CustomerID            int64           `json:"customerId"`
	LoanAmount            decimal.Decimal `json:"loanAmount"`
	TenureMonths          int             `json:"tenureMonths"`
	CorrectedInterestRate decimal.Decimal `json:"correctedInterestRate"`
	MonthlyInstallment    decimal.Decimal `json:"monthlyInstallment"`
	Approved              bool            `json:"approved"`
}

type Output struct {
	LoanID             string          `json:"loanId"`
	CustomerID         int64           `json:"customerId"`
	MonthlyInstallment decimal.Decimal `json:"monthlyInstallment"`
	CurrentDebt        decimal.Decimal `json:"currentDebt"`
	StartDate          string          `json:"startDate"` // ISO 8601
	EndDate            string          `json:"endDate"`   // ISO 8601
}
