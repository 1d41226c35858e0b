// internal/workers/loan/check-eligibility/models.go
package checkeligibility

import (
	"credit-workers/internal/credit"
	"credit-workers/internal/models"

	"github.com/shopspring/decimal"
)

type Input struct {
	CustomerID   int64           `json:"customerId"`
	LoanAmount   decimal.Decimal `json:"loanAmount"`
	TenureMonths int             `json:"tenureMonths"`
	InterestRate decimal.Decimal `json:"interestRate"`
	Profile      credit.Profile  `json:"profile"`
	Loans        []models.Loan   `json:"loans"`
}

type Output struct {
	CustomerID            int64           `json:"customerId"`
	Approved              bool            `json:"approved"`
	CreditScore           int             `json:"creditScore"`
	InterestRate          decimal.Decimal `json:"interestRate"`
	CorrectedInterestRate decimal.Decimal `json:"correctedInterestRate"`
	MonthlyInstallment    decimal.Decimal `json:"monthlyInstallment"`
	Message               string          `json:"message"`
	EvaluatedAt           string          `json:"evaluatedAt"` // ISO 8601
}
