// internal/workers/data-access/index-loan-decision/models.go
package indexloandecision

import "github.com/shopspring/decimal"

type Input struct {
	CustomerID            int64           `json:"customerId"`
	LoanID                string          `json:"loanId,omitempty"` // empty for rejections
	Approved              bool            `json:"approved"`
	CreditScore           int             `json:"creditScore"`
	InterestRate          decimal.Decimal `json:"interestRate"`
	CorrectedInterestRate decimal.Decimal `json:"correctedInterestRate"`
	MonthlyInstallment    decimal.Decimal `json:"monthlyInstallment"`
	Message               string          `json:"message"`
	EvaluatedAt           string          `json:"evaluatedAt"`
}

type Output struct {
	DocumentID string `json:"documentId"`
	Index      string `json:"index"`
	Indexed    bool   `json:"indexed"`
}
