// internal/workers/loan/validate-loan-request/models.go
package validateloanrequest

import "github.com/shopspring/decimal"

type Input struct {
	CustomerID   int64           `json:"customerId"`
	LoanAmount   decimal.Decimal `json:"loanAmount"`
	TenureMonths int             `json:"tenureMonths"`
	InterestRate decimal.Decimal `json:"interestRate"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Output struct {
	IsValid          bool              `json:"isValid"`
	CustomerID       int64             `json:"customerId"`
	LoanAmount       decimal.Decimal   `json:"loanAmount"`
	TenureMonths     int               `json:"tenureMonths"`
	InterestRate     decimal.Decimal   `json:"interestRate"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}
