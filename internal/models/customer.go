// internal/models/customer.go
package models

import "github.com/shopspring/decimal"

// Customer represents a credit applicant or existing borrower.
type Customer struct {
	CustomerID    int64           `json:"customerId"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Age           int             `json:"age"`
	PhoneNumber   string          `json:"phoneNumber,omitempty"`
	MonthlySalary decimal.Decimal `json:"monthlySalary"`
	ApprovedLimit decimal.Decimal `json:"approvedLimit"`
	CurrentDebt   decimal.Decimal `json:"currentDebt"`
	CreatedAt     string          `json:"createdAt,omitempty"`
	UpdatedAt     string          `json:"updatedAt,omitempty"`
}
