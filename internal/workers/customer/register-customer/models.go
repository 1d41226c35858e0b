// internal/workers/customer/register-customer/models.go
package registercustomer

import "github.com/shopspring/decimal"

type Input struct {
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Age           int             `json:"age"`
	MonthlyIncome decimal.Decimal `json:"monthlyIncome"`
	PhoneNumber   string          `json:"phoneNumber"`
}

type Output struct {
	CustomerID    int64           `json:"customerId"`
	Name          string          `json:"name"`
	Age           int             `json:"age"`
	MonthlyIncome decimal.Decimal `json:"monthlyIncome"`
	ApprovedLimit decimal.Decimal `json:"approvedLimit"`
	PhoneNumber   string          `json:"phoneNumber"`
}
