// internal/workers/loan/fetch-credit-profile/models.go
package fetchcreditprofile

import (
	"credit-workers/internal/credit"
	"credit-workers/internal/models"
)

type Input struct {
	CustomerID int64 `json:"customerId"`
}

type Output struct {
	CustomerID int64          `json:"customerId"`
	Profile    credit.Profile `json:"profile"`
	Loans      []models.Loan  `json:"loans"`
	FromCache  bool           `json:"fromCache"`
}

// snapshot is the cached materialization of a customer's credit state.
type snapshot struct {
	Profile credit.Profile `json:"profile"`
	Loans   []models.Loan  `json:"loans"`
}
