// internal/workers/loan/validate-loan-request/config.go
package validateloanrequest

import (
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Timeout         time.Duration
	MinLoanAmount   decimal.Decimal
	MaxLoanAmount   decimal.Decimal
	MaxTenureMonths int
	MaxInterestRate decimal.Decimal
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		MinLoanAmount:   decimal.NewFromInt(10000),
		MaxLoanAmount:   decimal.NewFromInt(10000000),
		MaxTenureMonths: 600,
		MaxInterestRate: decimal.NewFromInt(100),
	}
}
