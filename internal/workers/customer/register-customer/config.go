// internal/workers/customer/register-customer/config.go
package registercustomer

import "time"

type Config struct {
	Timeout time.Duration

	// ApprovedLimitFactor is the salary multiple that sets a new customer's
	// credit limit before rounding to the nearest lakh.
	ApprovedLimitFactor int64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:             10 * time.Second,
		ApprovedLimitFactor: 36,
	}
}
