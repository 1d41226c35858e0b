// internal/workers/communication/send-decision-notification/config.go
package senddecisionnotification

import "time"

type Config struct {
	Timeout      time.Duration
	AWSRegion    string
	FromEmail    string
	EmailEnabled bool
	SMSEnabled   bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		AWSRegion:    "us-east-1",
		FromEmail:    "no-reply@credit-workers.local",
		EmailEnabled: true,
		SMSEnabled:   true,
	}
}
