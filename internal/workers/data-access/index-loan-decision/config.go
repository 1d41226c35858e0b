// internal/workers/data-access/index-loan-decision/config.go
package indexloandecision

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Index:   "loan-decisions",
	}
}
