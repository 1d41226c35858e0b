// internal/credit/emi_test.go
package credit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMonthlyInstallment(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		tenure    int
		expected  string
	}{
		{
			name:      "standard loan one year",
			principal: "100000",
			rate:      "12",
			tenure:    12,
			expected:  "8884.88",
		},
		{
			name:      "standard loan two years",
			principal: "100000",
			rate:      "12",
			tenure:    24,
			expected:  "4707.35",
		},
		{
			name:      "five year loan at corrected rate",
			principal: "500000",
			rate:      "16",
			tenure:    60,
			expected:  "12159.03",
		},
		{
			name:      "fractional annual rate",
			principal: "100000",
			rate:      "10.5",
			tenure:    12,
			expected:  "8814.86",
		},
		{
			name:      "zero rate falls back to straight-line",
			principal: "100000",
			rate:      "0",
			tenure:    12,
			expected:  "8333.33",
		},
		{
			name:      "zero rate with repeating decimal",
			principal: "100000",
			rate:      "0",
			tenure:    3,
			expected:  "33333.33",
		},
		{
			name:      "zero tenure yields zero",
			principal: "100000",
			rate:      "12",
			tenure:    0,
			expected:  "0.00",
		},
		{
			name:      "half cent rounds away from zero",
			principal: "200.01",
			rate:      "0",
			tenure:    2,
			expected:  "100.01",
		},
		{
			name:      "short tenure",
			principal: "50000",
			rate:      "12",
			tenure:    10,
			expected:  "5279.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyInstallment(d(tt.principal), d(tt.rate), tt.tenure)
			assert.Equal(t, tt.expected, got.StringFixed(2))
		})
	}
}

func TestMonthlyInstallmentAlwaysTwoDecimalPlaces(t *testing.T) {
	got := MonthlyInstallment(d("1000"), d("0"), 16)
	assert.Equal(t, "62.50", got.StringFixed(2))
	assert.True(t, got.Exponent() >= -2, "EMI must not carry sub-cent precision")
}
