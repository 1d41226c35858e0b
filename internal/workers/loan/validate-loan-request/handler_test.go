// internal/workers/loan/validate-loan-request/handler_test.go
package validateloanrequest

import (
	"context"
	"testing"

	commonerrors "credit-workers/internal/common/errors"
	"credit-workers/internal/common/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *Handler {
	h, err := NewHandler(LoadConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func validInput() *Input {
	return &Input{
		CustomerID:   42,
		LoanAmount:   decimal.NewFromInt(100000),
		TenureMonths: 12,
		InterestRate: decimal.NewFromFloat(10.5),
	}
}

func TestHandler_Execute_ValidRequest(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.True(t, output.IsValid)
	assert.Equal(t, int64(42), output.CustomerID)
	assert.Equal(t, "100000", output.LoanAmount.String())
	assert.Equal(t, 12, output.TenureMonths)
	assert.Empty(t, output.ValidationErrors)
}

func TestHandler_Execute_RangeViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"amount below minimum", func(i *Input) { i.LoanAmount = decimal.NewFromInt(9999) }, "loanAmount"},
		{"amount above maximum", func(i *Input) { i.LoanAmount = decimal.NewFromInt(10000001) }, "loanAmount"},
		{"zero tenure", func(i *Input) { i.TenureMonths = 0 }, "tenureMonths"},
		{"tenure above maximum", func(i *Input) { i.TenureMonths = 601 }, "tenureMonths"},
		{"negative rate", func(i *Input) { i.InterestRate = decimal.NewFromInt(-1) }, "interestRate"},
		{"rate above 100", func(i *Input) { i.InterestRate = decimal.NewFromInt(101) }, "interestRate"},
		{"missing customer id", func(i *Input) { i.CustomerID = 0 }, "customerId"},
	}

	handler := newTestHandler(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)

			output, err := handler.Execute(context.Background(), input)

			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, "LOAN_VALIDATION_FAILED", commonerrors.CodeOf(err))
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestHandler_Execute_BoundaryValues(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name  string
		input *Input
	}{
		{
			name: "minimum amount and tenure",
			input: &Input{
				CustomerID:   1,
				LoanAmount:   decimal.NewFromInt(10000),
				TenureMonths: 1,
				InterestRate: decimal.Zero,
			},
		},
		{
			name: "maximum amount tenure and rate",
			input: &Input{
				CustomerID:   1,
				LoanAmount:   decimal.NewFromInt(10000000),
				TenureMonths: 600,
				InterestRate: decimal.NewFromInt(100),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.True(t, output.IsValid)
		})
	}
}

func TestHandler_ValidateSchema(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name      string
		variables string
		valid     bool
	}{
		{
			name:      "well formed numbers",
			variables: `{"customerId": 42, "loanAmount": 100000, "tenureMonths": 12, "interestRate": 10.5}`,
			valid:     true,
		},
		{
			name:      "amounts as numeric strings",
			variables: `{"customerId": 42, "loanAmount": "100000", "tenureMonths": 12, "interestRate": "10.5"}`,
			valid:     true,
		},
		{
			name:      "missing interest rate",
			variables: `{"customerId": 42, "loanAmount": 100000, "tenureMonths": 12}`,
			valid:     false,
		},
		{
			name:      "customer id as string",
			variables: `{"customerId": "42", "loanAmount": 100000, "tenureMonths": 12, "interestRate": 10.5}`,
			valid:     false,
		},
		{
			name:      "fractional tenure",
			variables: `{"customerId": 42, "loanAmount": 100000, "tenureMonths": 12.5, "interestRate": 10.5}`,
			valid:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handler.ValidateSchema(tt.variables)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, "LOAN_VALIDATION_FAILED", commonerrors.CodeOf(err))
			}
		})
	}
}
