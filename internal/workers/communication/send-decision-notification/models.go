// internal/workers/communication/send-decision-notification/models.go
package senddecisionnotification

import "github.com/shopspring/decimal"

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

type Input struct {
	CustomerID            int64           `json:"customerId"`
	Email                 string          `json:"email,omitempty"` // optional, from process variables
	LoanID                string          `json:"loanId,omitempty"`
	Approved              bool            `json:"approved"`
	Message               string          `json:"message"`
	MonthlyInstallment    decimal.Decimal `json:"monthlyInstallment"`
	CorrectedInterestRate decimal.Decimal `json:"correctedInterestRate"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"` // ISO 8601
}
