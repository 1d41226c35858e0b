// internal/workers/communication/send-decision-notification/handler.go
package senddecisionnotification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	commonaws "credit-workers/internal/common/aws"
	commonerrors "credit-workers/internal/common/errors"
	"credit-workers/internal/common/logger"
	"credit-workers/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-decision-notification"
)

// SES/SNS are hidden behind interfaces for mocking; the common aws wrappers
// satisfy them in production.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config       *Config
	db           *sql.DB
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
	sesClient    SESService
	snsClient    SNSService
	now          func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) (*Handler, error) {
	ctx := context.Background()

	sesClient, err := commonaws.NewSESClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("init SES client: %w", err)
	}
	snsClient, err := commonaws.NewSNSClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("init SNS client: %w", err)
	}

	return NewHandlerWithClients(config, db, sesClient, snsClient, log), nil
}

// NewHandlerWithClients wires explicit SES/SNS implementations; used by tests.
func NewHandlerWithClients(config *Config, db *sql.DB, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		logger:       scoped,
		errorHandler: commonerrors.NewErrorHandler(scoped),
		sesClient:    sesClient,
		snsClient:    snsClient,
		now:          time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, commonerrors.NewNotificationSendFailedError("decision",
			fmt.Errorf("parse input: %w", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	notificationID := uuid.New().String()
	sentAt := h.now().UTC().Format(time.RFC3339)

	firstName, phone, err := h.getCustomerContact(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, commonerrors.NewCustomerNotFoundError(input.CustomerID)
		}
		return nil, commonerrors.NewNotificationSendFailedError("decision",
			fmt.Errorf("load contact for customer %d: %w", input.CustomerID, err))
	}

	subject, body := renderDecision(firstName, input)

	emailSent := false
	smsSent := false

	if h.config.EmailEnabled && input.Email != "" {
		if err := h.sendEmail(ctx, input.Email, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"customerId": input.CustomerID,
				"error":      err,
			})
			return nil, commonerrors.NewNotificationSendFailedError("email", err)
		}
		emailSent = true
	}

	if h.config.SMSEnabled && phone != "" {
		if err := h.sendSMS(ctx, phone, body); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"customerId": input.CustomerID,
				"error":      err,
			})
			return nil, commonerrors.NewNotificationSendFailedError("sms", err)
		}
		smsSent = true
	}

	status := StatusDisabled
	if emailSent || smsSent {
		status = StatusSent
	}

	h.logger.Info("decision notification processed", map[string]interface{}{
		"notificationId": notificationID,
		"customerId":     input.CustomerID,
		"status":         status,
		"emailSent":      emailSent,
		"smsSent":        smsSent,
	})

	return &Output{
		NotificationID: notificationID,
		Status:         status,
		EmailSent:      emailSent,
		SMSSent:        smsSent,
		SentAt:         sentAt,
	}, nil
}

func (h *Handler) getCustomerContact(ctx context.Context, customerID int64) (string, string, error) {
	var firstName string
	var phone sql.NullString

	err := h.db.QueryRowContext(ctx, `
		SELECT first_name, phone_number FROM customers WHERE customer_id = $1`,
		customerID).Scan(&firstName, &phone)
	if err != nil {
		return "", "", err
	}
	return firstName, phone.String, nil
}

// renderDecision builds the subject and body for both channels. The body is
// deliberately identical for email and SMS.
func renderDecision(firstName string, input *Input) (string, string) {
	var subject string
	var b strings.Builder

	greeting := "Hello"
	if firstName != "" {
		greeting = "Hello " + firstName
	}

	if input.Approved {
		subject = "Your loan application has been approved"
		fmt.Fprintf(&b, "%s, good news: %s.", greeting, input.Message)
		fmt.Fprintf(&b, " Monthly installment: %s at %s%% interest.",
			input.MonthlyInstallment.StringFixed(2), input.CorrectedInterestRate)
		if input.LoanID != "" {
			fmt.Fprintf(&b, " Loan reference: %s.", input.LoanID)
		}
	} else {
		subject = "Your loan application decision"
		fmt.Fprintf(&b, "%s, we are unable to approve your loan application at this time. Reason: %s.",
			greeting, input.Message)
	}

	return subject, b.String()
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, commonerrors.CodeOf(err)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
