// internal/workers/customer/register-customer/handler.go
package registercustomer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	commonerrors "credit-workers/internal/common/errors"
	"credit-workers/internal/common/logger"
	"credit-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/shopspring/decimal"
)

const (
	TaskType = "register-customer"
)

var lakh = decimal.NewFromInt(100000)

type Handler struct {
	config       *Config
	db           *sql.DB
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		logger:       scoped,
		errorHandler: commonerrors.NewErrorHandler(scoped),
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
		h.failJob(ctx, client, job, commonerrors.NewLoanValidationFailedError(fmt.Sprintf("parse input: %v", err)))
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
	if err := h.validate(input); err != nil {
		return nil, err
	}

	var exists bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM customers WHERE phone_number = $1)`,
		input.PhoneNumber).Scan(&exists)
	if err != nil {
		return nil, commonerrors.NewDatabaseConnectionFailedError(fmt.Errorf("duplicate check: %w", err))
	}
	if exists {
		return nil, commonerrors.NewDuplicateCustomerError(
			fmt.Sprintf("phoneNumber: %s", input.PhoneNumber))
	}

	approvedLimit := ApprovedLimit(input.MonthlyIncome, h.config.ApprovedLimitFactor)

	var customerID int64
	err = h.db.QueryRowContext(ctx, `
		INSERT INTO customers (
			first_name, last_name, age, phone_number,
			monthly_salary, approved_limit, current_debt
		) VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING customer_id`,
		input.FirstName,
		input.LastName,
		input.Age,
		input.PhoneNumber,
		input.MonthlyIncome,
		approvedLimit,
	).Scan(&customerID)
	if err != nil {
		return nil, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("insert customer: %w", err))
	}

	h.logger.Info("customer registered", map[string]interface{}{
		"customerId":    customerID,
		"approvedLimit": approvedLimit.String(),
	})

	return &Output{
		CustomerID:    customerID,
		Name:          strings.TrimSpace(input.FirstName + " " + input.LastName),
		Age:           input.Age,
		MonthlyIncome: input.MonthlyIncome,
		ApprovedLimit: approvedLimit,
		PhoneNumber:   input.PhoneNumber,
	}, nil
}

func (h *Handler) validate(input *Input) error {
	var problems []string

	if strings.TrimSpace(input.FirstName) == "" {
		problems = append(problems, "firstName is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		problems = append(problems, "lastName is required")
	}
	if input.Age < 18 || input.Age > 120 {
		problems = append(problems, "age must be between 18 and 120")
	}
	if !input.MonthlyIncome.IsPositive() {
		problems = append(problems, "monthlyIncome must be positive")
	}
	if strings.TrimSpace(input.PhoneNumber) == "" {
		problems = append(problems, "phoneNumber is required")
	}

	if len(problems) > 0 {
		return commonerrors.NewLoanValidationFailedError(strings.Join(problems, "; "))
	}
	return nil
}

// ApprovedLimit computes the starting credit limit: factor x monthly salary,
// rounded to the nearest lakh (ties away from zero).
func ApprovedLimit(monthlySalary decimal.Decimal, factor int64) decimal.Decimal {
	raw := monthlySalary.Mul(decimal.NewFromInt(factor))
	return raw.Div(lakh).Round(0).Mul(lakh)
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
