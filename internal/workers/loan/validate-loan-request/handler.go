// internal/workers/loan/validate-loan-request/handler.go
package validateloanrequest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "credit-workers/internal/common/errors"
	"credit-workers/internal/common/logger"
	"credit-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"
)

const (
	TaskType = "validate-loan-request"
)

// requestSchema rejects structurally broken requests before the range rules
// run. Amounts and rates arrive as JSON numbers or numeric strings; decimal
// parsing happens at unmarshal time, so the schema only pins types and
// required fields.
const requestSchema = `{
	"type": "object",
	"required": ["customerId", "loanAmount", "tenureMonths", "interestRate"],
	"properties": {
		"customerId":   {"type": "integer", "minimum": 1},
		"loanAmount":   {"type": ["number", "string"]},
		"tenureMonths": {"type": "integer"},
		"interestRate": {"type": ["number", "string"]}
	}
}`

type Handler struct {
	config       *Config
	schema       *gojsonschema.Schema
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}

	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		schema:       schema,
		logger:       scoped,
		errorHandler: commonerrors.NewErrorHandler(scoped),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if err := h.validateSchema(job.Variables); err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

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

func (h *Handler) validateSchema(variables string) error {
	result, err := h.schema.Validate(gojsonschema.NewStringLoader(variables))
	if err != nil {
		return commonerrors.NewLoanValidationFailedError(fmt.Sprintf("schema validation: %v", err))
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return commonerrors.NewLoanValidationFailedError(fmt.Sprintf("schema violations: %v", details))
	}
	return nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	var validationErrors []ValidationError

	if input.CustomerID <= 0 {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "customerId",
			Code:    "MISSING_REQUIRED",
			Message: "customerId must be a positive integer",
		})
	}

	if input.LoanAmount.LessThan(h.config.MinLoanAmount) || input.LoanAmount.GreaterThan(h.config.MaxLoanAmount) {
		validationErrors = append(validationErrors, ValidationError{
			Field: "loanAmount",
			Code:  "OUT_OF_RANGE",
			Message: fmt.Sprintf("loanAmount must be between %s and %s",
				h.config.MinLoanAmount, h.config.MaxLoanAmount),
		})
	}

	if input.TenureMonths < 1 || input.TenureMonths > h.config.MaxTenureMonths {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "tenureMonths",
			Code:    "OUT_OF_RANGE",
			Message: fmt.Sprintf("tenureMonths must be between 1 and %d", h.config.MaxTenureMonths),
		})
	}

	if input.InterestRate.IsNegative() || input.InterestRate.GreaterThan(h.config.MaxInterestRate) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "interestRate",
			Code:    "OUT_OF_RANGE",
			Message: fmt.Sprintf("interestRate must be between 0 and %s", h.config.MaxInterestRate),
		})
	}

	if len(validationErrors) > 0 {
		h.logger.Info("validation failed", map[string]interface{}{
			"customerId": input.CustomerID,
			"errorCount": len(validationErrors),
		})
		detail, _ := json.Marshal(validationErrors)
		return nil, commonerrors.NewLoanValidationFailedError(string(detail))
	}

	return &Output{
		IsValid:          true,
		CustomerID:       input.CustomerID,
		LoanAmount:       input.LoanAmount,
		TenureMonths:     input.TenureMonths,
		InterestRate:     input.InterestRate,
		ValidationErrors: []ValidationError{},
	}, nil
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

// ValidateSchema is exported for tests.
func (h *Handler) ValidateSchema(variables string) error {
	return h.validateSchema(variables)
}
