// internal/workers/loan/check-eligibility/handler.go
package checkeligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	commonerrors "credit-workers/internal/common/errors"
	"credit-workers/internal/common/logger"
	"credit-workers/internal/common/metrics"
	"credit-workers/internal/credit"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-eligibility"
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       scoped,
		errorHandler: commonerrors.NewErrorHandler(scoped),
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
		h.failJob(ctx, client, job, commonerrors.NewEligibilityCheckFailedError(fmt.Sprintf("parse input: %v", err)))
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.CustomerID <= 0 {
		return nil, commonerrors.NewEligibilityCheckFailedError("customerId missing from snapshot")
	}
	if input.TenureMonths <= 0 {
		return nil, commonerrors.NewEligibilityCheckFailedError("tenureMonths must be positive")
	}

	evaluatedAt := h.now().UTC()

	req := credit.Request{
		LoanAmount:   input.LoanAmount,
		TenureMonths: input.TenureMonths,
		InterestRate: input.InterestRate,
	}

	// The calendar year is captured once here so the whole evaluation sees a
	// single year even when the job straddles midnight on Dec 31.
	decision := credit.Evaluate(input.Profile, input.Loans, req, evaluatedAt.Year())

	h.logger.Info("eligibility decided", map[string]interface{}{
		"customerId":            input.CustomerID,
		"approved":              decision.Approved,
		"creditScore":           decision.CreditScore,
		"correctedInterestRate": decision.CorrectedInterestRate.String(),
		"monthlyInstallment":    decision.MonthlyInstallment.String(),
		"message":               decision.Message,
	})

	metrics.LoanDecisions.WithLabelValues(
		strconv.FormatBool(decision.Approved),
		scoreBand(decision.CreditScore),
	).Inc()

	return &Output{
		CustomerID:            input.CustomerID,
		Approved:              decision.Approved,
		CreditScore:           decision.CreditScore,
		InterestRate:          decision.InterestRate,
		CorrectedInterestRate: decision.CorrectedInterestRate,
		MonthlyInstallment:    decision.MonthlyInstallment,
		Message:               decision.Message,
		EvaluatedAt:           evaluatedAt.Format(time.RFC3339),
	}, nil
}

func scoreBand(score int) string {
	switch {
	case score > 50:
		return "prime"
	case score > 30:
		return "standard"
	case score > 10:
		return "subprime"
	default:
		return "declined"
	}
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
