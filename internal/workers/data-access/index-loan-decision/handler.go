// internal/workers/data-access/index-loan-decision/handler.go
package indexloandecision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	commonerrors "credit-workers/internal/common/errors"
	"credit-workers/internal/common/logger"
	"credit-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
)

const (
	TaskType = "index-loan-decision"
)

type Handler struct {
	config       *Config
	client       *elasticsearch.Client
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		client:       client,
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
		h.failJob(ctx, client, job, commonerrors.NewDecisionIndexFailedError(fmt.Errorf("parse input: %w", err)))
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
	if input.CustomerID <= 0 {
		return nil, commonerrors.NewDecisionIndexFailedError(fmt.Errorf("customerId missing from decision"))
	}

	documentID := uuid.New().String()
	doc := buildDocument(input, h.now().UTC())

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, commonerrors.NewDecisionIndexFailedError(fmt.Errorf("marshal document: %w", err))
	}

	res, err := h.client.Index(
		h.config.Index,
		bytes.NewReader(body),
		h.client.Index.WithContext(ctx),
		h.client.Index.WithDocumentID(documentID),
	)
	if err != nil {
		return nil, commonerrors.NewDecisionIndexFailedError(fmt.Errorf("index request: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return nil, commonerrors.NewIndexNotFoundError(h.config.Index)
		}
		return nil, commonerrors.NewDecisionIndexFailedError(
			fmt.Errorf("index response: %s", res.String()))
	}

	h.logger.Info("decision indexed", map[string]interface{}{
		"documentId": documentID,
		"customerId": input.CustomerID,
		"approved":   input.Approved,
	})

	return &Output{
		DocumentID: documentID,
		Index:      h.config.Index,
		Indexed:    true,
	}, nil
}

// buildDocument flattens the decision into the audit document shape. Money
// fields are serialized as strings so the index mapping never coerces them
// into lossy floats.
func buildDocument(input *Input, indexedAt time.Time) map[string]interface{} {
	doc := map[string]interface{}{
		"customerId":            input.CustomerID,
		"approved":              input.Approved,
		"creditScore":           input.CreditScore,
		"interestRate":          input.InterestRate.String(),
		"correctedInterestRate": input.CorrectedInterestRate.String(),
		"monthlyInstallment":    input.MonthlyInstallment.String(),
		"message":               input.Message,
		"evaluatedAt":           input.EvaluatedAt,
		"indexedAt":             indexedAt.Format(time.RFC3339),
	}
	if input.LoanID != "" {
		doc["loanId"] = input.LoanID
	}
	return doc
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
