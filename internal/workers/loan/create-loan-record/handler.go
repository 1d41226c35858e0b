// internal/workers/loan/create-loan-record/handler.go
package createloanrecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "credit-workers/internal/common/errors"
	"credit-workers/internal/common/logger"
	"credit-workers/internal/common/metrics"
	fetchcreditprofile "credit-workers/internal/workers/loan/fetch-credit-profile"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	TaskType = "create-loan-record"
)

type Handler struct {
	config       *Config
	db           *sql.DB
	cache        *redis.Client
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
	now          func() time.Time
}

// NewHandler builds the loan writer. cache may be nil; invalidation is then a
// no-op and the next fetch-credit-profile job reads through to Postgres.
func NewHandler(config *Config, db *sql.DB, cache *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		cache:        cache,
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
		h.failJob(ctx, client, job, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("parse input: %w", err)))
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
	if !input.Approved {
		return nil, commonerrors.NewLoanNotApprovedError(
			fmt.Sprintf("customerId: %d", input.CustomerID))
	}

	loanID := uuid.New().String()
	startDate := h.now().UTC()
	endDate := startDate.AddDate(0, input.TenureMonths, 0)

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, commonerrors.NewDatabaseConnectionFailedError(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO loans (
			loan_id, customer_id, loan_amount, tenure_months, interest_rate,
			monthly_installment, emis_paid_on_time, date_of_approval, end_date
		) VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)`,
		loanID,
		input.CustomerID,
		input.LoanAmount,
		input.TenureMonths,
		input.CorrectedInterestRate,
		input.MonthlyInstallment,
		startDate,
		endDate,
	)
	if err != nil {
		return nil, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("insert loan: %w", err))
	}

	// The customer's exposure is the sum of installment x remaining EMIs over
	// active loans, including the one just inserted. Recomputed inside the
	// same transaction so the exposure gate never sees a stale figure.
	currentDebt, err := h.recomputeDebt(ctx, tx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE customers SET current_debt = $1 WHERE customer_id = $2`,
		currentDebt, input.CustomerID)
	if err != nil {
		return nil, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("update current debt: %w", err))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, commonerrors.NewCustomerNotFoundError(input.CustomerID)
	}

	if err := tx.Commit(); err != nil {
		return nil, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("commit: %w", err))
	}

	h.invalidateCache(ctx, input.CustomerID)

	h.logger.Info("loan record created", map[string]interface{}{
		"loanId":             loanID,
		"customerId":         input.CustomerID,
		"monthlyInstallment": input.MonthlyInstallment.String(),
		"currentDebt":        currentDebt.String(),
	})

	return &Output{
		LoanID:             loanID,
		CustomerID:         input.CustomerID,
		MonthlyInstallment: input.MonthlyInstallment,
		CurrentDebt:        currentDebt,
		StartDate:          startDate.Format(time.RFC3339),
		EndDate:            endDate.Format(time.RFC3339),
	}, nil
}

func (h *Handler) recomputeDebt(ctx context.Context, tx *sql.Tx, customerID int64) (decimal.Decimal, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT monthly_installment, tenure_months, emis_paid_on_time
		FROM loans
		WHERE customer_id = $1 AND emis_paid_on_time < tenure_months`, customerID)
	if err != nil {
		return decimal.Zero, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("load active loans: %w", err))
	}
	defer rows.Close()

	debt := decimal.Zero
	for rows.Next() {
		var installment decimal.Decimal
		var tenure, paid int
		if err := rows.Scan(&installment, &tenure, &paid); err != nil {
			return decimal.Zero, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("scan active loan: %w", err))
		}
		debt = debt.Add(installment.Mul(decimal.NewFromInt(int64(tenure - paid))))
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("iterate active loans: %w", err))
	}

	return debt, nil
}

// invalidateCache is best effort: a failed delete leaves a snapshot that
// expires within the cache TTL anyway.
func (h *Handler) invalidateCache(ctx context.Context, customerID int64) {
	if h.cache == nil {
		return
	}

	if err := h.cache.Del(ctx, fetchcreditprofile.CacheKey(customerID)).Err(); err != nil {
		h.logger.Warn("cache invalidation failed", map[string]interface{}{
			"customerId": customerID,
			"error":      err,
		})
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
