// internal/workers/loan/fetch-credit-profile/handler.go
package fetchcreditprofile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commonerrors "credit-workers/internal/common/errors"
	"credit-workers/internal/common/logger"
	"credit-workers/internal/common/metrics"
	"credit-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "fetch-credit-profile"
)

type Handler struct {
	config       *Config
	db           *sql.DB
	cache        *redis.Client
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

// NewHandler builds the profile loader. cache may be nil, which disables the
// snapshot cache and reads straight through to Postgres.
func NewHandler(config *Config, db *sql.DB, cache *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		cache:        cache,
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
		h.failJob(ctx, client, job, commonerrors.NewProfileFetchFailedError(fmt.Errorf("parse input: %w", err)))
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
		return nil, commonerrors.NewCustomerNotFoundError(input.CustomerID)
	}

	if snap, ok := h.fromCache(ctx, input.CustomerID); ok {
		h.logger.Debug("profile served from cache", map[string]interface{}{
			"customerId": input.CustomerID,
		})
		return &Output{
			CustomerID: input.CustomerID,
			Profile:    snap.Profile,
			Loans:      snap.Loans,
			FromCache:  true,
		}, nil
	}

	snap, err := h.loadSnapshot(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	h.storeInCache(ctx, input.CustomerID, snap)

	return &Output{
		CustomerID: input.CustomerID,
		Profile:    snap.Profile,
		Loans:      snap.Loans,
		FromCache:  false,
	}, nil
}

func (h *Handler) loadSnapshot(ctx context.Context, customerID int64) (*snapshot, error) {
	var snap snapshot

	err := h.db.QueryRowContext(ctx, `
		SELECT monthly_salary, approved_limit, current_debt
		FROM customers
		WHERE customer_id = $1`, customerID).
		Scan(&snap.Profile.MonthlySalary, &snap.Profile.ApprovedLimit, &snap.Profile.CurrentDebt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commonerrors.NewCustomerNotFoundError(customerID)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, commonerrors.NewQueryTimeoutError("customer-profile")
		}
		return nil, commonerrors.NewProfileFetchFailedError(fmt.Errorf("load customer %d: %w", customerID, err))
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT loan_id, loan_amount, tenure_months, interest_rate,
		       monthly_installment, emis_paid_on_time, date_of_approval, end_date
		FROM loans
		WHERE customer_id = $1
		ORDER BY date_of_approval NULLS LAST`, customerID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, commonerrors.NewQueryTimeoutError("loan-history")
		}
		return nil, commonerrors.NewProfileFetchFailedError(fmt.Errorf("load loans for customer %d: %w", customerID, err))
	}
	defer rows.Close()

	snap.Loans = []models.Loan{}
	for rows.Next() {
		var loan models.Loan
		var approvedAt, endsAt sql.NullTime

		err := rows.Scan(&loan.LoanID, &loan.LoanAmount, &loan.TenureMonths, &loan.InterestRate,
			&loan.MonthlyInstallment, &loan.EMIsPaidOnTime, &approvedAt, &endsAt)
		if err != nil {
			return nil, commonerrors.NewProfileFetchFailedError(fmt.Errorf("scan loan row: %w", err))
		}

		loan.CustomerID = customerID
		if approvedAt.Valid {
			ts := approvedAt.Time
			loan.DateOfApproval = &ts
		}
		if endsAt.Valid {
			ts := endsAt.Time
			loan.EndDate = &ts
		}
		snap.Loans = append(snap.Loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewProfileFetchFailedError(fmt.Errorf("iterate loan rows: %w", err))
	}

	return &snap, nil
}

func (h *Handler) fromCache(ctx context.Context, customerID int64) (*snapshot, bool) {
	if h.cache == nil {
		return nil, false
	}

	raw, err := h.cache.Get(ctx, cacheKey(customerID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("cache read failed", map[string]interface{}{
				"customerId": customerID,
				"error":      err,
			})
		}
		return nil, false
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		h.logger.Warn("cache entry corrupted, falling back to database", map[string]interface{}{
			"customerId": customerID,
			"error":      err,
		})
		return nil, false
	}
	return &snap, true
}

// storeInCache is best effort: a cache write failure never fails the job.
func (h *Handler) storeInCache(ctx context.Context, customerID int64, snap *snapshot) {
	if h.cache == nil {
		return
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		h.logger.Warn("marshal snapshot for cache failed", map[string]interface{}{
			"customerId": customerID,
			"error":      err,
		})
		return
	}

	if err := h.cache.Set(ctx, cacheKey(customerID), raw, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("cache write failed", map[string]interface{}{
			"customerId": customerID,
			"error":      err,
		})
	}
}

// CacheKey returns the redis key for a customer's credit snapshot. Shared with
// create-loan-record, which invalidates it after every approved loan.
func CacheKey(customerID int64) string {
	return cacheKey(customerID)
}

func cacheKey(customerID int64) string {
	return fmt.Sprintf("credit-profile:%d", customerID)
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
