// internal/workers/loan/create-loan-record/handler_test.go
package createloanrecord

import (
	"context"
	"errors"
	"testing"
	"time"

	commonerrors "credit-workers/internal/common/errors"
	"credit-workers/internal/common/logger"
	fetchcreditprofile "credit-workers/internal/workers/loan/fetch-credit-profile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func approvedInput() *Input {
	return &Input{
		CustomerID:            42,
		LoanAmount:            d("100000"),
		TenureMonths:          12,
		CorrectedInterestRate: d("12"),
		MonthlyInstallment:    d("8884.88"),
		Approved:              true,
	}
}

func TestHandler_Execute_CreatesLoanAndRecomputesDebt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO loans`).
		WithArgs(
			sqlmock.AnyArg(), // loan id (UUID)
			int64(42),
			sqlmock.AnyArg(), // loan amount
			12,
			sqlmock.AnyArg(), // corrected rate
			sqlmock.AnyArg(), // installment
			sqlmock.AnyArg(), // date of approval
			sqlmock.AnyArg(), // end date
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT monthly_installment, tenure_months, emis_paid_on_time`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"monthly_installment", "tenure_months", "emis_paid_on_time"}).
			AddRow("8884.88", 12, 0).
			AddRow("5000", 24, 18))
	mock.ExpectExec(`UPDATE customers SET current_debt`).
		WithArgs(sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	handler := NewHandler(LoadConfig(), db, nil, logger.NewTestLogger(t))
	handler.now = func() time.Time {
		return time.Date(2026, time.August, 23, 0, 0, 0, 0, time.UTC)
	}

	output, err := handler.Execute(context.Background(), approvedInput())

	require.NoError(t, err)
	assert.NotEmpty(t, output.LoanID)
	assert.Contains(t, output.LoanID, "-")
	assert.Equal(t, int64(42), output.CustomerID)
	// 8884.88 x 12 remaining + 5000 x 6 remaining
	assert.Equal(t, "136618.56", output.CurrentDebt.StringFixed(2))
	assert.Equal(t, "2026-08-23T00:00:00Z", output.StartDate)
	assert.Equal(t, "2027-08-23T00:00:00Z", output.EndDate)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NotApproved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := NewHandler(LoadConfig(), db, nil, logger.NewTestLogger(t))

	input := approvedInput()
	input.Approved = false

	output, err := handler.Execute(context.Background(), input)

	require.Error(t, err)
	assert.Nil(t, output)
	assert.Equal(t, "LOAN_NOT_APPROVED", commonerrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO loans`).
		WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	handler := NewHandler(LoadConfig(), db, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), approvedInput())

	require.Error(t, err)
	assert.Nil(t, output)
	assert.Equal(t, "DATABASE_INSERT_FAILED", commonerrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_UnknownCustomer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO loans`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT monthly_installment, tenure_months, emis_paid_on_time`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"monthly_installment", "tenure_months", "emis_paid_on_time"}))
	mock.ExpectExec(`UPDATE customers SET current_debt`).
		WithArgs(sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	handler := NewHandler(LoadConfig(), db, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), approvedInput())

	require.Error(t, err)
	assert.Nil(t, output)
	assert.Equal(t, "CUSTOMER_NOT_FOUND", commonerrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InvalidatesCachedProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	srv := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer cache.Close()

	require.NoError(t, srv.Set(fetchcreditprofile.CacheKey(42), `{"profile":{}}`))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO loans`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT monthly_installment, tenure_months, emis_paid_on_time`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"monthly_installment", "tenure_months", "emis_paid_on_time"}).
			AddRow("8884.88", 12, 0))
	mock.ExpectExec(`UPDATE customers SET current_debt`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	handler := NewHandler(LoadConfig(), db, cache, logger.NewTestLogger(t))

	_, err = handler.Execute(context.Background(), approvedInput())
	require.NoError(t, err)

	assert.False(t, srv.Exists(fetchcreditprofile.CacheKey(42)),
		"cached snapshot must be dropped after a new loan")
	assert.NoError(t, mock.ExpectationsWereMet())
}
