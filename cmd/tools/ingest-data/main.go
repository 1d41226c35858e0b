// cmd/tools/ingest-data/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"credit-workers/internal/common/config"
	"credit-workers/internal/common/database"
	"credit-workers/internal/common/logger"
)

// Loads the historical customerData.csv and loanData.csv exports into
// Postgres, then recomputes every customer's current_debt from the loan
// table. Existing rows are upserted so the tool is safe to re-run.

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02T15:04:05Z07:00",
}

type stats struct {
	rows    int
	upserts int
	errors  int
}

func main() {
	customersPath := flag.String("customers", "data/customerData.csv", "Path to customer CSV export")
	loansPath := flag.String("loans", "data/loanData.csv", "Path to loan CSV export")
	skipDebt := flag.Bool("skip-debt-update", false, "Skip the current_debt recompute pass")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	ctx := context.Background()
	if err := pg.Ping(ctx); err != nil {
		zapLog.Fatal("postgres ping failed", zap.Error(err))
	}

	custStats, err := ingestCustomers(ctx, pg.DB, *customersPath, zapLog)
	if err != nil {
		zapLog.Fatal("customer ingestion failed", zap.Error(err))
	}
	zapLog.Info("customer ingestion complete",
		zap.Int("rows", custStats.rows),
		zap.Int("upserts", custStats.upserts),
		zap.Int("errors", custStats.errors),
	)

	loanStats, err := ingestLoans(ctx, pg.DB, *loansPath, zapLog)
	if err != nil {
		zapLog.Fatal("loan ingestion failed", zap.Error(err))
	}
	zapLog.Info("loan ingestion complete",
		zap.Int("rows", loanStats.rows),
		zap.Int("upserts", loanStats.upserts),
		zap.Int("errors", loanStats.errors),
	)

	if !*skipDebt {
		updated, err := recomputeDebts(ctx, pg.DB)
		if err != nil {
			zapLog.Fatal("debt recompute failed", zap.Error(err))
		}
		zapLog.Info("customer debts recomputed", zap.Int64("customers", updated))
	}
}

func ingestCustomers(ctx context.Context, db *sql.DB, path string, log *zap.Logger) (stats, error) {
	var s stats

	rows, err := readCSV(path)
	if err != nil {
		return s, err
	}

	for i, row := range rows {
		s.rows++

		customerID, err := row.int64Field("Customer ID")
		if err != nil {
			s.errors++
			log.Error("bad customer row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		age, err := row.intField("Age")
		if err != nil {
			s.errors++
			log.Error("bad customer row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		salary, err := row.decimalField("Monthly Salary")
		if err != nil {
			s.errors++
			log.Error("bad customer row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		limit, err := row.decimalField("Approved Limit")
		if err != nil {
			s.errors++
			log.Error("bad customer row", zap.Int("row", i+1), zap.Error(err))
			continue
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO customers (customer_id, first_name, last_name, age, phone_number,
				monthly_salary, approved_limit, current_debt)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
			ON CONFLICT (customer_id) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				age = EXCLUDED.age,
				phone_number = EXCLUDED.phone_number,
				monthly_salary = EXCLUDED.monthly_salary,
				approved_limit = EXCLUDED.approved_limit`,
			customerID,
			strings.TrimSpace(row.field("First Name")),
			strings.TrimSpace(row.field("Last Name")),
			age,
			strings.TrimSpace(row.field("Phone Number")),
			salary.String(),
			limit.String(),
		)
		if err != nil {
			s.errors++
			log.Error("customer upsert failed", zap.Int64("customerId", customerID), zap.Error(err))
			continue
		}
		s.upserts++
	}

	return s, nil
}

func ingestLoans(ctx context.Context, db *sql.DB, path string, log *zap.Logger) (stats, error) {
	var s stats

	rows, err := readCSV(path)
	if err != nil {
		return s, err
	}

	for i, row := range rows {
		s.rows++

		customerID, err := row.int64Field("Customer ID")
		if err != nil {
			s.errors++
			log.Error("bad loan row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		loanID := strings.TrimSpace(row.field("Loan ID"))
		if loanID == "" {
			s.errors++
			log.Error("bad loan row", zap.Int("row", i+1), zap.String("reason", "empty Loan ID"))
			continue
		}
		amount, err := row.decimalField("Loan Amount")
		if err != nil {
			s.errors++
			log.Error("bad loan row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		tenure, err := row.intField("Tenure")
		if err != nil {
			s.errors++
			log.Error("bad loan row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		rate, err := row.decimalField("Interest Rate")
		if err != nil {
			s.errors++
			log.Error("bad loan row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		installment, err := row.decimalField("Monthly payment")
		if err != nil {
			s.errors++
			log.Error("bad loan row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		paidOnTime, err := row.intField("EMIs paid on Time")
		if err != nil {
			s.errors++
			log.Error("bad loan row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		approvedOn, err := row.dateField("Date of Approval")
		if err != nil {
			s.errors++
			log.Error("bad loan row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		endDate, err := row.dateField("End Date")
		if err != nil {
			s.errors++
			log.Error("bad loan row", zap.Int("row", i+1), zap.Error(err))
			continue
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO loans (loan_id, customer_id, loan_amount, tenure_months, interest_rate,
				monthly_installment, emis_paid_on_time, date_of_approval, end_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (loan_id) DO UPDATE SET
				customer_id = EXCLUDED.customer_id,
				loan_amount = EXCLUDED.loan_amount,
				tenure_months = EXCLUDED.tenure_months,
				interest_rate = EXCLUDED.interest_rate,
				monthly_installment = EXCLUDED.monthly_installment,
				emis_paid_on_time = EXCLUDED.emis_paid_on_time,
				date_of_approval = EXCLUDED.date_of_approval,
				end_date = EXCLUDED.end_date`,
			loanID, customerID, amount.String(), tenure, rate.String(),
			installment.String(), paidOnTime, approvedOn, endDate,
		)
		if err != nil {
			s.errors++
			log.Error("loan upsert failed", zap.String("loanId", loanID), zap.Error(err))
			continue
		}
		s.upserts++
	}

	return s, nil
}

// recomputeDebts sets current_debt to the sum of remaining installments of
// each customer's active loans. Runs in one statement so a partial ingest
// never leaves debts half-updated.
func recomputeDebts(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE customers c SET current_debt = COALESCE(d.debt, 0)
		FROM (
			SELECT customer_id,
			       SUM(monthly_installment * GREATEST(tenure_months - emis_paid_on_time, 0)) AS debt
			FROM loans
			GROUP BY customer_id
		) d
		WHERE c.customer_id = d.customer_id`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// record is a CSV row keyed by trimmed header name.
type record map[string]string

func readCSV(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []record
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		row := make(record, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r record) field(name string) string {
	return r[name]
}

func (r record) int64Field(name string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(r[name]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", name, err)
	}
	return v, nil
}

func (r record) intField(name string) (int, error) {
	v, err := r.int64Field(name)
	return int(v), err
}

func (r record) decimalField(name string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(r[name]))
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %q: %w", name, err)
	}
	return v, nil
}

func (r record) dateField(name string) (*time.Time, error) {
	raw := strings.TrimSpace(r[name])
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("column %q: unparseable date %q", name, raw)
}
