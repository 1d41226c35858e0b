// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"credit-workers/internal/common/config"
	"credit-workers/internal/common/database"
	"credit-workers/internal/common/logger"
	"credit-workers/internal/common/observability"
	"credit-workers/pkg/registry"

	rc "credit-workers/internal/workers/customer/register-customer"

	ce "credit-workers/internal/workers/loan/check-eligibility"
	clr "credit-workers/internal/workers/loan/create-loan-record"
	fcp "credit-workers/internal/workers/loan/fetch-credit-profile"
	vlr "credit-workers/internal/workers/loan/validate-loan-request"

	ild "credit-workers/internal/workers/data-access/index-loan-decision"

	sdn "credit-workers/internal/workers/communication/send-decision-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	if cfg.RegistryPath != "" {
		reg, err := registry.Load(cfg.RegistryPath)
		if err != nil {
			zapLog.Warn("worker registry not loaded", zap.String("path", cfg.RegistryPath), zap.Error(err))
		} else if err := reg.Validate(); err != nil {
			zapLog.Fatal("worker registry invalid", zap.String("path", cfg.RegistryPath), zap.Error(err))
		} else {
			zapLog.Info("worker registry loaded", zap.Int("workers", len(reg.Workers)))
		}
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Register Workers ---

	// Lending policy knobs shared by the loan workers.
	minAmount, err := decimal.NewFromString(cfg.Lending.MinLoanAmount)
	if err != nil {
		zapLog.Fatal("invalid min_loan_amount", zap.Error(err))
	}
	maxAmount, err := decimal.NewFromString(cfg.Lending.MaxLoanAmount)
	if err != nil {
		zapLog.Fatal("invalid max_loan_amount", zap.Error(err))
	}

	if cfg.Workers[vlr.TaskType].Enabled {
		handler, err := vlr.NewHandler(
			&vlr.Config{
				Timeout:         time.Duration(cfg.Workers[vlr.TaskType].Timeout) * time.Millisecond,
				MinLoanAmount:   minAmount,
				MaxLoanAmount:   maxAmount,
				MaxTenureMonths: cfg.Lending.MaxTenureMonths,
				MaxInterestRate: decimal.NewFromInt(100),
			},
			log,
		)
		if err != nil {
			zapLog.Fatal("failed to create validate-loan-request handler", zap.Error(err))
		}
		startWorker(zeebeClient, vlr.TaskType, cfg.Workers[vlr.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[fcp.TaskType].Enabled {
		handler := fcp.NewHandler(
			&fcp.Config{
				Timeout:  time.Duration(cfg.Workers[fcp.TaskType].Timeout) * time.Millisecond,
				CacheTTL: time.Duration(cfg.Lending.ProfileCacheTTLSecs) * time.Second,
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, fcp.TaskType, cfg.Workers[fcp.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ce.TaskType].Enabled {
		handler := ce.NewHandler(
			&ce.Config{
				Timeout: time.Duration(cfg.Workers[ce.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, ce.TaskType, cfg.Workers[ce.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[clr.TaskType].Enabled {
		handler := clr.NewHandler(
			&clr.Config{
				Timeout: time.Duration(cfg.Workers[clr.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, clr.TaskType, cfg.Workers[clr.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[rc.TaskType].Enabled {
		handler := rc.NewHandler(
			&rc.Config{
				Timeout:             time.Duration(cfg.Workers[rc.TaskType].Timeout) * time.Millisecond,
				ApprovedLimitFactor: int64(cfg.Lending.ApprovedLimitFactor),
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, rc.TaskType, cfg.Workers[rc.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ild.TaskType].Enabled {
		handler := ild.NewHandler(
			&ild.Config{
				Timeout: time.Duration(cfg.Workers[ild.TaskType].Timeout) * time.Millisecond,
				Index:   cfg.Lending.DecisionIndex,
			},
			esClient.Client, log,
		)
		startWorker(zeebeClient, ild.TaskType, cfg.Workers[ild.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sdn.TaskType].Enabled {
		handler, err := sdn.NewHandler(
			&sdn.Config{
				Timeout:      time.Duration(cfg.Workers[sdn.TaskType].Timeout) * time.Millisecond,
				AWSRegion:    cfg.Notifications.AWS.Region,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
			},
			pg.DB, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create send-decision-notification handler", zap.Error(err))
		}
		startWorker(zeebeClient, sdn.TaskType, cfg.Workers[sdn.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
