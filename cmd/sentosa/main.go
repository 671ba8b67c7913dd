package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sentosa-erp/sentosa/internal/app"
	"github.com/sentosa-erp/sentosa/internal/dashboard"
	"github.com/sentosa-erp/sentosa/internal/inventory"
	"github.com/sentosa-erp/sentosa/internal/masterdata/customers"
	"github.com/sentosa-erp/sentosa/internal/masterdata/products"
	"github.com/sentosa-erp/sentosa/internal/masterdata/taxes"
	"github.com/sentosa-erp/sentosa/internal/masterdata/units"
	"github.com/sentosa-erp/sentosa/internal/masterdata/users"
	"github.com/sentosa-erp/sentosa/internal/observability"
	"github.com/sentosa-erp/sentosa/internal/payment"
	"github.com/sentosa-erp/sentosa/internal/platform/cache"
	"github.com/sentosa-erp/sentosa/internal/platform/db"
	"github.com/sentosa-erp/sentosa/internal/shared"
	"github.com/sentosa-erp/sentosa/internal/transaction"
	"github.com/sentosa-erp/sentosa/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, db.Config{DSN: cfg.PGDSN})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis is a soft dependency: the dashboard cache degrades to
	// loader-only and warmup enqueues become no-ops when it is down.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	dashCache := cache.NewVersioned(redisClient, "sentosa:dashboard", cfg.CacheTTL)
	if err := dashCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	transactionRepo := transaction.NewRepository(pool)
	transactionService := transaction.NewService(transactionRepo, auditLogger, idempotencyStore, dashCache, jobClient)

	paymentRepo := payment.NewRepository(pool)
	paymentService := payment.NewService(paymentRepo, auditLogger, idempotencyStore, dashCache, jobClient)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, idempotencyStore, dashCache)

	dashboardRepo := dashboard.NewRepository(pool)
	dashboardService := dashboard.NewService(dashboardRepo, transactionRepo, dashCache)

	productService := products.NewService(products.NewRepository(pool))
	customerService := customers.NewService(customers.NewRepository(pool))
	taxService := taxes.NewService(taxes.NewRepository(pool))
	unitService := units.NewService(units.NewRepository(pool))
	userService := users.NewService(users.NewRepository(pool))

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		TransactionHandler: transaction.NewHandler(logger, transactionService),
		PaymentHandler:     payment.NewHandler(logger, paymentService),
		InventoryHandler:   inventory.NewHandler(logger, inventoryService),
		DashboardHandler:   dashboard.NewHandler(logger, dashboardService),
		ProductHandler:     products.NewHandler(logger, productService),
		CustomerHandler:    customers.NewHandler(logger, customerService),
		TaxHandler:         taxes.NewHandler(logger, taxService),
		UnitHandler:        units.NewHandler(logger, unitService),
		UserHandler:        users.NewHandler(logger, userService),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
