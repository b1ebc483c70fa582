package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/accounts"
	"github.com/odyssey-erp/voucherdesk/internal/accounting/export"
	"github.com/odyssey-erp/voucherdesk/internal/accounting/purchasebook"
	"github.com/odyssey-erp/voucherdesk/internal/accounting/vouchers"
	"github.com/odyssey-erp/voucherdesk/internal/app"
	"github.com/odyssey-erp/voucherdesk/internal/observability"
	"github.com/odyssey-erp/voucherdesk/internal/platform/cache"
	"github.com/odyssey-erp/voucherdesk/internal/platform/db"
	"github.com/odyssey-erp/voucherdesk/internal/shared"
	"github.com/odyssey-erp/voucherdesk/jobs"
	"github.com/odyssey-erp/voucherdesk/report"
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

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// The account directory works uncached.
		logger.Warn("redis unavailable, account cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	queueOpt, err := cfg.QueueRedisOpt()
	if err != nil {
		logger.Error("queue options", slog.Any("error", err))
		os.Exit(1)
	}
	jobClient := jobs.NewClient(queueOpt)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(queueOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	directory := accounts.NewDirectory(accounts.NewRepository(dbpool), redisClient, cfg.AccountCacheTTL)
	voucherService := vouchers.NewService(vouchers.NewRepository(dbpool), vouchers.ServiceDeps{
		PurchaseBook: purchasebook.NewRepository(dbpool),
		Approvals:    shared.NewApprovalRecorder(dbpool, logger),
		Events:       jobs.NewPublisher(jobClient),
		Metrics:      metrics,
		Logger:       logger,
	})

	reportClient := report.NewClient(cfg.GotenbergURL)
	exporter, err := export.NewExporter(reportClient, directory, export.Options{
		LocalCurrency:   cfg.LocalCurrency,
		ForeignCurrency: cfg.ForeignCurrency,
	})
	if err != nil {
		logger.Error("init exporter", slog.Any("error", err))
		os.Exit(1)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		VouchersHandler: vouchers.NewHandler(logger, voucherService, exporter, shared.NewIdempotencyStore(dbpool)),
		AccountsHandler: accounts.NewHandler(logger, directory),
		ReportHandler:   report.NewHandler(reportClient, logger),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	if err := app.Serve(ctx, app.NewServer(cfg, router), logger, 10*time.Second); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
