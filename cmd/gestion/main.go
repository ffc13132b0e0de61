package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/soleilcom/gestion/internal/app"
	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/documents"
	"github.com/soleilcom/gestion/internal/finance"
	"github.com/soleilcom/gestion/internal/invoice"
	"github.com/soleilcom/gestion/internal/masterdata/clients"
	"github.com/soleilcom/gestion/internal/masterdata/suppliers"
	"github.com/soleilcom/gestion/internal/observability"
	"github.com/soleilcom/gestion/internal/platform/cache"
	"github.com/soleilcom/gestion/internal/refdata"
	"github.com/soleilcom/gestion/internal/shared"
	"github.com/soleilcom/gestion/internal/stock"
	"github.com/soleilcom/gestion/internal/view"
	"github.com/soleilcom/gestion/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "gestion_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	idempotencyStore := shared.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)

	templates, err := view.NewEngine(view.Options{Locale: cfg.AppLocale, CurrencySuffix: cfg.CurrencySuffix})
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	api := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger)
	refs := refdata.NewLoader(api, logger)

	financeCache := finance.NewCache(redisClient, cfg.FinanceCacheTTL, metrics)
	if err := financeCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("finance cache invalidation listener", slog.Any("error", err))
	}
	financeService := finance.NewService(api, financeCache, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts, logger)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	documentsService := documents.NewService(api, idempotencyStore, refs, metrics, logger).
		WithInvalidators(financeCache, jobClient)
	company := invoice.Company{Name: cfg.CompanyName, Address: cfg.CompanyAddress}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Metrics:          metrics,
		DocumentsHandler: documents.NewHandler(logger, documentsService, templates, csrfManager, sessionManager),
		InvoiceHandler:   invoice.NewHandler(logger, invoice.NewService(api, refs, company), templates, csrfManager),
		FinanceHandler:   finance.NewHandler(logger, financeService, templates, csrfManager),
		SuppliersHandler: suppliers.NewHandler(logger, suppliers.NewService(suppliers.NewRepository(api)), templates, csrfManager),
		ClientsHandler:   clients.NewHandler(logger, clients.NewService(clients.NewRepository(api)), templates, csrfManager),
		StockHandler:     stock.NewHandler(logger, stock.NewService(api, refs, idempotencyStore, logger), templates, csrfManager),
		JobHandler:       jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
