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
	"github.com/joho/godotenv"

	"github.com/tradedesk/tradedesk/internal/app"
	"github.com/tradedesk/tradedesk/internal/auth"
	"github.com/tradedesk/tradedesk/internal/masterdata"
	"github.com/tradedesk/tradedesk/internal/observability"
	"github.com/tradedesk/tradedesk/internal/orders"
	"github.com/tradedesk/tradedesk/internal/platform/cache"
	"github.com/tradedesk/tradedesk/internal/platform/db"
	"github.com/tradedesk/tradedesk/internal/platform/kafka"
	"github.com/tradedesk/tradedesk/internal/shared"
	"github.com/tradedesk/tradedesk/jobs"
	"github.com/tradedesk/tradedesk/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	metrics := observability.NewMetrics()
	validator := shared.NewValidator()

	var events orders.Publisher = orders.NopPublisher{}
	if cfg.EventsEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka close", slog.Any("error", err))
			}
		}()
		events = orders.NewBrokerPublisher(producer)
		logger.Info("publishing order events", slog.String("topic", cfg.KafkaOrderTopic))
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	var jobClient *jobs.Client
	var jobHandler *jobs.Handler
	if cfg.JobsEnabled {
		jobClient = jobs.NewClient(redisOpts, logger)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	var pdf orders.PDFRenderer
	var reports *report.Handler
	if cfg.GotenbergURL != "" {
		renderer := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
		pdf = renderer
		reports = report.NewHandler(renderer, logger)
	}

	var warmer orders.StatsWarmer
	if jobClient != nil {
		warmer = jobClient
	}
	orderService := orders.NewService(orders.NewRepository(pool), orders.Options{
		Stats:        cache.NewVersioned(redisClient, "orders:stats", cfg.StatsCacheTTL),
		Warmer:       warmer,
		Events:       events,
		Metrics:      metrics,
		Logger:       logger,
		PDF:          pdf,
		EnforceStock: cfg.OrdersEnforceStock,
	})
	masterData := masterdata.NewModule(pool, logger, validator, orderService.InvalidateStats)

	tokens := auth.NewTokens(cfg.AuthSecret, cfg.AuthTokenTTL, auth.NewRedisTokenStore(redisClient))
	authService := auth.NewService(auth.NewRepository(pool), tokens, validator)
	if cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, "Administrator", cfg.AdminUsername, cfg.AdminPassword); err != nil {
			logger.Error("ensure admin account", slog.Any("error", err))
			os.Exit(1)
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Metrics:    metrics,
		Auth:       auth.NewHandler(logger, authService),
		Orders:     orders.NewHandler(logger, orderService),
		MasterData: masterData,
		Jobs:       jobHandler,
		Reports:    reports,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
