// cmd/enrollment-api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"provider-enrollment/internal/api"
	"provider-enrollment/internal/common/auth"
	"provider-enrollment/internal/common/config"
	"provider-enrollment/internal/common/database"
	"provider-enrollment/internal/common/logger"
	"provider-enrollment/internal/common/observability"
	"provider-enrollment/internal/repository"
	"provider-enrollment/internal/services/providerid"
	"provider-enrollment/internal/services/retryqueue"
	"provider-enrollment/internal/services/warehouse"

	car "provider-enrollment/internal/workers/application/create-application-record"
	sn "provider-enrollment/internal/workers/application/send-notification"
	uas "provider-enrollment/internal/workers/application/update-application-status"
	rde "provider-enrollment/internal/workers/delivery/redeliver-events"
)

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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting enrollment API...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return database.PingOrClose(ctx, pg)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if cfg.Database.Postgres.AutoMigrate {
		if err := database.EnsureSchema(ctx, pg.DB); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		zapLog.Info("Database schema ensured")
	}

	checks := map[string]api.Pinger{"postgres": pg}

	applications := repository.NewApplicationRepository(pg.DB)
	users := repository.NewUserRepository(pg.DB)

	delivery := warehouse.NewClient(warehouse.Config{
		BaseURL:    cfg.Warehouse.BaseURL,
		MaxRetries: cfg.Warehouse.MaxRetries,
		Backoff:    config.GetDuration(cfg.Warehouse.BackoffMs),
		Timeout:    config.GetDuration(cfg.Warehouse.TimeoutMs),
	}, log)

	var queue retryqueue.Queue = retryqueue.NewLogQueue(log)
	var redisQueue *retryqueue.RedisQueue
	if cfg.Workflow.DurableQueue {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return database.PingOrClose(ctx, rdb)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		zapLog.Info("Redis connected successfully")

		redisQueue = retryqueue.NewRedisQueue(rdb.Client, log)
		queue = redisQueue
		checks["redis"] = rdb
	}

	var ids uas.IDSource = providerid.NewGenerator()
	if cfg.Workflow.UniqueProviderIDs {
		ids = providerid.NewUniqueGenerator(providerid.NewGenerator(), applications.ProviderIDExists, cfg.Workflow.MaxIDAttempts)
	}

	deps := uas.Dependencies{
		Applications:  applications,
		Users:         users,
		IDs:           ids,
		Delivery:      delivery,
		Queue:         queue,
		Observability: obs,
	}

	notifyCfg := sn.LoadConfig(cfg)
	if notifyCfg.EmailEnabled {
		notifier, err := sn.NewHandler(ctx, notifyCfg, log)
		if err != nil {
			zapLog.Fatal("failed to create send-notification handler", zap.Error(err))
		}
		deps.Notifier = notifier
	}

	statusHandler := uas.NewHandler(uas.LoadConfig(cfg), deps, log)
	intake := car.NewHandler(car.LoadConfig(), applications, log)

	server := api.NewServer(api.Dependencies{
		Tokens:       auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Status:       statusHandler,
		Intake:       intake,
		Applications: applications,
		Users:        users,
		Checks:       checks,
	}, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	if cfg.Redelivery.Enabled && redisQueue != nil {
		sweeper := rde.NewHandler(rde.LoadConfig(cfg), redisQueue, delivery, log)
		go func() {
			if err := sweeper.Run(ctx); err != nil {
				zapLog.Error("redelivery worker stopped", zap.Error(err))
			}
		}()
	} else if cfg.Redelivery.Enabled {
		zapLog.Warn("redelivery enabled without the durable queue, sweep not started")
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during HTTP shutdown", zap.Error(err))
	}

	zapLog.Info("Enrollment API stopped")
}
