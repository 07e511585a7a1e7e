package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/tasknest/backend/api/handler"
	"github.com/tasknest/backend/internal/config"
	"github.com/tasknest/backend/internal/infrastructure/keycloak"
	"github.com/tasknest/backend/internal/infrastructure/monitor"
	"github.com/tasknest/backend/internal/infrastructure/outbox"
	pgInfra "github.com/tasknest/backend/internal/infrastructure/postgres"
	redisInfra "github.com/tasknest/backend/internal/infrastructure/redis"
	"github.com/tasknest/backend/internal/metrics"
	"github.com/tasknest/backend/internal/middleware"
	"github.com/tasknest/backend/internal/router"
	"github.com/tasknest/backend/internal/services/lifecycle"
	"github.com/tasknest/backend/internal/services/notifier"
	"github.com/tasknest/backend/pkg/httpcontext"
	"github.com/tasknest/backend/pkg/logger"
	"github.com/tasknest/backend/repository/postgres"
	redisRepo "github.com/tasknest/backend/repository/redis"
	taskUC "github.com/tasknest/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open notification outbox", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	taskRepo := postgres.NewTaskRepository(pool)
	listingCache := redisRepo.NewListingCache(redisClient)
	rateLimiter := redisRepo.NewRateLimiter(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window)

	dispatcher := notifier.NewDispatcher(outboxStore, notifier.TemplateConfig{
		Subject: cfg.Notify.Subject,
		Body:    cfg.Notify.Body,
		To:      cfg.Notify.To,
	}, zapLogger)

	if cfg.Notify.Enabled {
		mailer := notifier.NewSMTPMailer(notifier.SMTPConfig{
			Host:     cfg.Notify.SMTPHost,
			Port:     cfg.Notify.SMTPPort,
			Username: cfg.Notify.SMTPUser,
			Password: cfg.Notify.SMTPPassword,
			From:     cfg.Notify.From,
		})
		processor := notifier.NewProcessor(outboxStore, mailer, zapLogger, notifier.ProcessorConfig{
			Interval:   cfg.Outbox.SyncInterval,
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetry,
		})
		processor.Start()
		manager.Register("notification_processor", func(ctx context.Context) error {
			processor.Stop(ctx)
			return nil
		})
	}

	taskUseCase := taskUC.New(taskRepo, listingCache, dispatcher, cfg.Cache.TTL, zapLogger)

	resolver := keycloak.NewResolver(cfg.Keycloak.CertsURL, cfg.Keycloak.Timeout, zapLogger)
	appMetrics := metrics.New()

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
		Metrics: apiHandler.NewMetricsHandler(appMetrics, pool),
	}

	pipeline := router.Pipeline{
		Authenticate: middleware.Authenticate(resolver, zapLogger),
		RequireUser:  middleware.RequireRoles(zapLogger, "admin", "user"),
		RequireAdmin: middleware.RequireRoles(zapLogger, "admin"),
		RateLimit:    middleware.RateLimit(rateLimiter, zapLogger),
	}

	r := router.New(handlers, pipeline)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
