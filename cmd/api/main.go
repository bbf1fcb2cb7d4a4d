package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/marketplace-service/internal/api/http"
	"github.com/spec-kit/marketplace-service/internal/api/http/handlers"
	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/cache"
	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/notify"
	"github.com/spec-kit/marketplace-service/internal/observability"
	"github.com/spec-kit/marketplace-service/internal/persistence"
	"github.com/spec-kit/marketplace-service/internal/repository"
	"github.com/spec-kit/marketplace-service/internal/service"
	"github.com/spec-kit/marketplace-service/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var redis *persistence.Redis
	var cacheBackend cache.Cache
	if cfg.Cache.Backend == "redis" {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		cacheBackend = cache.NewRedisCache(redis.Client)
	} else {
		cacheBackend = cache.NewMemoryCache()
	}

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	serviceRepo := repository.NewServiceRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)

	webhook := notify.NewHTTPWebhook(cfg.Notification.WebhookURL, logger)
	mailer := notify.NewLogMailer(cfg.Notification.EmailFrom, logger)

	dispatcher := tasks.NewDispatcher(cfg.Tasks.Workers, cfg.Tasks.QueueSize, logger, metrics)
	jobs := tasks.NewJobSet(tasks.JobDependencies{
		RequestRepo: requestRepo,
		UserRepo:    userRepo,
		Mailer:      mailer,
		Webhook:     webhook,
		ReportDir:   cfg.Tasks.ReportDir,
		Logger:      logger,
	})
	jobs.RegisterAll(dispatcher)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	if cfg.Scheduler.Enabled {
		scheduler, err := tasks.NewScheduler(cfg.Scheduler, dispatcher, logger)
		if err != nil {
			logger.Fatal("failed to init scheduler", zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	cacheTTL := cfg.Cache.DefaultTTL()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		Cache:       cacheBackend,
	})
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		ServiceRepo: serviceRepo,
		Cache:       cacheBackend,
		CacheTTL:    cacheTTL,
		Metrics:     metrics,
	})
	accountService := service.NewAccountService(service.AccountDependencies{
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		Cache:       cacheBackend,
		CacheTTL:    cacheTTL,
		Metrics:     metrics,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requestRepo,
		ReviewRepo:  reviewRepo,
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		ServiceRepo: serviceRepo,
		Cache:       cacheBackend,
		CacheTTL:    cacheTTL,
		Queue:       dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Services:       handlers.NewServicesHandler(catalogService),
		Requests:       handlers.NewRequestsHandler(requestService),
		Accounts:       handlers.NewAccountsHandler(accountService),
		Tasks:          handlers.NewTasksHandler(dispatcher, cfg.Tasks.ReportDir),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
