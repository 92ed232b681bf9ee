package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/pizzashop/order-service/internal/api/http"
	"github.com/pizzashop/order-service/internal/api/http/handlers"
	"github.com/pizzashop/order-service/internal/auth"
	"github.com/pizzashop/order-service/internal/config"
	"github.com/pizzashop/order-service/internal/factory"
	"github.com/pizzashop/order-service/internal/observability"
	"github.com/pizzashop/order-service/internal/persistence"
	"github.com/pizzashop/order-service/internal/repository"
	"github.com/pizzashop/order-service/internal/service"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var sink observability.Sink = observability.NopSink{}
	if cfg.Telemetry.URL != "" {
		sink = observability.NewGrafanaSink(cfg.Telemetry)
	}
	telemetry := observability.NewTelemetry(sink, cfg.Telemetry.FlushInterval(), logger)
	telemetry.Start()
	defer telemetry.Stop()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	menuRepo := repository.NewMenuRepository(pool)
	franchiseRepo := repository.NewFranchiseRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	sessionRepo := repository.NewSessionRepository(redis.Client)

	sessions := auth.NewSessionManager(auth.NewTokenManager(cfg.Auth.JWTSecret), sessionRepo)
	guard := auth.NewMiddleware(sessions, telemetry)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		Sessions:   sessions,
		Telemetry:  telemetry,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	orderService := service.NewOrderService(service.OrderDependencies{
		MenuRepo:  menuRepo,
		OrderRepo: orderRepo,
		Factory:   factory.NewClient(cfg.Factory, logger),
		Telemetry: telemetry,
		Logger:    logger,
	})
	franchiseService := service.NewFranchiseService(service.FranchiseDependencies{
		FranchiseRepo: franchiseRepo,
		UserRepo:      userRepo,
		Logger:        logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, telemetry, guard, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Docs:      handlers.NewDocsHandler(cfg.App.Version),
		Auth:      handlers.NewAuthHandler(authService),
		Order:     handlers.NewOrderHandler(orderService),
		Franchise: handlers.NewFranchiseHandler(franchiseService),
		Guard:     guard,
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
