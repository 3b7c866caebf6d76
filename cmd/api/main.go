package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sangkips/receipts-api/internal/application/service"
	"github.com/sangkips/receipts-api/internal/clock"
	"github.com/sangkips/receipts-api/internal/config"
	domainRepo "github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/internal/infrastructure/cache"
	"github.com/sangkips/receipts-api/internal/infrastructure/database"
	"github.com/sangkips/receipts-api/internal/infrastructure/logger"
	"github.com/sangkips/receipts-api/internal/infrastructure/metrics"
	"github.com/sangkips/receipts-api/internal/infrastructure/repository"
	"github.com/sangkips/receipts-api/internal/presentation/http/handler"
	"github.com/sangkips/receipts-api/internal/presentation/http/middleware"
	"github.com/sangkips/receipts-api/internal/presentation/http/routes"
	"github.com/sangkips/receipts-api/pkg/printer"
	"github.com/sangkips/receipts-api/pkg/utils"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	defer func() { _ = log.Sync() }()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.NewSystemClock()

	db, err := database.Open(&cfg.Database, database.Options{
		Logger:  logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Logger.Level), cfg.Database.SlowQuery),
		NowFunc: clk.Now,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.AutoMigrate(db, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	if err := database.SeedDefaultData(db, log); err != nil {
		log.Warn("failed to seed default data", zap.Error(err))
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	transactor := repository.NewTransactor(db)

	idempotencyRepo := newIdempotencyStore(ctx, cfg, db, clk, log)

	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New(true)
	}

	thermalPrinter, err := printer.New(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		log.Warn("failed to initialize printer, printing disabled", zap.Error(err))
		thermalPrinter, _ = printer.New(printer.TypeNone, "", "")
	}

	// Services
	authService := service.NewAuthService(userRepo, jwtManager, clk)
	businessService := service.NewBusinessService(businessRepo, userRepo, templateRepo)
	templateService := service.NewTemplateService(templateRepo)
	receiptService := service.NewReceiptService(receiptRepo, businessRepo, templateRepo, transactor, clk, observerFor(appMetrics))
	printerService := service.NewPrinterService(thermalPrinter, receiptRepo, businessRepo, cfg.Printer.Type, cfg.Printer.PaperWidth)

	rateLimiter := middleware.NewBusinessRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.Burst,
		Observer:          rateObserverFor(appMetrics),
	})
	defer rateLimiter.Stop()

	router := routes.Setup(&routes.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Business: handler.NewBusinessHandler(businessService),
		Receipt:  handler.NewReceiptHandler(receiptService),
		Template: handler.NewTemplateHandler(templateService),
		Printer:  handler.NewPrinterHandler(printerService),
	}, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		Logger:          log,
		IdempotencyRepo: idempotencyRepo,
		BusinessRepo:    businessRepo,
		RateLimiter:     rateLimiter,
		Metrics:         appMetrics,
		Now:             clk.Now,
	})

	go purgeExpiredKeys(ctx, idempotencyRepo, clk, log)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server",
			zap.String("service", cfg.App.Name),
			zap.String("env", cfg.App.Env),
			zap.String("port", cfg.App.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server exited")
}

// newIdempotencyStore picks the configured store, falling back to the
// database when redis is unreachable
func newIdempotencyStore(ctx context.Context, cfg *config.Config, db *gorm.DB, clk clock.Clock, log *zap.Logger) domainRepo.IdempotencyRepository {
	if cfg.Idempotency.Store != config.IdempotencyStoreRedis {
		return repository.NewIdempotencyRepository(db)
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, storing idempotency keys in the database", zap.Error(err))
		return repository.NewIdempotencyRepository(db)
	}
	log.Info("storing idempotency keys in redis", zap.String("addr", cfg.Redis.Addr))
	return cache.NewRedisIdempotencyRepository(client, "", clk.Now)
}

func purgeExpiredKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, clk clock.Clock, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx, clk.Now()); err != nil {
				log.Warn("failed to purge expired idempotency keys", zap.Error(err))
			}
		}
	}
}

func observerFor(m *metrics.Metrics) service.SyncObserver {
	if m == nil {
		return nil
	}
	return m
}

func rateObserverFor(m *metrics.Metrics) middleware.RateLimitObserver {
	if m == nil {
		return nil
	}
	return m
}
