package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-billing/api/swagger"
	"github.com/noah-isme/lms-billing/internal/billing"
	"github.com/noah-isme/lms-billing/internal/handler"
	internalmiddleware "github.com/noah-isme/lms-billing/internal/middleware"
	"github.com/noah-isme/lms-billing/internal/repository"
	"github.com/noah-isme/lms-billing/internal/service"
	"github.com/noah-isme/lms-billing/pkg/cache"
	"github.com/noah-isme/lms-billing/pkg/config"
	"github.com/noah-isme/lms-billing/pkg/database"
	"github.com/noah-isme/lms-billing/pkg/jobs"
	"github.com/noah-isme/lms-billing/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-billing/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-billing/pkg/middleware/requestid"
)

// @title LMS Billing API
// @version 1.0.0
// @description Lesson billing, wallets and ledger reports for the tutoring school.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		if version, err := database.Version(ctx, db); err == nil {
			logr.Info("schema migrated", zap.Int64("version", version))
		}
	}

	metrics := service.NewMetricsService()
	var cacheRepo *repository.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cacheRepo.Enabled())
	catalogCache := cacheSvc
	if !cfg.Catalog.CacheEnabled {
		catalogCache = nil
	}

	discounts, err := billing.ParseDiscountSchedule(cfg.Billing.GroupDiscounts, cfg.Billing.GroupDiscountCap)
	if err != nil {
		return fmt.Errorf("group discounts: %w", err)
	}
	calculator, err := billing.NewCalculator(cfg.Billing.DefaultLessonDuration, discounts)
	if err != nil {
		return err
	}

	validate := validator.New()
	billingRepo := repository.NewBillingRepository(db)
	reportRepo := repository.NewReportRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	ledger := service.NewLedgerWriter(logr)

	catalogSvc := service.NewCatalogService(repository.NewCatalogRepository(db), catalogCache, cfg.Catalog.CacheTTL, logr)
	lessonSvc := service.NewLessonBillingService(billingRepo, catalogSvc, calculator, ledger, cacheSvc, metrics, validate, logr)
	paymentSvc := service.NewPaymentService(billingRepo, reportRepo, ledger, metrics, validate, logr)
	reportSvc := service.NewReportService(reportRepo, cacheSvc, cfg.Reports.CacheTTL, nil, nil, logr)
	accountSvc := service.NewAccountService(accountRepo, catalogSvc, calculator, logr)
	profileSvc := service.NewProfileService(repository.NewProfileRepository(db), validate, logr)
	reconcileSvc := service.NewReconciliationService(accountRepo, metrics, cfg.Reconcile.AutoFix, logr)

	if cfg.Reconcile.Enabled {
		queue := jobs.NewQueue("wallet-reconcile", reconcileSvc.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Reconcile.Workers,
			MaxRetries: cfg.Reconcile.MaxRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		reconcileSvc.UseQueue(queue)

		scheduler := jobs.NewScheduler(logr, 10*time.Minute)
		err := scheduler.Add(cfg.Reconcile.Schedule, "wallet-scan", func(ctx context.Context) error {
			_, err := reconcileSvc.Scan(ctx)
			return err
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop(context.Background())
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{AllowedOrigins: cfg.CORS.AllowedOrigins}))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/health", "/ready"))

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.Audit(logr))
	handler.RegisterRoutes(r, api, handler.Handlers{
		Lessons:  handler.NewLessonHandler(lessonSvc),
		Payments: handler.NewPaymentHandler(paymentSvc),
		Reports:  handler.NewReportHandler(reportSvc),
		Accounts: handler.NewAccountHandler(accountSvc),
		Wallets:  handler.NewWalletHandler(reconcileSvc),
		Profiles: handler.NewProfileHandler(profileSvc),
		Catalog:  handler.NewCatalogHandler(catalogSvc),
		Metrics:  handler.NewMetricsHandler(metrics, db),
	})
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
