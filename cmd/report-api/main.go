package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/academic-report-api/internal/handler"
	"github.com/noah-isme/academic-report-api/internal/report"
	"github.com/noah-isme/academic-report-api/internal/repository"
	"github.com/noah-isme/academic-report-api/internal/service"
	"github.com/noah-isme/academic-report-api/pkg/cache"
	"github.com/noah-isme/academic-report-api/pkg/config"
	"github.com/noah-isme/academic-report-api/pkg/database"
	"github.com/noah-isme/academic-report-api/pkg/logger"
)

// @title Academic Report API
// @version 1.0.0
// @description Group and student academic reports rendered as JSON, XLSX, CSV and PDF.
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server stopped with error", "error", err)
	}
	logr.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, distribution cache disabled", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close() //nolint:errcheck

	branding, err := report.BrandingFromConfig(cfg.Reports)
	if err != nil {
		return fmt.Errorf("load branding: %w", err)
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Distribution.CacheTTL, logr,
		cfg.Distribution.CacheEnabled && redisClient != nil)

	reportSvc := service.NewGradeReportService(service.GradeReportServiceParams{
		Reports:   repository.NewGradeReportRepository(db),
		Roster:    repository.NewRosterRepository(db),
		Cache:     cacheSvc,
		Metrics:   metrics,
		Validator: validator.New(),
		Logger:    logr,
		Config: service.GradeReportServiceConfig{
			Branding:        branding,
			SheetName:       cfg.Reports.SheetName,
			CompressPDF:     cfg.Reports.CompressPDF,
			DistributionTTL: cfg.Distribution.CacheTTL,
		},
	})

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router := newRouter(routerDeps{
		cfg:     cfg,
		logger:  logr,
		metrics: metrics,
		reports: handler.NewGradeReportHandler(reportSvc),
		probes:  handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logr.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
