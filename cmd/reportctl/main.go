package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-report-api/internal/report"
	"github.com/noah-isme/academic-report-api/internal/repository"
	"github.com/noah-isme/academic-report-api/internal/service"
	"github.com/noah-isme/academic-report-api/pkg/cache"
	"github.com/noah-isme/academic-report-api/pkg/config"
	"github.com/noah-isme/academic-report-api/pkg/database"
	"github.com/noah-isme/academic-report-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openPipeline).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "reportctl:", err)
		os.Exit(1)
	}
}

// openPipeline wires the report service against the configured database.
// When the distribution cache is enabled the CLI shares it with the API, so
// distribution --refresh replaces the values the API serves.
func openPipeline(ctx context.Context) (reportGenerator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	branding, err := report.BrandingFromConfig(cfg.Reports)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("load branding: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Distribution.CacheEnabled {
		if redisClient, err = cache.NewRedis(ctx, cfg.Redis); err != nil {
			logr.Warn("redis unavailable, distribution cache disabled", zap.Error(err))
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient)

	svc := service.NewGradeReportService(service.GradeReportServiceParams{
		Reports: repository.NewGradeReportRepository(db),
		Roster:  repository.NewRosterRepository(db),
		Cache:   service.NewCacheService(cacheRepo, nil, cfg.Distribution.CacheTTL, logr, redisClient != nil),
		Logger:  logr,
		Config: service.GradeReportServiceConfig{
			Branding:        branding,
			SheetName:       cfg.Reports.SheetName,
			CompressPDF:     cfg.Reports.CompressPDF,
			DistributionTTL: cfg.Distribution.CacheTTL,
		},
	})
	release := func() {
		if err := cacheRepo.Close(); err != nil {
			logr.Warn("close redis", zap.Error(err))
		}
		if err := db.Close(); err != nil {
			logr.Warn("close database", zap.Error(err))
		}
		_ = logr.Sync()
	}
	return svc, release, nil
}
