package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-report-api/api/swagger"
	"github.com/noah-isme/academic-report-api/internal/handler"
	"github.com/noah-isme/academic-report-api/internal/middleware"
	"github.com/noah-isme/academic-report-api/internal/service"
	"github.com/noah-isme/academic-report-api/pkg/config"
	"github.com/noah-isme/academic-report-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-report-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-report-api/pkg/middleware/requestid"
)

type routerDeps struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *service.MetricsService
	reports *handler.GradeReportHandler
	probes  *handler.MetricsHandler
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(d.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))

	r.GET("/health", d.probes.Health)
	r.GET("/ready", d.probes.Ready)
	if d.cfg.Metrics.Enabled {
		r.GET("/metrics", d.probes.Prometheus)
	}
	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(d.cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	groups := api.Group("/reports/groups/:groupId")
	groups.GET("/periods/:periodId", d.reports.GroupReport)
	groups.GET("/periods/:periodId/excel", d.reports.GroupSpreadsheet)
	groups.GET("/periods/:periodId/pdf", d.reports.GroupPdf)
	groups.GET("/students/:studentId/periods/:periodId", d.reports.StudentReport)
	groups.GET("/students/:studentId/periods/:periodId/excel", d.reports.StudentSpreadsheet)
	groups.GET("/students/:studentId/periods/:periodId/pdf", d.reports.StudentPdf)

	api.GET("/subject-grade/report/distribution", d.reports.Distribution)
	return r
}
