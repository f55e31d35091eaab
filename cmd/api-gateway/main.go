package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/akademika/timetable-engine/api/swagger"
	"github.com/akademika/timetable-engine/internal/handler"
	"github.com/akademika/timetable-engine/internal/middleware"
	"github.com/akademika/timetable-engine/internal/models"
	"github.com/akademika/timetable-engine/internal/repository"
	"github.com/akademika/timetable-engine/internal/service"
	rediscache "github.com/akademika/timetable-engine/pkg/cache"
	"github.com/akademika/timetable-engine/pkg/config"
	"github.com/akademika/timetable-engine/pkg/database"
	"github.com/akademika/timetable-engine/pkg/logger"
	corsmiddleware "github.com/akademika/timetable-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/akademika/timetable-engine/pkg/middleware/requestid"
	"github.com/akademika/timetable-engine/pkg/storage"
)

// @title Timetable Engine API
// @version 1.0.0
// @description Decision layer for automated timetable scheduling
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := rediscache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.DatasetTTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	datasetRepo := repository.NewDatasetRepository(db)
	runRepo := repository.NewRunRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "timetable-engine",
	})

	datasetSvc := service.NewDatasetService(datasetRepo, cacheSvc, cfg.Cache.DatasetTTL, nil, logr)
	profilerSvc := service.NewComplexityService(logr)
	selectorSvc := service.NewSelectorService(nil, logr)
	validationSvc := service.NewValidationService(logr)
	gateSvc := service.NewThresholdService(logr)

	pipelineSvc := service.NewPipelineService(runRepo, datasetSvc, profilerSvc, selectorSvc, validationSvc, gateSvc, metrics, nil, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipelineSvc.StartWorkers(ctx)
	defer pipelineSvc.StopWorkers()

	exportSvc := service.NewExportService(pipelineSvc, fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	userSvc := service.NewUserService(userRepo, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	datasetHandler := handler.NewDatasetHandler(datasetSvc)
	pipelineHandler := handler.NewPipelineHandler(pipelineSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		users := api.Group("/users", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
		{
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.POST("", userHandler.Create)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
		}

		datasets := api.Group("/datasets", middleware.JWT(authSvc))
		{
			datasets.POST("", middleware.RequireRoles(models.RoleAdmin, models.RolePlanner), datasetHandler.Create)
			datasets.POST("/csv", middleware.RequireRoles(models.RoleAdmin, models.RolePlanner), datasetHandler.CreateFromCSV)
			datasets.GET("", datasetHandler.List)
			datasets.GET("/:id", datasetHandler.Get)
			datasets.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, models.AuditActionDatasetDelete, "datasets"), datasetHandler.Delete)
		}

		pipeline := api.Group("/pipeline", middleware.JWT(authSvc))
		{
			pipeline.POST("/runs", middleware.RequireRoles(models.RoleAdmin, models.RolePlanner), middleware.Audit(userRepo, models.AuditActionRunCreate, "pipeline_runs"), pipelineHandler.CreateRun)
			pipeline.GET("/runs", pipelineHandler.ListRuns)
			pipeline.GET("/runs/:id", pipelineHandler.GetRun)
			pipeline.GET("/runs/:id/export", pipelineHandler.ExportRun)
		}

		api.GET("/export/:token", pipelineHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
