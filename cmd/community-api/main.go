package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/wavenote-dev/community-api/api/swagger"
	"github.com/wavenote-dev/community-api/internal/handler"
	"github.com/wavenote-dev/community-api/internal/middleware"
	"github.com/wavenote-dev/community-api/internal/models"
	"github.com/wavenote-dev/community-api/internal/repository"
	"github.com/wavenote-dev/community-api/internal/service"
	"github.com/wavenote-dev/community-api/pkg/cache"
	"github.com/wavenote-dev/community-api/pkg/config"
	"github.com/wavenote-dev/community-api/pkg/database"
	"github.com/wavenote-dev/community-api/pkg/logger"
	corsmiddleware "github.com/wavenote-dev/community-api/pkg/middleware/cors"
	reqidmiddleware "github.com/wavenote-dev/community-api/pkg/middleware/requestid"
	"github.com/wavenote-dev/community-api/pkg/storage"
)

// @title Community API
// @version 0.1.0
// @description Beatmap review lifecycle and community endpoints
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	exportFiles, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}

	// Repositories.
	setRepo := repository.NewBeatmapsetRepository(db)
	beatmapRepo := repository.NewBeatmapRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	postRepo := repository.NewPostRepository(db)
	nominationRepo := repository.NewNominationRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	userRepo := repository.NewUserRepository(db)
	packRepo := repository.NewPackRepository(db)
	exportRepo := repository.NewExportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	ledger := service.NewNominationLedger(nominationRepo, cfg.Nominations, nil)
	topicSvc := service.NewTopicService(topicRepo, postRepo, ledger, cfg.Forums, cfg.Icons, logr)
	cleanupSvc := service.NewCleanupService(ledger, scoreRepo, logr)
	notifier := service.NewWebhookNotifier(cfg.Webhook, cfg.BaseURL, logr)
	statusSvc := service.NewStatusService(db, setRepo, beatmapRepo, topicSvc, ledger, cleanupSvc, notifier, userRepo, logr,
		service.WithProfileCacheInvalidation(cacheRepo))
	authSvc := service.NewAuthService(userRepo, validator.New(), logr, cfg.JWT)
	profileSvc := service.NewProfileService(userRepo, setRepo, postRepo, nominationRepo, cacheRepo, cfg.Profiles.CacheTTL, logr)
	packSvc := service.NewPackService(packRepo, cacheRepo, cfg.Packs.CacheTTL, logr)
	exportSvc := service.NewExportService(cfg.Exports, exportRepo, nominationRepo, setRepo, exportFiles, userRepo, logr)
	metricsSvc := service.NewMetricsService()
	notifier.UseMetrics(metricsSvc)
	profileSvc.UseMetrics(metricsSvc)
	packSvc.UseMetrics(metricsSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifier.Start(ctx)
	defer notifier.Stop()
	exportSvc.Start(ctx)
	defer exportSvc.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	statusHandler := handler.NewStatusHandler(statusSvc, metricsSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	packHandler := handler.NewPackHandler(packSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.POST("/auth/login", authHandler.Login)
	r.GET("/auth/me", middleware.JWT(authSvc), authHandler.Me)

	r.GET("/users/:id", profileHandler.GetProfile)
	r.GET("/packs", packHandler.Listing)
	r.GET("/exports/download", exportHandler.Download)

	reviewer := r.Group("/", middleware.JWT(authSvc), middleware.RequireReviewer())
	{
		statusAudit := middleware.Audit(userRepo, models.AuditActionStatusChange, "beatmapset")
		reviewer.POST("/beatmapsets/:id/difficulty-statuses", statusAudit, statusHandler.UpdateDifficultyStatuses)
		reviewer.POST("/beatmapsets/:id/status", statusAudit, statusHandler.UpdateBeatmapsetStatus)
		reviewer.POST("/beatmapsets/:id/exports", exportHandler.RequestExport)
		reviewer.GET("/exports/:id", exportHandler.GetJob)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
