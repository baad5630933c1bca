package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/maminech/smartkid-api/api/swagger"
	"github.com/maminech/smartkid-api/internal/access"
	"github.com/maminech/smartkid-api/internal/handler"
	"github.com/maminech/smartkid-api/internal/middleware"
	"github.com/maminech/smartkid-api/internal/repository"
	"github.com/maminech/smartkid-api/internal/service"
	"github.com/maminech/smartkid-api/pkg/cache"
	"github.com/maminech/smartkid-api/pkg/config"
	"github.com/maminech/smartkid-api/pkg/database"
	"github.com/maminech/smartkid-api/pkg/logger"
	corsmiddleware "github.com/maminech/smartkid-api/pkg/middleware/cors"
	reqidmiddleware "github.com/maminech/smartkid-api/pkg/middleware/requestid"
)

// @title SmartKid API
// @version 1.0.0
// @description Role-scoped daycare management API
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, stats caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	reportRepo := repository.NewReportRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	roadmapRepo := repository.NewRoadmapRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, logr, cfg.Stats.CacheEnabled)
	}

	resolver := access.NewResolver(studentRepo)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, resolver, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, resolver, validate, logr)
	reportSvc := service.NewReportService(reportRepo, resolver, validate, logr)
	badgeSvc := service.NewBadgeService(badgeRepo, resolver, validate, logr)
	milestoneSvc := service.NewMilestoneService(milestoneRepo, resolver, validate, logr)
	roadmapSvc := service.NewRoadmapService(roadmapRepo, resolver, validate, logr)
	exportSvc := service.NewExportService(reportRepo, studentRepo, resolver, logr)
	statsSvc := service.NewStatsService(userRepo, studentRepo, classRepo, reportRepo, cacheSvc, metrics, service.StatsConfig{
		CacheEnabled: cfg.Stats.CacheEnabled,
		CacheTTL:     cfg.Stats.CacheTTL,
	}, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		User:       handler.NewUserHandler(userSvc),
		Student:    handler.NewStudentHandler(studentSvc),
		Class:      handler.NewClassHandler(classSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc),
		Report:     handler.NewReportHandler(reportSvc, exportSvc),
		Badge:      handler.NewBadgeHandler(badgeSvc),
		Milestone:  handler.NewMilestoneHandler(milestoneSvc),
		Roadmap:    handler.NewRoadmapHandler(roadmapSvc),
		Admin:      handler.NewAdminHandler(statsSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
