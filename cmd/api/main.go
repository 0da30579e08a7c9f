package main

import (
	"context"
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

	_ "github.com/gadconnect/gadconnect-api/api/swagger"
	"github.com/gadconnect/gadconnect-api/internal/handler"
	"github.com/gadconnect/gadconnect-api/internal/middleware"
	"github.com/gadconnect/gadconnect-api/internal/models"
	"github.com/gadconnect/gadconnect-api/internal/repository"
	"github.com/gadconnect/gadconnect-api/internal/service"
	"github.com/gadconnect/gadconnect-api/pkg/cache"
	"github.com/gadconnect/gadconnect-api/pkg/config"
	"github.com/gadconnect/gadconnect-api/pkg/database"
	"github.com/gadconnect/gadconnect-api/pkg/logger"
	corsmiddleware "github.com/gadconnect/gadconnect-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gadconnect/gadconnect-api/pkg/middleware/requestid"
)

// @title GADConnect API
// @version 1.0.0
// @description Gender and Development program data platform
// @BasePath /api
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	periodRepo := repository.NewPeriodRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	communityRepo := repository.NewCommunityRepository(db)
	eventRepo := repository.NewEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services.
	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Analytics.CacheTTL, logr, cfg.Analytics.Enabled)
	} else {
		cacheService = service.NewCacheService(nil, metricsService, cfg.Analytics.CacheTTL, logr, false)
	}

	auditService := service.NewAuditService(auditRepo, logr)

	notificationService := service.NewNotificationService(notificationRepo, userRepo, metricsService, service.NotificationConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, logr)

	authService := service.NewAuthService(userRepo, notificationService, auditService, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	periodService := service.NewPeriodService(periodRepo, archiveRepo, notificationService, auditService, validate, logr)
	studentService := service.NewStudentService(studentRepo, periodRepo, validate, logr)
	staffService := service.NewStaffService(staffRepo, periodRepo, validate, logr)
	communityService := service.NewCommunityService(communityRepo, periodRepo, validate, logr)
	eventService := service.NewEventService(eventRepo, periodRepo, validate, logr)
	userService := service.NewUserService(userRepo, auditService, validate, logr)
	analyticsService := service.NewAnalyticsService(periodRepo, studentRepo, staffRepo, communityRepo, eventRepo, cacheService, metricsService, logr)
	reportService := service.NewReportService(analyticsService, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	periodHandler := handler.NewPeriodHandler(periodService)
	studentHandler := handler.NewStudentHandler(studentService)
	staffHandler := handler.NewStaffHandler(staffService)
	communityHandler := handler.NewCommunityHandler(communityService)
	eventHandler := handler.NewEventHandler(eventService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	userHandler := handler.NewUserHandler(userService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, metricsService)
	reportHandler := handler.NewReportHandler(reportService)
	metricsHandler := handler.NewMetricsHandler(metricsService, db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationService.Start(ctx)
	defer notificationService.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		auth.Use(middleware.JWT(authService))
		auth.GET("/me", authHandler.Me)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/change-password", authHandler.ChangePassword)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))

	adminRoles := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	allRoles := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff)

	periods := protected.Group("/academic-periods")
	{
		periods.GET("", allRoles, periodHandler.List)
		periods.GET("/active", allRoles, periodHandler.GetActive)
		periods.GET("/:id", allRoles, periodHandler.Get)
		periods.POST("/validate", adminRoles, periodHandler.Validate)
		periods.POST("", adminRoles, periodHandler.Create)
		periods.PUT("/:id", adminRoles, periodHandler.Update)
		periods.POST("/transition", adminRoles, periodHandler.Transition)
	}

	students := protected.Group("/students")
	{
		students.GET("", allRoles, studentHandler.List)
		students.GET("/:id", allRoles, studentHandler.Get)
		students.POST("", allRoles, studentHandler.Create)
		students.PUT("/:id", allRoles, studentHandler.Update)
		students.DELETE("/:id", adminRoles, studentHandler.Archive)
	}

	staff := protected.Group("/staff-faculty")
	{
		staff.GET("", allRoles, staffHandler.List)
		staff.GET("/:id", allRoles, staffHandler.Get)
		staff.POST("", allRoles, staffHandler.Create)
		staff.PUT("/:id", allRoles, staffHandler.Update)
		staff.DELETE("/:id", adminRoles, staffHandler.Archive)
	}

	community := protected.Group("/community-members")
	{
		community.GET("", allRoles, communityHandler.List)
		community.GET("/:id", allRoles, communityHandler.Get)
		community.POST("", allRoles, communityHandler.Create)
		community.PUT("/:id", allRoles, communityHandler.Update)
		community.DELETE("/:id", adminRoles, communityHandler.Archive)
	}

	events := protected.Group("/events")
	{
		events.GET("", allRoles, eventHandler.List)
		events.GET("/:id", allRoles, eventHandler.Get)
		events.POST("", allRoles, eventHandler.Create)
		events.PUT("/:id", allRoles, eventHandler.Update)
		events.DELETE("/:id", adminRoles, eventHandler.Archive)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
		notifications.DELETE("/:id", notificationHandler.Delete)
		notifications.DELETE("", notificationHandler.DeleteAll)
	}

	if cfg.Analytics.Enabled {
		analytics := protected.Group("/analytics")
		analytics.GET("/demographics", allRoles, analyticsHandler.Demographics)
		analytics.GET("/system", adminRoles, analyticsHandler.System)
	}

	if cfg.Reports.Enabled {
		reports := protected.Group("/reports")
		reports.GET("/demographics", allRoles, reportHandler.Demographics)
	}

	users := protected.Group("/users")
	{
		users.GET("", adminRoles, userHandler.List)
		users.GET("/:id", middleware.RBAC("SUPERADMIN", "ADMIN", "SELF"), userHandler.Get)
		users.POST("", adminRoles, userHandler.Create)
		users.PUT("/:id", adminRoles, userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin), userHandler.Deactivate)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
