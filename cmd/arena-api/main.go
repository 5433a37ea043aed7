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

	_ "github.com/viva-esporte/arena-api/api/swagger"
	"github.com/viva-esporte/arena-api/internal/handler"
	"github.com/viva-esporte/arena-api/internal/middleware"
	"github.com/viva-esporte/arena-api/internal/models"
	"github.com/viva-esporte/arena-api/internal/repository"
	"github.com/viva-esporte/arena-api/internal/service"
	"github.com/viva-esporte/arena-api/pkg/cache"
	"github.com/viva-esporte/arena-api/pkg/config"
	"github.com/viva-esporte/arena-api/pkg/database"
	"github.com/viva-esporte/arena-api/pkg/logger"
	corsmiddleware "github.com/viva-esporte/arena-api/pkg/middleware/cors"
	reqidmiddleware "github.com/viva-esporte/arena-api/pkg/middleware/requestid"
)

// @title Arena API
// @version 1.0.0
// @description Enrollment and scheduling backend for community sports programs
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caches degrade to misses", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr).WithMetrics(metricsSvc)

	notificationSvc := service.NewNotificationService(notificationRepo, cacheRepo, cfg.Notifications, cfg.Cache.UnreadCountTTL, logr)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	ledger := service.NewCapacityLedger(classRepo, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)

	enrollmentSvc := service.NewEnrollmentService(
		enrollmentRepo, classRepo, userRepo, requestRepo,
		ledger, auditRepo, notificationSvc,
		cfg.Enrollment.MaxActivities, validate, logr,
	).WithMetrics(metricsSvc)

	classSvc := service.NewClassService(classRepo, userRepo, ledger, auditRepo, cacheRepo, cfg.Cache.ClassListTTL, validate, logr)
	requestSvc := service.NewRequestService(requestRepo, classRepo, userRepo, enrollmentSvc, auditRepo, notificationSvc, cacheRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, enrollmentSvc, auditRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, classRepo, auditRepo, validate, logr)
	reportSvc := service.NewReportService(classRepo, enrollmentRepo, auditRepo, cfg.Reports.Enabled, logr)
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "arena-api",
	})

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc, enrollmentSvc)
	classHandler := handler.NewClassHandler(classSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	requestHandler := handler.NewRequestHandler(requestSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	staff := middleware.RequireRoles(models.RoleSecretary, models.RoleAnalyst, models.RoleCoordinator)
	frontDesk := middleware.RequireRoles(models.RoleSecretary, models.RoleCoordinator)
	coordinatorOnly := middleware.RequireRoles(models.RoleCoordinator)

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", staff, userHandler.List)
		users.GET("/:id", middleware.RBAC("SECRETARY", "ANALYST", "COORDINATOR", "SELF"), userHandler.Get)
		users.GET("/:id/enrollments", middleware.RBAC("SECRETARY", "ANALYST", "COORDINATOR", "SELF"), userHandler.Enrollments)
		users.POST("", frontDesk, userHandler.Create)
		users.PUT("/:id", middleware.RBAC("SECRETARY", "COORDINATOR", "SELF"), userHandler.Update)
		users.DELETE("/:id", coordinatorOnly, userHandler.Delete)
	}

	classes := api.Group("/classes", middleware.JWT(authSvc))
	{
		classes.GET("", classHandler.List)
		classes.GET("/:id", classHandler.Get)
		classes.POST("", coordinatorOnly, classHandler.Create)
		classes.PUT("/:id", coordinatorOnly, classHandler.Update)
		classes.DELETE("/:id", coordinatorOnly, classHandler.Delete)
		classes.POST("/:id/reconcile", coordinatorOnly, classHandler.Reconcile)
	}

	enrollments := api.Group("/enrollments", middleware.JWT(authSvc))
	{
		enrollments.GET("", staff, enrollmentHandler.List)
		enrollments.POST("", frontDesk, enrollmentHandler.Create)
		enrollments.DELETE("/:id", frontDesk, enrollmentHandler.Delete)
	}

	requests := api.Group("/requests", middleware.JWT(authSvc))
	{
		requests.GET("", staff, requestHandler.List)
		requests.GET("/:id", staff, requestHandler.Get)
		requests.POST("/classes", staff, requestHandler.SubmitCreate)
		requests.PUT("/classes/:id", staff, requestHandler.SubmitUpdate)
		requests.POST("/:id/resolve", coordinatorOnly, requestHandler.Resolve)
	}

	attendance := api.Group("/attendance", middleware.JWT(authSvc))
	{
		attendance.POST("", middleware.RequireRoles(models.RoleAnalyst, models.RoleCoordinator), attendanceHandler.Submit)
		attendance.GET("", staff, attendanceHandler.List)
	}

	notifications := api.Group("/notifications", middleware.JWT(authSvc))
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	api.GET("/audit-logs", middleware.JWT(authSvc), coordinatorOnly, auditHandler.List)
	api.GET("/reports/attendance-sheet", middleware.JWT(authSvc), staff, reportHandler.MonthlySheet)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
