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

	_ "github.com/JimEastburn/class-registration-system-sub001/api/swagger"
	"github.com/JimEastburn/class-registration-system-sub001/internal/handler"
	"github.com/JimEastburn/class-registration-system-sub001/internal/middleware"
	"github.com/JimEastburn/class-registration-system-sub001/internal/repository"
	"github.com/JimEastburn/class-registration-system-sub001/internal/router"
	"github.com/JimEastburn/class-registration-system-sub001/internal/service"
	"github.com/JimEastburn/class-registration-system-sub001/pkg/cache"
	"github.com/JimEastburn/class-registration-system-sub001/pkg/config"
	"github.com/JimEastburn/class-registration-system-sub001/pkg/database"
	"github.com/JimEastburn/class-registration-system-sub001/pkg/logger"
	corsmiddleware "github.com/JimEastburn/class-registration-system-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/JimEastburn/class-registration-system-sub001/pkg/middleware/requestid"
)

// @title Class Registration API
// @version 1.0.0
// @description Class registration platform with capacity-aware admission and waitlists
// @BasePath /api/v1
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
		logr.Sugar().Warnw("redis unavailable, notifications disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	metrics := service.NewMetricsService()
	notifier := service.NewNotificationService(redisClient, cfg.Notifications, metrics, logr)
	notifier.Start(ctx)
	defer notifier.Stop()

	authService := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "class-registration",
	})
	scheduleService := service.NewScheduleService(offeringRepo, logr)
	enrollmentService := service.NewEnrollmentService(
		enrollmentRepo, offeringRepo, studentRepo, blockRepo,
		auditRepo, notifier, metrics, validate, logr,
		cfg.Enrollment.AutoConfirmFree,
	)
	offeringService := service.NewOfferingService(offeringRepo, scheduleService, enrollmentRepo, auditRepo, validate, logr)
	blockService := service.NewBlockService(blockRepo, offeringRepo, studentRepo, auditRepo, validate, logr)
	paymentService := service.NewPaymentService(paymentRepo, enrollmentService, offeringRepo, logr)
	studentService := service.NewStudentService(studentRepo, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	router.Register(r, cfg.APIPrefix, router.Dependencies{
		AuthService:       authService,
		Metrics:           metrics,
		AuditLogs:         auditRepo,
		AuthHandler:       handler.NewAuthHandler(authService),
		AuditHandler:      handler.NewAuditHandler(auditRepo),
		OfferingHandler:   handler.NewOfferingHandler(offeringService, enrollmentService),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollmentService),
		BlockHandler:      handler.NewBlockHandler(blockService),
		PaymentHandler:    handler.NewPaymentHandler(paymentService),
		StudentHandler:    handler.NewStudentHandler(studentService),
		ScheduleHandler:   handler.NewScheduleHandler(scheduleService),
		MetricsHandler:    handler.NewMetricsHandler(metrics, db, redisClient),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

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
