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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tuition-center-api/api/swagger"
	"github.com/noah-isme/tuition-center-api/internal/handler"
	"github.com/noah-isme/tuition-center-api/internal/middleware"
	"github.com/noah-isme/tuition-center-api/internal/repository"
	"github.com/noah-isme/tuition-center-api/internal/service"
	"github.com/noah-isme/tuition-center-api/pkg/cache"
	"github.com/noah-isme/tuition-center-api/pkg/config"
	"github.com/noah-isme/tuition-center-api/pkg/database"
	"github.com/noah-isme/tuition-center-api/pkg/export"
	"github.com/noah-isme/tuition-center-api/pkg/jobs"
	"github.com/noah-isme/tuition-center-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tuition-center-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tuition-center-api/pkg/middleware/requestid"
	"github.com/noah-isme/tuition-center-api/pkg/storage"
)

// @title Tuition Center API
// @version 1.0.0
// @description Teacher and student records, daily attendance, homework and progress tracking for a tuition center.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
			redisClient = nil
		}
	}
	rateLimits := repository.NewRateLimitRepository(redisClient, logr)
	defer rateLimits.Close() //nolint:errcheck

	loc := cfg.Location()
	validate := service.NewValidator()
	metricsSvc := service.NewMetricsService()
	if err := metricsSvc.RegisterDB(db.DB, cfg.Database.Name); err != nil {
		logr.Warn("db stats collector not registered", zap.Error(err))
	}

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	studentAttendanceRepo := repository.NewStudentAttendanceRepository(db)
	teacherAttendanceRepo := repository.NewTeacherAttendanceRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)
	progressRepo := repository.NewProgressLogRepository(db)
	contributorRepo := repository.NewContributorRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authSvc := service.NewAuthService(teacherRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, auditRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, auditRepo, validate, logr)
	studentAttendanceSvc := service.NewAttendanceService(studentAttendanceRepo, metricsSvc, validate, logr, loc)
	teacherAttendanceSvc := service.NewAttendanceService(teacherAttendanceRepo, metricsSvc, validate, logr, loc)
	analyticsSvc := service.NewAnalyticsService(studentAttendanceRepo, teacherAttendanceRepo, logr, service.AnalyticsConfig{
		StudentThreshold: cfg.Attendance.StudentThreshold,
		TeacherThreshold: cfg.Attendance.TeacherThreshold,
		LowWindowDays:    cfg.Attendance.LowWindowDays,
		Location:         loc,
	})
	homeworkSvc := service.NewHomeworkService(homeworkRepo, validate, logr, loc)
	progressSvc := service.NewProgressService(progressRepo, studentRepo, validate, logr)
	contributorSvc := service.NewContributorService(contributorRepo, validate, logr)

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("upload storage unavailable", zap.Error(err))
	}
	uploadSvc := service.NewUploadService(uploadStore, logr, service.UploadConfig{
		PublicPath:   cfg.Uploads.PublicPath,
		MaxBytes:     cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
	})

	handlers := handler.Handlers{
		Auth:              handler.NewAuthHandler(authSvc),
		Teachers:          handler.NewTeacherHandler(teacherSvc),
		Students:          handler.NewStudentHandler(studentSvc),
		StudentAttendance: handler.NewAttendanceHandler(studentAttendanceSvc, loc),
		TeacherAttendance: handler.NewAttendanceHandler(teacherAttendanceSvc, loc),
		Analytics:         handler.NewAnalyticsHandler(analyticsSvc, studentAttendanceSvc, teacherAttendanceSvc, loc),
		Homework:          handler.NewHomeworkHandler(homeworkSvc, loc),
		Progress:          handler.NewProgressHandler(progressSvc),
		Contributors:      handler.NewContributorHandler(contributorSvc),
		Uploads:           handler.NewUploadHandler(uploadSvc),
		Metrics:           handler.NewMetricsHandler(metricsSvc, db),
	}

	if cfg.Reports.Enabled {
		reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("report storage unavailable", zap.Error(err))
		}
		reportRepo := repository.NewReportRepository(db)
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(studentAttendanceRepo, teacherAttendanceRepo, reportStore, signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		worker := service.NewReportWorker(reportRepo, exportSvc, metricsSvc, cfg.Reports.WorkerRetries, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			RetryDelay: 5 * time.Second,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc := service.NewReportService(reportRepo, queue, exportSvc, auditRepo, validate, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			Location:        loc,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
		handlers.Reports = handler.NewReportHandler(reportSvc, logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", handlers.Metrics.Health)
	r.GET("/ready", handlers.Metrics.Ready)
	r.GET("/metrics", handlers.Metrics.Prometheus)
	r.Static(cfg.Uploads.PublicPath, cfg.Uploads.Dir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var credentialLimit gin.HandlerFunc
	if cfg.RateLimit.Enabled && redisClient != nil {
		credentialLimit = middleware.RateLimit(rateLimits, metricsSvc, middleware.RateLimitConfig{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		}, logr)
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, handler.RouteOptions{
		Authenticator:   authSvc,
		CredentialLimit: credentialLimit,
		Audit:           auditRepo,
		Logger:          logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
