package main

import (
	"context"
	"fmt"
	"log"

	_ "github.com/campushq/records-api/api/swagger"
	"github.com/campushq/records-api/internal/handler"
	"github.com/campushq/records-api/internal/repository"
	"github.com/campushq/records-api/internal/router"
	"github.com/campushq/records-api/internal/service"
	"github.com/campushq/records-api/pkg/cache"
	"github.com/campushq/records-api/pkg/config"
	"github.com/campushq/records-api/pkg/database"
	"github.com/campushq/records-api/pkg/export"
	"github.com/campushq/records-api/pkg/logger"
	"github.com/campushq/records-api/pkg/mailer"
	"github.com/campushq/records-api/pkg/storage"
)

// @title Campus Records API
// @version 0.1.0
// @description Institutional records backend
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
	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// Cache is optional: a missing Redis degrades to uncached reads.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		sugar.Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Storage.BaseDir)
	if err != nil {
		sugar.Fatalw("failed to init storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
	attachments := service.NewAttachmentManager(store, signer, cfg.APIPrefix+"/files")

	mail := mailer.New(cfg.SMTP, logr)
	notifier := service.NewNotificationService(mail, cfg.Notifications, logr)
	notifier.Start(context.Background())
	defer notifier.Stop()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	examRepo := repository.NewExamRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	grievanceRepo := repository.NewGrievanceRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	thesisRepo := repository.NewThesisRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	auditSvc := service.NewAuditService(auditRepo, logr)
	authSvc := service.NewAuthService(userRepo, studentRepo, auditRepo, notifier, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		ResetTokenExpiry:   cfg.JWT.ResetTokenExpiry,
		Issuer:             cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, userRepo, notifier, nil, logr)
	facultySvc := service.NewFacultyService(facultyRepo, userRepo, notifier, nil, logr)
	examSvc := service.NewExamService(examRepo, attachments, cacheSvc, nil, logr)
	receipts := export.NewReceiptRenderer(cfg.SMTP.FromName)
	feeSvc := service.NewFeeService(feeRepo, studentRepo, receipts, notifier, nil, logr)
	admissionSvc := service.NewAdmissionService(admissionRepo, studentRepo, userRepo, attachments, notifier, nil, logr)
	grievanceSvc := service.NewGrievanceService(grievanceRepo, userRepo, attachments, notifier, nil, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, userRepo, attachments, notifier, nil, logr)
	thesisSvc := service.NewThesisService(thesisRepo, studentRepo, attachments, notifier, nil, logr)
	healthSvc := service.NewHealthService(db, redisClient, store, mail, logr)

	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Students:   handler.NewStudentHandler(studentSvc),
		Faculty:    handler.NewFacultyHandler(facultySvc),
		Exams:      handler.NewExamHandler(examSvc, cfg.Storage),
		Fees:       handler.NewFeeHandler(feeSvc),
		Admissions: handler.NewAdmissionHandler(admissionSvc, cfg.Storage),
		Grievances: handler.NewGrievanceHandler(grievanceSvc, cfg.Storage),
		Leaves:     handler.NewLeaveHandler(leaveSvc, cfg.Storage),
		Theses:     handler.NewThesisHandler(thesisSvc, studentSvc, cfg.Storage),
		Audit:      handler.NewAuditHandler(auditSvc),
		Health:     handler.NewHealthHandler(healthSvc),
		Files:      handler.NewFilesHandler(store, signer),
	}

	r := router.New(cfg, logr, handlers, router.Services{
		Auth:    authSvc,
		Audits:  auditSvc,
		Metrics: metricsSvc,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	sugar.Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		sugar.Fatalw("server failed", "error", err)
	}
}
