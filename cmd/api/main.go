package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/straye-as/vendor-portal-api/docs"
	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/config"
	"github.com/straye-as/vendor-portal-api/internal/database"
	"github.com/straye-as/vendor-portal-api/internal/http/handler"
	"github.com/straye-as/vendor-portal-api/internal/http/middleware"
	"github.com/straye-as/vendor-portal-api/internal/http/router"
	"github.com/straye-as/vendor-portal-api/internal/jobs"
	"github.com/straye-as/vendor-portal-api/internal/logger"
	"github.com/straye-as/vendor-portal-api/internal/metrics"
	"github.com/straye-as/vendor-portal-api/internal/notify"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"github.com/straye-as/vendor-portal-api/internal/service"
	"github.com/straye-as/vendor-portal-api/internal/storage"
	"go.uber.org/zap"
)

const jobTimeout = 5 * time.Minute

// @title Straye Vendor Portal API
// @version 1.0
// @description Vendor onboarding, lead routing and assignment tracking

// @contact.name API Support
// @contact.email support@straye.io

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session token issued by /auth/login or /vendors/login, as "Bearer <token>"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" || basicCfg.App.Environment == "local" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	} else {
		docs.SwaggerInfo.Host = ""
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.App.Environment,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
			AttachStacktrace: true,
		}); err != nil {
			log.Warn("Failed to initialize Sentry", zap.Error(err))
		} else {
			log.Info("Sentry initialized", zap.String("environment", cfg.App.Environment))
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Metrics
	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		gatherer = reg
	}

	// Notifications
	var (
		notifier    notify.Notifier = notify.Nop{}
		dispatcher  *notify.Dispatcher
		redisClient *redis.Client
	)
	if cfg.Notifications.Enabled {
		var queue notify.Queue
		switch cfg.Notifications.Queue {
		case "redis":
			redisClient, err = notify.NewRedisClient(ctx, cfg.Redis.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			defer func() { _ = redisClient.Close() }()
			queue = notify.NewRedisQueue(redisClient, cfg.Notifications.QueueKey)
		default:
			queue = notify.NewMemoryQueue(cfg.Notifications.QueueSize)
		}

		var mailer notify.Mailer
		if cfg.Notifications.SendGridAPIKey != "" {
			mailer = notify.NewSendGridMailer(cfg.Notifications.SendGridAPIKey, cfg.Notifications.FromEmail, cfg.Notifications.FromName)
		} else {
			log.Warn("SendGrid API key not configured, notifications will only be logged")
			mailer = notify.NewLogMailer(log)
		}

		dispatcher = notify.NewDispatcher(
			queue,
			mailer,
			notify.Composer{BaseURL: cfg.App.BaseURL, AdminEmail: cfg.Notifications.AdminEmail},
			notify.DispatcherConfig{
				Workers:     cfg.Notifications.Workers,
				SendTimeout: cfg.Notifications.SendTimeoutDuration(),
			},
			m,
			log,
		)
		dispatcher.Start()
		notifier = dispatcher

		log.Info("Notifications enabled",
			zap.String("queue", cfg.Notifications.Queue),
			zap.Int("workers", cfg.Notifications.Workers))
	}

	// Initialize repositories
	vendorRepo := repository.NewVendorRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	assignmentRepo := repository.NewLeadAssignmentRepository(db)
	eventRepo := repository.NewLeadEventRepository(db)
	userRepo := repository.NewUserRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)

	// Initialize services
	tokens := auth.NewTokenManager(&cfg.Auth)
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, log)

	vendorService := service.NewVendorService(db, vendorRepo, applicationRepo, documentRepo, auditLogRepo,
		numberSequenceService, tokens, notifier, m, log, cfg.Auth.MinPasswordLength)
	leadService := service.NewLeadService(db, leadRepo, assignmentRepo, eventRepo, vendorRepo, auditLogRepo,
		numberSequenceService, notifier, m, log)
	userService := service.NewUserService(db, userRepo, auditLogRepo, notifier, log)
	authService := service.NewAuthService(db, userRepo, resetRepo, tokens, notifier, m, log,
		cfg.Auth.PasswordResetTTLDuration(), cfg.Auth.MinPasswordLength)
	documentService := service.NewDocumentService(documentRepo, vendorRepo, auditLogRepo, fileStorage, log)
	auditLogService := service.NewAuditLogService(auditLogRepo, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(tokens, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, redisClient, m, gatherer, authMiddleware, rateLimiter, router.Handlers{
		Auth:         handler.NewAuthHandler(authService, log),
		Vendor:       handler.NewVendorHandler(vendorService, log),
		VendorPortal: handler.NewVendorPortalHandler(leadService, documentService, cfg.Storage.MaxUploadSizeMB, log),
		Lead:         handler.NewLeadHandler(leadService, log),
		User:         handler.NewUserHandler(userService, log),
		Document:     handler.NewDocumentHandler(documentService, log),
		Audit:        handler.NewAuditHandler(auditLogService, log),
	})

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.Register(
			scheduler,
			cfg.Jobs.PasswordResetPurgeCron,
			cfg.Jobs.AssignmentReminderCron,
			jobs.NewPasswordResetPurgeJob(authService, log, jobTimeout),
			jobs.NewAssignmentReminderJob(leadService, cfg.Jobs.AssignmentReminderAfterDuration(), log, jobTimeout),
		); err != nil {
			return fmt.Errorf("failed to register jobs: %w", err)
		}
		scheduler.Start()
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      http.TimeoutHandler(rt.Setup(), cfg.Server.RequestTimeoutDuration(), `{"type":"internal_error","title":"Service Unavailable","status":503,"message":"Request timed out"}`),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown gracefully", zap.Error(err))
		return err
	}

	// Running jobs may still enqueue notifications, so they stop before the dispatcher
	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
			log.Info("Scheduler stopped")
		case <-shutdownCtx.Done():
			log.Warn("Scheduler did not stop before the shutdown deadline")
		}
	}

	// Drain queued notifications after the last request and job have committed
	if dispatcher != nil {
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			log.Warn("Notification dispatcher did not stop cleanly", zap.Error(err))
		}
	}

	log.Info("Server stopped gracefully")
	return nil
}
