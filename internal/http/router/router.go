package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/config"
	"github.com/straye-as/vendor-portal-api/internal/database"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/http/handler"
	"github.com/straye-as/vendor-portal-api/internal/http/middleware"
	"github.com/straye-as/vendor-portal-api/internal/metrics"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/straye-as/vendor-portal-api/docs" // Import generated swagger docs
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Auth         *handler.AuthHandler
	Vendor       *handler.VendorHandler
	VendorPortal *handler.VendorPortalHandler
	Lead         *handler.LeadHandler
	User         *handler.UserHandler
	Document     *handler.DocumentHandler
	Audit        *handler.AuditHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	redis          *redis.Client
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

// NewRouter wires the HTTP surface. redis may be nil when the in-memory
// notification queue is used; gatherer may be nil when metrics are disabled.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		redis:          redisClient,
		metrics:        m,
		gatherer:       gatherer,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Metrics(rt.metrics))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Metrics.Enabled && rt.gatherer != nil {
		r.Handle(rt.cfg.Metrics.Path, promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))
	}

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Group(func(r chi.Router) {
			r.Use(rt.rateLimiter.LimitCredentials)

			r.Post("/auth/login", h.Auth.Login)
			r.Post("/auth/forgot-password", h.Auth.ForgotPassword)
			r.Post("/auth/reset-password", h.Auth.ResetPassword)
			r.Post("/vendors/register", h.Vendor.Register)
			r.Post("/vendors/login", h.Vendor.Login)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)

			r.Get("/auth/me", h.Auth.Me)

			// Vendor portal
			r.Route("/vendor", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireRole(domain.RoleVendor))

				r.Get("/profile", h.Vendor.Profile)
				r.Get("/leads", h.VendorPortal.Leads)
				r.Patch("/assignments/{id}", h.VendorPortal.UpdateAssignment)
				r.Post("/documents", h.VendorPortal.UploadDocument)
			})

			// Admin and staff console
			r.Route("/admin", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleStaff))
				adminOnly := rt.authMiddleware.RequireRole(domain.RoleAdmin)

				r.Route("/vendors", func(r chi.Router) {
					r.Get("/", h.Vendor.List)
					r.Post("/", h.Vendor.RegisterByStaff)
					r.Get("/{id}", h.Vendor.Get)
					r.With(adminOnly).Patch("/{id}/status", h.Vendor.UpdateStatus)
					r.Get("/{id}/documents", h.Document.ListForVendor)
				})
				r.Get("/documents/{id}/download", h.Document.Download)

				r.Route("/leads", func(r chi.Router) {
					r.Get("/", h.Lead.List)
					r.Post("/", h.Lead.Create)
					r.Get("/{id}", h.Lead.Get)
					r.Post("/{id}/reassign", h.Lead.Reassign)
					r.Get("/{id}/events", h.Lead.Events)
				})

				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Get("/users", h.User.List)
					r.Post("/users", h.User.Create)
					r.Get("/audit-logs", h.Audit.List)
				})
			})
		})
	})

	return r
}

// databaseHealth is the readiness probe with connection pool stats
func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats":   stats,
	})
}

// readiness checks every dependency the API needs to serve traffic
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	record := func(name string, err error) {
		if err != nil {
			rt.logger.Error("readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
			return
		}
		checks[name] = map[string]interface{}{"status": "healthy"}
	}

	record("database", database.HealthCheck(rt.db))

	if rt.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		record("redis", rt.redis.Ping(ctx).Err())
		cancel()
	}

	status, label := http.StatusOK, "healthy"
	if !allHealthy {
		status, label = http.StatusServiceUnavailable, "unhealthy"
	}
	writeHealth(w, status, map[string]interface{}{
		"status": label,
		"checks": checks,
	})
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
