package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/straye-as/vendor-portal-api/internal/config"
	"go.uber.org/zap"
)

var (
	defaultCORSMethods = []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Accept", "Authorization", "Content-Type", requestIDHeader}
)

// CORS returns a CORS middleware for the admin and vendor frontends
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   orDefault(cfg.AllowedMethods, defaultCORSMethods),
		AllowedHeaders:   orDefault(cfg.AllowedHeaders, defaultCORSHeaders),
		ExposedHeaders:   orDefault(cfg.ExposedHeaders, []string{requestIDHeader, "Content-Disposition"}),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	switch {
	case containsWildcard(cfg.AllowedOrigins):
		if !isDevelopment(environment) {
			logger.Warn("CORS configured with wildcard origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = anyOrigin

	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", cfg.AllowedOrigins))

	case isDevelopment(environment):
		options.AllowOriginFunc = anyOrigin
		logger.Info("CORS allowing all origins in development mode")

	default:
		// An empty AllowedOrigins would mean "*" to go-chi/cors, so deny explicitly
		options.AllowOriginFunc = func(*http.Request, string) bool { return false }
		logger.Warn("CORS has no allowed origins; cross-origin requests will be denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func anyOrigin(_ *http.Request, origin string) bool {
	return origin != ""
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func isDevelopment(environment string) bool {
	return environment == "" || environment == "development" || environment == "local"
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
