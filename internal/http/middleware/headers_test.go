package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/straye-as/vendor-portal-api/internal/config"
	"github.com/straye-as/vendor-portal-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.SecurityConfig{
		ContentTypeNosniff:    true,
		FrameOptions:          "DENY",
		ContentSecurityPolicy: "default-src 'none'",
		ReferrerPolicy:        "no-referrer",
	}
	handler := middleware.SecurityHeaders(cfg)(okHandler())

	t.Run("api responses are not cached", func(t *testing.T) {
		rr := serve(handler, httptest.NewRequest(http.MethodGet, "/api/v1/vendor/profile", nil))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
		assert.Equal(t, "default-src 'none'", rr.Header().Get("Content-Security-Policy"))
		assert.Equal(t, "no-referrer", rr.Header().Get("Referrer-Policy"))
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
		assert.Empty(t, rr.Header().Get("X-XSS-Protection"))
		assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))
	})

	t.Run("other paths keep default caching", func(t *testing.T) {
		rr := serve(handler, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Empty(t, rr.Header().Get("Cache-Control"))
	})
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.SecurityConfig
		expected string
	}{
		{"max age only", config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 600}, "max-age=600"},
		{"subdomains", config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 600, HSTSIncludeSubdomains: true}, "max-age=600; includeSubDomains"},
		{"preload", config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 600, HSTSIncludeSubdomains: true, HSTSPreload: true}, "max-age=600; includeSubDomains; preload"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			rr := serve(middleware.SecurityHeaders(&cfg)(okHandler()), httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.expected, rr.Header().Get("Strict-Transport-Security"))
		})
	}
}

func preflight(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/admin/leads", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	return req
}

func TestCORS(t *testing.T) {
	t.Run("explicit origins", func(t *testing.T) {
		cfg := &config.CORSConfig{AllowedOrigins: []string{"https://admin.example.com"}}
		handler := middleware.CORS(cfg, "production", zap.NewNop())(okHandler())

		rr := serve(handler, preflight("https://admin.example.com"))
		assert.Equal(t, "https://admin.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

		rr = serve(handler, preflight("https://evil.example.com"))
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("development allows any origin", func(t *testing.T) {
		handler := middleware.CORS(&config.CORSConfig{}, "development", zap.NewNop())(okHandler())

		rr := serve(handler, preflight("http://localhost:5173"))
		assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("production without origins denies", func(t *testing.T) {
		handler := middleware.CORS(&config.CORSConfig{}, "production", zap.NewNop())(okHandler())

		rr := serve(handler, preflight("https://admin.example.com"))
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("request id is exposed", func(t *testing.T) {
		cfg := &config.CORSConfig{AllowedOrigins: []string{"https://vendor.example.com"}}
		handler := middleware.CORS(cfg, "production", zap.NewNop())(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/profile", nil)
		req.Header.Set("Origin", "https://vendor.example.com")
		rr := serve(handler, req)
		assert.Contains(t, rr.Header().Get("Access-Control-Expose-Headers"), "X-Request-Id")
	})
}
