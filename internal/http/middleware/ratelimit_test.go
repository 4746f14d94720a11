package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/config"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, zap.NewNop())
	handler := rl.LimitByIP(okHandler())

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/vendors/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		assert.Equal(t, http.StatusOK, serve(handler, req).Code)
	}
}

func TestRateLimiter_LimitExceeded(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 3,
	}, zap.NewNop())
	handler := rl.LimitByIP(okHandler())

	var limited *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/vendors/register", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rr := serve(handler, req)
		if i < 3 {
			assert.Equal(t, http.StatusOK, rr.Code)
			continue
		}
		limited = rr
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	}

	require.NotNil(t, limited)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	var body domain.APIError
	require.NoError(t, json.NewDecoder(limited.Body).Decode(&body))
	assert.Equal(t, domain.ErrorTypeRateLimited, body.Type)
	assert.Equal(t, http.StatusTooManyRequests, body.Status)

	other := httptest.NewRequest(http.MethodGet, "/api/v1/vendors/register", nil)
	other.RemoteAddr = "10.0.0.3:1234"
	assert.Equal(t, http.StatusOK, serve(handler, other).Code, "other clients have their own budget")
}

func TestRateLimiter_Whitelists(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		WhitelistIPs:      []string{"127.0.0.1"},
		WhitelistPaths:    []string{"/health/*", "/metrics"},
	}, zap.NewNop())
	handler := rl.LimitByIP(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.RemoteAddr = "127.0.0.1:9999"
		assert.Equal(t, http.StatusOK, serve(handler, req).Code)

		for _, path := range []string{"/health/ready", "/metrics"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.RemoteAddr = "10.1.1.1:9999"
			assert.Equal(t, http.StatusOK, serve(handler, req).Code, path)
		}
	}
}

func TestRateLimiter_ForwardedFor(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}, zap.NewNop())
	handler := rl.LimitByIP(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, http.StatusOK, serve(handler, first).Code)

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.Header.Set("X-Forwarded-For", "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, second).Code)
}

func TestRateLimiter_PrincipalBudget(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     100,
		RequestsPerMinuteAuth: 2,
	}, zap.NewNop())
	handler := rl.Limit(okHandler())

	request := func(p *auth.Principal) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/leads", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		return req.WithContext(auth.WithPrincipal(req.Context(), p))
	}

	vendor := &auth.Principal{ID: 1, Role: domain.RoleVendor}
	staff := &auth.Principal{ID: 1, Role: domain.RoleStaff}

	assert.Equal(t, http.StatusOK, serve(handler, request(vendor)).Code)
	assert.Equal(t, http.StatusOK, serve(handler, request(vendor)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, request(vendor)).Code)

	// Same numeric ID, different principal kind
	assert.Equal(t, http.StatusOK, serve(handler, request(staff)).Code)
}

func TestRateLimiter_LimitCredentials(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:                     true,
		RequestsPerMinute:           100,
		CredentialRequestsPerMinute: 2,
	}, zap.NewNop())
	handler := rl.LimitCredentials(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "198.51.100.4:5555"
		codes = append(codes, serve(handler, req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
