package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/http/middleware"
	"github.com/straye-as/vendor-portal-api/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := middleware.Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := serve(handler, httptest.NewRequest(http.MethodGet, "/api/v1/admin/leads", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body domain.APIError
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, domain.ErrorTypeInternal, body.Type)
	assert.NotContains(t, body.Message, "boom")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
}

func TestRecovery_AbortHandlerPropagates(t *testing.T) {
	handler := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestLogging(t *testing.T) {
	t.Run("generates and echoes a request id", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		handler := middleware.Logging(zap.New(core))(okHandler())

		rr := serve(handler, httptest.NewRequest(http.MethodGet, "/health", nil))
		id := rr.Header().Get("X-Request-ID")
		assert.NotEmpty(t, id)

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, id, fields["request_id"])
		assert.EqualValues(t, http.StatusOK, fields["status_code"])
	})

	t.Run("keeps an incoming request id", func(t *testing.T) {
		handler := middleware.Logging(zap.NewNop())(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")

		rr := serve(handler, req)
		assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
	})

	t.Run("logs the principal set by inner middleware", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		inner := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				p := &auth.Principal{ID: 42, Role: domain.RoleVendor}
				next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
			})
		}
		handler := middleware.Logging(zap.New(core))(inner(okHandler()))

		serve(handler, httptest.NewRequest(http.MethodGet, "/api/v1/vendor/leads", nil))

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.EqualValues(t, 42, fields["principal_id"])
		assert.Equal(t, "vendor", fields["role"])
	})

	t.Run("server errors log at error level", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		handler := middleware.Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(middleware.Metrics(m))
	r.Get("/api/v1/admin/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/leads/7", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/leads/8", nil))

	assert.Equal(t, 2.0, promtest.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/admin/leads/{id}", "404")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	handler := middleware.Metrics(nil)(okHandler())
	assert.Equal(t, http.StatusOK, serve(handler, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}
