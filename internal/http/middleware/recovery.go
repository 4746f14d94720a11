package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/logger"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500, logs the stack and reports it to Sentry
func Recovery(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hub := sentry.GetHubFromContext(r.Context())
			if hub == nil {
				hub = sentry.CurrentHub().Clone()
				r = r.WithContext(sentry.SetHubOnContext(r.Context(), hub))
			}
			hub.Scope().SetRequest(r)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				reqLog := logger.WithRequest(log, r.Method, r.URL.Path, r.Header.Get(requestIDHeader))
				if p, ok := auth.FromContext(r.Context()); ok {
					reqLog = logger.WithPrincipal(reqLog, p.ID, string(p.Role))
				}
				reqLog.Error("panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				hub.RecoverWithContext(r.Context(), fmt.Errorf("panic: %v", rec))

				writeError(w, http.StatusInternalServerError, domain.ErrorTypeInternal, "An internal error occurred")
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes the standard error payload
func writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:    errType,
		Title:   http.StatusText(status),
		Status:  status,
		Message: message,
	})
}
